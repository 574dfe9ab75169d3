package output

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
)

// Sink stores the output files of a run.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// DirSink writes into a local directory, creating it when needed.
type DirSink struct {
	Dir string
}

func (sink DirSink) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(sink.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(sink.Dir, name), data, 0o644)
}

// Uploader is implemented by s3client.Client.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
}

// S3Sink uploads every file below Prefix.
type S3Sink struct {
	Uploader Uploader
	Prefix   string
}

func (sink S3Sink) Put(ctx context.Context, name string, data []byte) error {
	return sink.Uploader.Upload(ctx, path.Join(sink.Prefix, name), bytes.NewReader(data))
}
