package worker

import (
	"context"
	"os"
	"path/filepath"

	"github.com/KBNLresearch/frame-generator/output"
	"github.com/KBNLresearch/frame-generator/pipeline"
	"github.com/KBNLresearch/frame-generator/s3client"
)

type s3Transactions interface {
	downloadInputs(ctx context.Context, task *Task, inputDir string) error
	saveResults(ctx context.Context, task *Task, result *pipeline.Result) error
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

// downloadInputs copies the regex, docs and stop objects under the job's input prefix into inputDir.
func (wrapper *s3ClientWrapper) downloadInputs(ctx context.Context, task *Task, inputDir string) error {
	keys, err := wrapper.s3Client.List(ctx, task.message.InputPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		rel, ok := inputPath(task.message.InputPrefix, key)
		if !ok {
			task.fdlLogger.Debug().Str("key", key).Msg("Skipping object outside input directories")
			continue
		}
		data, err := wrapper.s3Client.Download(ctx, key)
		if err != nil {
			return err
		}
		path := filepath.Join(inputDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (wrapper *s3ClientWrapper) saveResults(ctx context.Context, task *Task, result *pipeline.Result) error {
	return result.Save(ctx, output.S3Sink{Uploader: wrapper.s3Client, Prefix: task.message.OutputPrefix})
}
