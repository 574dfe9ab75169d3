package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/output"
	"github.com/KBNLresearch/frame-generator/types"
)

// Result holds everything a run produced.
type Result struct {
	Settings    types.Settings
	Corpus      *types.Corpus
	Diagnostics []corpus.Diagnostic
	Topics      []types.Topic
	Keywords    []types.Keyword
	Frames      []types.Frame
}

type outputFile struct {
	name  string
	write func(w io.Writer) error
}

func (result *Result) files() []outputFile {
	files := []outputFile{
		{output.SettingsFile, func(w io.Writer) error { return output.WriteSettings(w, result.Settings) }},
		{output.DocsFile, func(w io.Writer) error { return output.WriteDocs(w, result.Corpus) }},
	}
	if len(result.Diagnostics) > 0 {
		files = append(files, outputFile{output.LogFile, func(w io.Writer) error { return output.WriteLog(w, result.Diagnostics) }})
	}
	if result.Topics != nil {
		files = append(files, outputFile{output.TopicsFile, func(w io.Writer) error { return output.WriteTopics(w, result.Topics) }})
	}
	if result.Settings.GenerationType == types.GenerateTopics {
		return files
	}
	files = append(files, outputFile{output.KeywordsFile, func(w io.Writer) error { return output.WriteKeywords(w, result.Keywords) }})
	if result.Settings.GenerationType == types.GenerateFrames {
		files = append(files, outputFile{output.FramesFile, func(w io.Writer) error { return output.WriteFrames(w, result.Frames) }})
	}
	return files
}

// Save writes the output files of the run to sink.
func (result *Result) Save(ctx context.Context, sink output.Sink) error {
	for _, file := range result.files() {
		var buf bytes.Buffer
		if err := file.write(&buf); err != nil {
			return fmt.Errorf("writing %s: %w", file.name, err)
		}
		if err := sink.Put(ctx, file.name, buf.Bytes()); err != nil {
			return fmt.Errorf("saving %s: %w", file.name, err)
		}
	}
	return nil
}

// Print lists the frames, keywords or topics of the run, whichever is the most specific.
func (result *Result) Print(w io.Writer) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	switch {
	case result.Frames != nil:
		printf("Keywords and frames generated:\n")
		for i, frame := range result.Frames {
			printf("(%d) %s [%s]\n", i+1, frame.Keyword.Term, output.FormatScore(frame.Keyword.Score))
			parts := make([]string, len(frame.Context))
			for j, term := range frame.Context {
				parts[j] = fmt.Sprintf("%s (%s)", term.Term, output.FormatScore(term.Score))
			}
			printf("%s\n", strings.Join(parts, ", "))
		}
	case result.Keywords != nil:
		printf("Keywords generated:\n")
		for i, keyword := range result.Keywords {
			printf("(%d) %s [%s]\n", i+1, keyword.Term, output.FormatScore(keyword.Score))
		}
	case result.Topics != nil:
		printf("Topics generated:\n")
		for i, topic := range result.Topics {
			terms := make([]string, len(topic))
			for j, term := range topic {
				terms[j] = term.Term
			}
			printf("[%d] %s\n", i+1, strings.Join(terms, ", "))
		}
	}
	return err
}
