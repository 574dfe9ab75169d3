package main

import (
	"flag"
	"io"
	"strings"

	"github.com/KBNLresearch/frame-generator/types"
)

type cliOptions struct {
	settings  types.Settings
	inputDir  string
	outputDir string
	worker    bool
}

// parseArgs reads the command line. Settings start from the defaults, or from the --config file
// when given; flags set explicitly take precedence over both.
func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	fs := flag.NewFlagSet("frame-generator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := types.DefaultSettings()
	gtype := fs.String("gtype", defaults.GenerationType, "type of generator: topics, keywords or frames")
	dlen := fs.Int("dlen", defaults.DocLength, "number of sentences per document")
	nopos := fs.Bool("nopos", false, "do not apply pos-tagging")
	tcount := fs.Int("tcount", defaults.TopicCount, "number of topics")
	tsize := fs.Int("tsize", defaults.TopicSize, "number of words per topic")
	kmodel := fs.String("kmodel", defaults.KeywordModel, "keyword scoring model: tf-idf or lda")
	kcount := fs.Int("kcount", defaults.KeywordCount, "number of keywords")
	ktags := fs.String("ktags", "", "space separated keyword pos-tags")
	wdir := fs.String("wdir", "", "window direction: left, right or both")
	wsize := fs.Int("wsize", defaults.WindowSize, "window size")
	fsize := fs.Int("fsize", defaults.FrameSize, "number of words per frame")
	ftags := fs.String("ftags", "", "space separated frame pos-tags")
	input := fs.String("input", "input", "input directory with regex, docs and stop subdirectories")
	output := fs.String("output", "", "output directory (default output/<run id>)")
	config := fs.String("config", "", "YAML settings file")
	worker := fs.Bool("worker", false, "consume generation jobs from the job queue")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	settings := defaults
	if *config != "" {
		loaded, err := types.LoadSettings(*config)
		if err != nil {
			return cliOptions{}, err
		}
		settings = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gtype":
			settings.GenerationType = *gtype
		case "dlen":
			settings.DocLength = *dlen
		case "nopos":
			settings.PosTag = !*nopos
		case "tcount":
			settings.TopicCount = *tcount
		case "tsize":
			settings.TopicSize = *tsize
		case "kmodel":
			settings.KeywordModel = *kmodel
		case "kcount":
			settings.KeywordCount = *kcount
		case "ktags":
			settings.KeywordTags = strings.Fields(*ktags)
		case "wdir":
			settings.WindowDirection = *wdir
		case "wsize":
			settings.WindowSize = *wsize
		case "fsize":
			settings.FrameSize = *fsize
		case "ftags":
			settings.FrameTags = strings.Fields(*ftags)
		}
	})

	return cliOptions{
		settings:  settings,
		inputDir:  *input,
		outputDir: *output,
		worker:    *worker,
	}, nil
}
