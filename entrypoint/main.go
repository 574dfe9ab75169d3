package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KBNLresearch/frame-generator/api"
	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/output"
	"github.com/KBNLresearch/frame-generator/pipeline"
	"github.com/KBNLresearch/frame-generator/redis"
	"github.com/KBNLresearch/frame-generator/tagger"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/KBNLresearch/frame-generator/worker"
	"github.com/kelseyhightower/envconfig"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	RestAPIActive bool   `envconfig:"FRAMES_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"FRAMES_REST_API_PORT" default:"10000"`
	APITempDir    string `envconfig:"FRAMES_API_TEMP_DIR" default:""`
	FrameParallel int    `envconfig:"FRAMES_FRAME_PARALLEL" default:"4"`
	LDAIterations int    `envconfig:"FRAMES_LDA_ITERATIONS" default:"200"`
}

const workerRestartDelay = 5 * time.Second

func main() {
	logger.SetupLogging()
	fdlLogger := logger.NewLogger("Main")

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fdlLogger.Error().Err(err).Msg("Invalid arguments")
		os.Exit(2)
	}
	if err := run(opts, fdlLogger); err != nil {
		fdlLogger.Error().Err(err).Msg("Frame generator stopped with error")
		os.Exit(1)
	}
}

func run(opts cliOptions, fdlLogger zerolog.Logger) error {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	ingestConfig, err := corpus.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	taggerClient, closeTagger, err := newTagger(fdlLogger)
	if err != nil {
		return err
	}
	defer closeTagger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generate := func(ctx context.Context, settings types.Settings, inputDir string) (*pipeline.Result, error) {
		return pipeline.Generate(ctx, pipeline.Params{
			Settings:       settings,
			InputDir:       inputDir,
			Tagger:         taggerClient,
			IngestParallel: ingestConfig.MaxParallel,
			Language:       ingestConfig.Language,
			FrameParallel:  config.FrameParallel,
			LDAIterations:  config.LDAIterations,
		})
	}

	switch {
	case config.RestAPIActive && opts.worker:
		go serveAPI(ctx, config, opts.settings, ingestConfig.Language, taggerClient, fdlLogger)
		return runWorker(ctx, generate, fdlLogger)
	case config.RestAPIActive:
		return serveAPI(ctx, config, opts.settings, ingestConfig.Language, taggerClient, fdlLogger)
	case opts.worker:
		return runWorker(ctx, generate, fdlLogger)
	}
	return runOnce(ctx, opts, generate, fdlLogger)
}

// newTagger builds the tagging client, with a Redis response cache when enabled and reachable.
func newTagger(fdlLogger zerolog.Logger) (*tagger.Client, func(), error) {
	config, err := tagger.ReadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tagger config: %w", err)
	}
	closer := func() {}
	var cache tagger.Cache
	if config.CacheEnabled {
		redisClient, err := redis.NewClient(redis.TaggerDB)
		if err != nil {
			fdlLogger.Warn().Err(err).Msg("Tagger cache unavailable, tagging without cache")
		} else {
			cache = redisClient
			closer = func() { _ = redisClient.Close() }
		}
	}
	client, err := tagger.New(config, cache)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return client, closer, nil
}

func runOnce(ctx context.Context, opts cliOptions, generate worker.Runner, fdlLogger zerolog.Logger) error {
	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = filepath.Join("output", ulid.Make().String())
	}
	result, err := generate(ctx, opts.settings, opts.inputDir)
	if err != nil {
		return err
	}
	if err := result.Save(ctx, output.DirSink{Dir: outputDir}); err != nil {
		return err
	}
	fdlLogger.Info().Str("output_dir", outputDir).Int("diagnostics", len(result.Diagnostics)).Msg("Saved results")
	return result.Print(os.Stdout)
}

func serveAPI(ctx context.Context, config Config, settings types.Settings, language string, taggerClient *tagger.Client, fdlLogger zerolog.Logger) error {
	fdlLogger.Info().Msg("Starting API service")
	apiRequest := &api.Request{
		Tagger:        taggerClient,
		Settings:      settings,
		TempDir:       config.APITempDir,
		FrameParallel: config.FrameParallel,
		Language:      language,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", apiRequest.ProcessData)
	server := &http.Server{Addr: fmt.Sprintf(":%s", config.RestAPIPort), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	fdlLogger.Info().Msgf("REST API on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fdlLogger.Err(err).Msg("REST API stopped with error")
		return err
	}
	return nil
}

func runWorker(ctx context.Context, generate worker.Runner, fdlLogger zerolog.Logger) error {
	fdlLogger.Info().Msg("Start frames worker")
	for {
		rmqWorker, err := worker.New(generate)
		if err != nil {
			return fmt.Errorf("could not initialize RMQ worker: %w", err)
		}
		err = rmqWorker.StartWorker(ctx)
		if ctx.Err() != nil {
			return nil
		}
		fdlLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(workerRestartDelay):
		}
	}
}
