// Command logo-variants generates the three logo variants for every image in a
// directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/batch"
	"github.com/book-expert/logo-variants-service/internal/bgremoval"
	"github.com/book-expert/logo-variants-service/internal/config"
	"github.com/book-expert/logo-variants-service/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, os.Args[1:])

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main logic function, separated from main to allow for easier testing and
// clean exit handling.
func run(ctx context.Context, args []string) error {
	flgs, err := parseFlags(args)
	if err != nil {
		return err
	}

	projectRoot, configPath, err := configurator.FindProjectRoot(".")
	if err != nil {
		projectRoot, _ = os.Getwd()
		configPath = filepath.Join(projectRoot, "project.toml")
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file: %w", err)
	}

	if key := os.Getenv(config.EnvRemoverAPIKey); key != "" {
		cfg.Remover.APIKey = key
	}

	logDir := cfg.Paths.BaseLogsDir
	config.ApplyDefaults(cfg)

	options := mergeConfigAndFlags(cfg, flgs)

	return processWithLogger(ctx, cfg, &options, flgs.skipRemoval, projectRoot, logDir)
}

// flags represents the command-line arguments.
type flags struct {
	inputPath   string
	outputPath  string
	workers     int
	skipRemoval bool
}

// parseFlags defines and parses command-line flags.
func parseFlags(args []string) (flags, error) {
	var flagsVar flags

	flagSet := flag.NewFlagSet("logo-variants", flag.ContinueOnError)
	flagSet.StringVar(&flagsVar.inputPath, "input", "", "Input directory of logo files (required).")
	flagSet.StringVar(&flagsVar.outputPath, "output", "", "Output directory for variants (required).")
	flagSet.IntVar(&flagsVar.workers, "workers", 0, "Number of concurrent workers.")
	flagSet.BoolVar(
		&flagsVar.skipRemoval,
		"skip-removal",
		false,
		"Skip background removal for logos that already have transparency.",
	)

	if err := flagSet.Parse(args); err != nil {
		return flags{}, fmt.Errorf("invalid arguments: %w", err)
	}

	return flagsVar, nil
}

// mergeConfigAndFlags combines settings from the config file and command-line flags.
// Flags take precedence over the config file settings.
func mergeConfigAndFlags(cfg *config.Config, flgs flags) batch.Options {
	opts := batch.Options{
		ProgressBarOutput: nil,
		InputPath:         cfg.Paths.InputDir,
		OutputPath:        cfg.Paths.OutputDir,
		Workers:           cfg.Batch.Workers,
	}

	if flgs.inputPath != "" {
		opts.InputPath = flgs.inputPath
	}

	if flgs.outputPath != "" {
		opts.OutputPath = flgs.outputPath
	}

	if flgs.workers > 0 {
		opts.Workers = flgs.workers
	}

	return opts
}

// newRemover picks the background remover for the batch.
func newRemover(cfg *config.Config, skipRemoval bool) bgremoval.Remover {
	if skipRemoval {
		return bgremoval.Passthrough{}
	}

	return bgremoval.NewClient(bgremoval.Options{
		HTTPClient: nil,
		Endpoint:   cfg.Remover.Endpoint,
		APIKey:     cfg.Remover.APIKey,
		Timeout:    cfg.Remover.Timeout.Duration,
	})
}

// processWithLogger sets up the logger and runs the processor.
func processWithLogger(
	ctx context.Context,
	cfg *config.Config,
	options *batch.Options,
	skipRemoval bool,
	projectRoot, logDir string,
) error {
	log, err := setupLogger(projectRoot, logDir)
	if err != nil {
		return fmt.Errorf("could not set up logger: %w", err)
	}

	defer func() {
		cerr := log.Close()
		if cerr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", cerr)
		}
	}()

	method, err := analysis.ParsePaletteMethod(cfg.Analysis.PaletteMethod)
	if err != nil {
		return fmt.Errorf("invalid analysis.palette_method: %w", err)
	}

	service, err := pipeline.NewService(&pipeline.Options{
		Remover:       newRemover(cfg, skipRemoval),
		MaxPixels:     cfg.Limits.MaxPixels,
		PaletteSize:   cfg.Analysis.PaletteSize,
		PaletteMethod: method,
	}, log)
	if err != nil {
		return err
	}

	summary, err := batch.NewProcessor(options, service, log).Process(ctx)
	if err != nil {
		return fmt.Errorf("logo processing failed: %w", err)
	}

	fmt.Printf("Processed %d logo(s), %d failed.\n", summary.Succeeded, summary.Failed)

	return nil
}

// setupLogger initializes the logger, creating the log directory if needed.
func setupLogger(projectRoot, logDirConfig string) (*logger.Logger, error) {
	logDir := logDirConfig
	if logDir == "" {
		logDir = filepath.Join(projectRoot, "logs", "logo_variants")
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("20060102_150405"))

	log, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}
