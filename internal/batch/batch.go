// Package batch generates logo variants for every image in a directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/book-expert/logger"
	"github.com/cheggaaa/pb/v3"

	"github.com/book-expert/logo-variants-service/internal/pipeline"
)

var (
	// ErrInputPathRequired is returned when input path is not provided.
	ErrInputPathRequired = errors.New("input path is required")
	// ErrOutputPathRequired is returned when output path is not provided.
	ErrOutputPathRequired = errors.New("output path is required")
	// ErrNoImages is returned when the input directory holds no supported logos.
	ErrNoImages = errors.New("no supported images found")
)

// LogoProcessor runs one logo through the variant pipeline.
type LogoProcessor interface {
	Process(ctx context.Context, requestID string, image []byte) (*pipeline.Result, error)
}

// Options holds all configurable parameters for a Processor.
type Options struct {
	ProgressBarOutput io.Writer
	InputPath         string
	OutputPath        string
	Workers           int
}

// Summary counts the outcome of a batch run.
type Summary struct {
	Succeeded int
	Failed    int
}

// Processor encapsulates the logic for processing a directory of logos.
type Processor struct {
	service LogoProcessor
	log     *logger.Logger
	config  Options
}

// NewProcessor creates a Processor, filling zero-value options with defaults.
func NewProcessor(opts *Options, service LogoProcessor, log *logger.Logger) *Processor {
	applyDefaultOptions(opts)

	return &Processor{
		service: service,
		log:     log,
		config:  *opts,
	}
}

// applyDefaultOptions fills zero-value fields in Options with sensible defaults.
func applyDefaultOptions(opts *Options) {
	opts.Workers = defaultIntNonPositive(opts.Workers, runtime.NumCPU())
	opts.ProgressBarOutput = defaultWriterNil(opts.ProgressBarOutput, os.Stdout)
}

func defaultIntNonPositive(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}

func defaultWriterNil(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}

	return w
}

// Process discovers the logos in the input directory and generates variants for
// each. Failures of individual files are logged and counted, not returned.
func (processor *Processor) Process(ctx context.Context) (Summary, error) {
	if err := processor.validateConfig(); err != nil {
		return Summary{}, err
	}

	imagePaths, err := processor.discoverInputImages()
	if err != nil {
		return Summary{}, err
	}

	processor.log.Info("Found %d logo(s) to process.", len(imagePaths))

	summary := processor.processAllImages(ctx, imagePaths)

	processor.log.Info("Batch finished: %d succeeded, %d failed.", summary.Succeeded, summary.Failed)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, fmt.Errorf("batch interrupted: %w", ctxErr)
	}

	return summary, nil
}

// validateConfig checks if the essential configuration options have been provided.
func (processor *Processor) validateConfig() error {
	if processor.config.InputPath == "" {
		return ErrInputPathRequired
	}

	if processor.config.OutputPath == "" {
		return ErrOutputPathRequired
	}

	return nil
}

// discoverInputImages discovers input logos and validates non-empty result.
func (processor *Processor) discoverInputImages() ([]string, error) {
	imagePaths, discoveryErr := DiscoverImages(processor.config.InputPath)
	if discoveryErr != nil {
		return nil, fmt.Errorf("failed to discover images: %w", discoveryErr)
	}

	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, processor.config.InputPath)
	}

	return imagePaths, nil
}

// processAllImages fans the logos out to a pool of workers behind a progress bar.
func (processor *Processor) processAllImages(ctx context.Context, imagePaths []string) Summary {
	jobs := make(chan string, len(imagePaths))

	var (
		waitGroup sync.WaitGroup
		succeeded atomic.Int64
		failed    atomic.Int64
	)

	progressBar := pb.New(len(imagePaths)).
		SetTemplateString(`{{ bar . " " "━" "━" " " " "}} {{percent .}} {{rtime .}}`).
		SetWriter(processor.config.ProgressBarOutput).
		Start()
	defer progressBar.Finish()

	for range min(processor.config.Workers, len(imagePaths)) {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			for imagePath := range jobs {
				if ctx.Err() != nil {
					processor.log.Warn("Context canceled, skipping %s", filepath.Base(imagePath))
					failed.Add(1)
					progressBar.Increment()

					continue
				}

				if err := processor.processOneImage(ctx, imagePath); err != nil {
					processor.log.Error("Failed to process %s: %v", filepath.Base(imagePath), err)
					failed.Add(1)
				} else {
					processor.log.Success("Successfully processed %s", filepath.Base(imagePath))
					succeeded.Add(1)
				}

				progressBar.Increment()
			}
		}()
	}

	for _, imagePath := range imagePaths {
		jobs <- imagePath
	}

	close(jobs)
	waitGroup.Wait()

	return Summary{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
}

// processOneImage generates and writes the variants of a single logo.
func (processor *Processor) processOneImage(ctx context.Context, imagePath string) error {
	data, readErr := os.ReadFile(imagePath)
	if readErr != nil {
		return fmt.Errorf("could not read image: %w", readErr)
	}

	result, processErr := processor.service.Process(ctx, filepath.Base(imagePath), data)
	if processErr != nil {
		return processErr
	}

	outputDir, setupErr := setupOutputDirectory(processor.config.OutputPath, imagePath)
	if setupErr != nil {
		return fmt.Errorf("could not set up output directory: %w", setupErr)
	}

	return writeVariants(outputDir, result.Variants)
}
