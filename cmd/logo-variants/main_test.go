package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/logo-variants-service/internal/batch"
	"github.com/book-expert/logo-variants-service/internal/bgremoval"
	"github.com/book-expert/logo-variants-service/internal/config"
)

// TestMergeConfigAndFlags verifies that command-line flags correctly override config file
// settings.
func TestMergeConfigAndFlags(t *testing.T) {
	t.Parallel()

	baseConfig := config.Config{
		Paths: config.PathsConfig{InputDir: "/config/in", OutputDir: "/config/out"},
		Batch: config.BatchConfig{Workers: 4},
	}

	testCases := []struct {
		name            string
		flags           flags
		expectedOptions batch.Options
	}{
		{
			name: "Flags should override all corresponding config values",
			flags: flags{
				inputPath:  "/flag/in",
				outputPath: "/flag/out",
				workers:    8,
			},
			expectedOptions: batch.Options{
				ProgressBarOutput: nil,
				InputPath:         "/flag/in",
				OutputPath:        "/flag/out",
				Workers:           8,
			},
		},
		{
			name:  "Config values should be used when flags are not provided",
			flags: flags{},
			expectedOptions: batch.Options{
				ProgressBarOutput: nil,
				InputPath:         "/config/in",
				OutputPath:        "/config/out",
				Workers:           4,
			},
		},
		{
			name:  "Partial flags override only what they set",
			flags: flags{outputPath: "/flag/out"},
			expectedOptions: batch.Options{
				ProgressBarOutput: nil,
				InputPath:         "/config/in",
				OutputPath:        "/flag/out",
				Workers:           4,
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig
			assert.Equal(t, testCase.expectedOptions, mergeConfigAndFlags(&cfg, testCase.flags))
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	flgs, err := parseFlags([]string{"-input", "in", "-output", "out", "-workers", "3", "-skip-removal"})
	require.NoError(t, err)
	assert.Equal(t, flags{inputPath: "in", outputPath: "out", workers: 3, skipRemoval: true}, flgs)

	_, err = parseFlags([]string{"-unknown"})
	require.Error(t, err)
}

func TestNewRemover(t *testing.T) {
	t.Parallel()

	var cfg config.Config
	config.ApplyDefaults(&cfg)

	assert.IsType(t, bgremoval.Passthrough{}, newRemover(&cfg, true))
	assert.IsType(t, &bgremoval.Client{}, newRemover(&cfg, false))
}

func TestSetupLogger_DefaultsUnderProjectRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	log, err := setupLogger(root, "")
	require.NoError(t, err)
	require.NoError(t, log.Close())

	assert.DirExists(t, filepath.Join(root, "logs", "logo_variants"))
}
