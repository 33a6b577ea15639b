// Package config loads the TOML configuration shared by the logo binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Environment variables consulted by Load.
const (
	EnvConfigURL     = "LOGO_SERVICE_CONFIG_URL"
	EnvRemoverAPIKey = "REMOVER_API_KEY"
)

const (
	defaultAddr            = ":8080"
	defaultRemoverEndpoint = "https://api.stability.ai/v2beta/stable-image/edit/remove-background"
	defaultRemoverTimeout  = 60 * time.Second
	defaultMaxPixels       = 4096 * 4096
	defaultMaxUploadBytes  = 20 << 20
	defaultPaletteSize     = 5
	defaultPaletteMethod   = "dominantcolor"

	defaultLogoStreamName    = "LOGOS"
	defaultLogoConsumerName  = "logo-variants-worker"
	defaultLogoSubmitted     = "logos.submitted"
	defaultLogoBucket        = "LOGO_SOURCES"
	defaultVariantStreamName = "LOGO_VARIANTS"
	defaultVariantsCreated   = "logos.variants.created"
	defaultVariantBucket     = "LOGO_VARIANTS"
)

// Config represents the overall configuration of the logo services.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Remover  RemoverConfig  `toml:"remover"`
	Limits   LimitsConfig   `toml:"limits"`
	Analysis AnalysisConfig `toml:"analysis"`
	NATS     NATSConfig     `toml:"nats"`
	Paths    PathsConfig    `toml:"paths"`
	Batch    BatchConfig    `toml:"batch"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// RemoverConfig holds the background-removal API settings.
type RemoverConfig struct {
	Endpoint string   `toml:"endpoint"`
	APIKey   string   `toml:"api_key"`
	Timeout  Duration `toml:"timeout"`
}

// LimitsConfig bounds the size of accepted input.
type LimitsConfig struct {
	MaxPixels      int   `toml:"max_pixels"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

// AnalysisConfig controls the palette summary.
type AnalysisConfig struct {
	PaletteMethod string `toml:"palette_method"`
	PaletteSize   int    `toml:"palette_size"`
}

// NATSConfig holds the JetStream intake settings. An empty URL disables the worker.
type NATSConfig struct {
	URL                      string `toml:"url"`
	LogoStreamName           string `toml:"logo_stream_name"`
	LogoConsumerName         string `toml:"logo_consumer_name"`
	LogoSubmittedSubject     string `toml:"logo_submitted_subject"`
	LogoObjectStoreBucket    string `toml:"logo_object_store_bucket"`
	VariantStreamName        string `toml:"variant_stream_name"`
	VariantsCreatedSubject   string `toml:"variants_created_subject"`
	VariantObjectStoreBucket string `toml:"variant_object_store_bucket"`
}

// PathsConfig holds common path configurations.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
}

// BatchConfig holds the batch CLI defaults.
type BatchConfig struct {
	Workers int `toml:"workers"`
}

// Duration decodes TOML strings such as "45s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}

	d.Duration = parsed

	return nil
}

// Load resolves configuration. When LOGO_SERVICE_CONFIG_URL is set the file
// is fetched remotely; otherwise the project.toml of the enclosing project is
// read, and a missing file yields defaults. The returned string is the project
// root, or "" for remote configuration.
func Load(log *logger.Logger) (*Config, string, error) {
	var cfg Config

	projectRoot := ""

	if url := os.Getenv(EnvConfigURL); url != "" {
		if err := configurator.LoadFromURL(url, &cfg, log); err != nil {
			return nil, "", fmt.Errorf("failed to load configuration from URL %s: %w", url, err)
		}
	} else {
		root, configPath, err := configurator.FindProjectRoot(".")
		if err != nil {
			root, _ = os.Getwd()
			configPath = filepath.Join(root, "project.toml")
		}

		fileCfg, loadErr := LoadFile(configPath)
		if loadErr != nil {
			return nil, "", loadErr
		}

		cfg = *fileCfg
		projectRoot = root
	}

	if key := os.Getenv(EnvRemoverAPIKey); key != "" {
		cfg.Remover.APIKey = key
	}

	ApplyDefaults(&cfg)

	return &cfg, projectRoot, nil
}

// LoadFile decodes the TOML file at path, treating a missing file as empty.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}

		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	defaultString(&cfg.Server.Addr, defaultAddr)
	defaultString(&cfg.Remover.Endpoint, defaultRemoverEndpoint)

	if cfg.Remover.Timeout.Duration <= 0 {
		cfg.Remover.Timeout.Duration = defaultRemoverTimeout
	}

	defaultIntNonPositive(&cfg.Limits.MaxPixels, defaultMaxPixels)

	if cfg.Limits.MaxUploadBytes <= 0 {
		cfg.Limits.MaxUploadBytes = defaultMaxUploadBytes
	}

	defaultString(&cfg.Analysis.PaletteMethod, defaultPaletteMethod)
	defaultIntNonPositive(&cfg.Analysis.PaletteSize, defaultPaletteSize)

	defaultString(&cfg.NATS.LogoStreamName, defaultLogoStreamName)
	defaultString(&cfg.NATS.LogoConsumerName, defaultLogoConsumerName)
	defaultString(&cfg.NATS.LogoSubmittedSubject, defaultLogoSubmitted)
	defaultString(&cfg.NATS.LogoObjectStoreBucket, defaultLogoBucket)
	defaultString(&cfg.NATS.VariantStreamName, defaultVariantStreamName)
	defaultString(&cfg.NATS.VariantsCreatedSubject, defaultVariantsCreated)
	defaultString(&cfg.NATS.VariantObjectStoreBucket, defaultVariantBucket)

	defaultString(&cfg.Paths.BaseLogsDir, filepath.Join(os.TempDir(), "logo-variants-logs"))
}

func defaultString(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func defaultIntNonPositive(target *int, value int) {
	if *target <= 0 {
		*target = value
	}
}
