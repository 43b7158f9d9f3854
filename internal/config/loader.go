package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
)

// dotenvFiles are loaded before the configuration file. Variables already
// present in the environment are never overridden.
var dotenvFiles = []string{".env"}

// Overrides carries command-line values. Zero fields are ignored.
type Overrides struct {
	DryRun    *bool
	LogLevel  string
	LogFormat string
}

// Load resolves, reads and validates the configuration.
//
// Precedence, lowest to highest: defaults, the configuration file,
// DDNSWEAVER_* environment variables, command-line overrides. All problems
// are collected into a single *ValidationError.
func Load(flagPath string, overrides Overrides) (*Config, error) {
	loadDotenv()

	path, err := ResolvePath(flagPath)
	if err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}

	fileCfg, err := LoadFile(path)
	if err != nil {
		msg := "config file " + path + ": " + err.Error()
		if errors.Is(err, fs.ErrNotExist) {
			msg = "config file " + path + " not found (use --config or DDNSWEAVER_CONFIG)"
		}
		return nil, &ValidationError{Errors: []string{msg}}
	}

	cfg, errs := fileCfg.ToConfig()
	cfg.Path = path

	applyEnvOverrides(cfg)
	overrides.apply(cfg)
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// loadDotenv loads .env files from the working directory when present.
func loadDotenv() {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to load env file", slog.String("path", f), slog.String("error", err.Error()))
		}
	}
}

// applyEnvOverrides merges environment variable overrides into cfg.
// Environment variables always take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := getEnvWithFileFallback("API_TOKEN"); v != "" {
		cfg.APIToken = strings.TrimSpace(v)
	}

	if v := getEnv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v := getEnv(envPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getEnv(envPrefix + "DRY_RUN"); v != "" {
		cfg.DryRun = parseBool(v, cfg.DryRun)
	}
}

func (o Overrides) apply(cfg *Config) {
	if o.DryRun != nil {
		cfg.DryRun = *o.DryRun
	}
	if o.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(o.LogLevel)
	}
	if o.LogFormat != "" {
		cfg.LogFormat = strings.ToLower(o.LogFormat)
	}
}
