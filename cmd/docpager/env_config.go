package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-docpager/internal/config"
)

// envPrefix marks the environment variables docpager reads.
const envPrefix = "DOCPAGER_"

// envConfig holds configuration from environment variables, for CI jobs and
// containers that have no config file.
type envConfig struct {
	ConfigPath string        // DOCPAGER_CONFIG: config file name or path
	Engine     string        // DOCPAGER_ENGINE: model or chrome
	Style      string        // DOCPAGER_STYLE: CSS style name or path
	OutputDir  string        // DOCPAGER_OUTPUT_DIR: default output directory
	Timeout    time.Duration // DOCPAGER_TIMEOUT: per-document timeout
	Workers    int           // DOCPAGER_WORKERS: parallel workers
	MaxPages   int           // DOCPAGER_MAX_PAGES: visible page cap
}

// knownEnvVars lists valid DOCPAGER_* environment variables.
var knownEnvVars = map[string]bool{
	"DOCPAGER_CONFIG":     true,
	"DOCPAGER_ENGINE":     true,
	"DOCPAGER_STYLE":      true,
	"DOCPAGER_OUTPUT_DIR": true,
	"DOCPAGER_TIMEOUT":    true,
	"DOCPAGER_WORKERS":    true,
	"DOCPAGER_MAX_PAGES":  true,
	"DOCPAGER_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads the DOCPAGER_* variables through getenv. Malformed
// numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("DOCPAGER_CONFIG"),
		Engine:     getenv("DOCPAGER_ENGINE"),
		Style:      getenv("DOCPAGER_STYLE"),
		OutputDir:  getenv("DOCPAGER_OUTPUT_DIR"),
	}

	if v := getenv("DOCPAGER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := getenv("DOCPAGER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := getenv("DOCPAGER_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPages = n
		}
	}
	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized DOCPAGER_*
// variable, to catch typos like DOCPAGER_WORKER.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config file values with the set variables.
// Precedence: CLI flags > env vars > config file > defaults (flags are
// applied afterwards by mergeComposeFlags). The timeout is resolved
// separately by resolveTimeout.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Engine != "" {
		cfg.Layout.Engine = env.Engine
	}
	if env.Style != "" {
		cfg.Assets.Style = env.Style
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.MaxPages > 0 {
		cfg.Layout.MaxPages = env.MaxPages
	}
}
