package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-docpager/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - DOCPAGER_* parsing
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		want envConfig
	}{
		{name: "empty", vars: nil, want: envConfig{}},
		{
			name: "all set",
			vars: map[string]string{
				"DOCPAGER_CONFIG":     "tomar",
				"DOCPAGER_ENGINE":     "chrome",
				"DOCPAGER_STYLE":      "brand",
				"DOCPAGER_OUTPUT_DIR": "out",
				"DOCPAGER_TIMEOUT":    "45s",
				"DOCPAGER_WORKERS":    "3",
				"DOCPAGER_MAX_PAGES":  "5",
			},
			want: envConfig{
				ConfigPath: "tomar", Engine: "chrome", Style: "brand", OutputDir: "out",
				Timeout: 45 * time.Second, Workers: 3, MaxPages: 5,
			},
		},
		{
			name: "malformed numbers ignored",
			vars: map[string]string{
				"DOCPAGER_TIMEOUT":   "soon",
				"DOCPAGER_WORKERS":   "-2",
				"DOCPAGER_MAX_PAGES": "ten",
			},
			want: envConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := loadEnvConfig(func(k string) string { return tt.vars[k] })
			if *got != tt.want {
				t.Errorf("loadEnvConfig() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"DOCPAGER_WORKERS=2",
		"DOCPAGER_WORKER=2",
		"HOME=/root",
	})

	out := buf.String()
	if !strings.Contains(out, "DOCPAGER_WORKER ") {
		t.Errorf("output = %q, want a warning for DOCPAGER_WORKER", out)
	}
	if strings.Count(out, "warning:") != 1 {
		t.Errorf("output = %q, want exactly one warning", out)
	}
}

// ---------------------------------------------------------------------------
// TestConfigPrecedence - flags > env > config > defaults
// ---------------------------------------------------------------------------

func TestConfigPrecedence(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Assets.Style = "fromfile"
	cfg.Layout.MaxPages = 8

	applyEnvConfig(&envConfig{Engine: "chrome", Style: "fromenv", MaxPages: 6}, cfg)
	mergeComposeFlags(&composeFlags{maxPages: 4, output: "dist", pdf: true}, cfg)

	if cfg.Layout.Engine != "chrome" {
		t.Errorf("Engine = %q, want env value", cfg.Layout.Engine)
	}
	if cfg.Assets.Style != "fromenv" {
		t.Errorf("Style = %q, want env value", cfg.Assets.Style)
	}
	if cfg.Layout.MaxPages != 4 {
		t.Errorf("MaxPages = %d, want flag value", cfg.Layout.MaxPages)
	}
	if cfg.Output.DefaultDir != "dist" || !cfg.Output.PDF {
		t.Errorf("Output = %+v, want flag values", cfg.Output)
	}

	if got := resolveTimeout(0, 10*time.Second); got != 10*time.Second {
		t.Errorf("resolveTimeout(0, 10s) = %v", got)
	}
	if got := resolveTimeout(time.Minute, 10*time.Second); got != time.Minute {
		t.Errorf("resolveTimeout(1m, 10s) = %v", got)
	}
}
