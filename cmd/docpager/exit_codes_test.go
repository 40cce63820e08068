package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	docpager "github.com/alnah/go-docpager"
	"github.com/alnah/go-docpager/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		{"browser connect", docpager.ErrBrowserConnect, ExitBrowser},
		{"page create", docpager.ErrPageCreate, ExitBrowser},
		{"page load", docpager.ErrPageLoad, ExitBrowser},
		{"measure", docpager.ErrMeasure, ExitBrowser},
		{"pdf generation", docpager.ErrPDFGeneration, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("failed: %w", docpager.ErrBrowserConnect), ExitBrowser},

		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"snapshot parse", docpager.ErrSnapshotParse, ExitUsage},
		{"invalid kind", docpager.ErrInvalidKind, ExitUsage},
		{"unknown engine", docpager.ErrUnknownEngine, ExitUsage},
		{"style not found", docpager.ErrStyleNotFound, ExitUsage},
		{"template set not found", docpager.ErrTemplateSetNotFound, ExitUsage},
		{"invalid asset path", docpager.ErrInvalidAssetPath, ExitUsage},
		{"invalid worker count", ErrInvalidWorkerCount, ExitUsage},

		{"unknown error", errors.New("boom"), ExitGeneral},
		{"session closed", docpager.ErrSessionClosed, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes_Conventions(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Error("exit codes 0, 1, 2 must keep their Unix meaning")
	}
	for _, code := range []int{ExitIO, ExitBrowser} {
		if code >= 126 {
			t.Errorf("exit code %d collides with shell-reserved codes", code)
		}
	}
}
