package main

import (
	"errors"
	"os"

	docpager "github.com/alnah/go-docpager"
	"github.com/alnah/go-docpager/internal/config"
)

// Exit codes for the docpager CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every document composed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, snapshot or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, docpager.ErrBrowserConnect) ||
		errors.Is(err, docpager.ErrPageCreate) ||
		errors.Is(err, docpager.ErrPageLoad) ||
		errors.Is(err, docpager.ErrMeasure) ||
		errors.Is(err, docpager.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, docpager.ErrSnapshotParse) ||
		errors.Is(err, docpager.ErrInvalidKind) ||
		errors.Is(err, docpager.ErrUnknownEngine) ||
		errors.Is(err, docpager.ErrStyleNotFound) ||
		errors.Is(err, docpager.ErrTemplateSetNotFound) ||
		errors.Is(err, docpager.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}
