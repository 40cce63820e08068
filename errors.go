package docpager

import (
	"errors"

	"github.com/alnah/go-docpager/internal/assets"
	"github.com/alnah/go-docpager/internal/chrome"
)

// Sentinel errors for library operations.
var (
	ErrNilDocument    = errors.New("document is nil")
	ErrInvalidKind    = errors.New("invalid document kind")
	ErrLineItemIndex  = errors.New("line item index out of range")
	ErrSnapshotParse  = errors.New("failed to parse document snapshot")
	ErrUnknownEngine  = errors.New("unknown layout engine")
	ErrSessionClosed  = errors.New("session is closed")
	ErrComposerClosed = errors.New("composer is closed")
	ErrRender         = errors.New("failed to render document")

	// Asset loading errors.
	ErrStyleNotFound       = assets.ErrStyleNotFound
	ErrTemplateSetNotFound = assets.ErrTemplateSetNotFound
	ErrInvalidAssetPath    = errors.New("invalid asset path")

	// Browser errors, raised by the chrome engine and by PDF export.
	ErrBrowserConnect = chrome.ErrBrowserConnect
	ErrPageCreate     = chrome.ErrPageCreate
	ErrPageLoad       = chrome.ErrPageLoad
	ErrMeasure        = chrome.ErrMeasure
	ErrPDFGeneration  = chrome.ErrPDFGeneration
)
