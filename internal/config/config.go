package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-docpager/internal/debounce"
	"github.com/alnah/go-docpager/internal/fileutil"
	"github.com/alnah/go-docpager/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxNameLength    = 100  // branch or payee name
	MaxAddressLength = 300  // multi-line postal address
	MaxEmailLength   = 254  // RFC 5321
	MaxURLLength     = 2048 // browser limit
	MaxPhoneLength   = 40
	MaxAccountLength = 40 // bank account number
	MaxPrefixLength  = 10 // "TC-", "INV-"
	MaxSymbolLength  = 5  // "$", "NZ$"
	MaxLocaleLength  = 35 // BCP 47
	MaxDateLength    = 50 // date format
)

// Layout engines.
const (
	EngineModel  = "model"
	EngineChrome = "chrome"
)

// Engines lists the accepted layout engines.
var Engines = []string{EngineModel, EngineChrome}

// Config holds everything a composer needs besides the document itself.
type Config struct {
	Layout    LayoutConfig    `yaml:"layout"`
	Page      PageConfig      `yaml:"page"`
	Numbering NumberingConfig `yaml:"numbering"`
	Format    FormatConfig    `yaml:"format"`
	Branches  []BranchConfig  `yaml:"branches"`
	Payment   PaymentConfig   `yaml:"payment"`
	Theme     ThemeConfig     `yaml:"theme"`
	Assets    AssetsConfig    `yaml:"assets"`
	Output    OutputConfig    `yaml:"output"`
}

// LayoutConfig controls pagination.
type LayoutConfig struct {
	Engine     string `yaml:"engine"`     // "model" or "chrome" (default: "model")
	MaxPages   int    `yaml:"maxPages"`   // visible page cap (default: 10)
	DebounceMS int    `yaml:"debounceMs"` // live edit delay, 100-200 or 0 for the default (150)
	TimeoutSec int    `yaml:"timeoutSec"` // per document (default: 30)
}

// PageConfig mirrors the stylesheet dimensions for the synthetic layout
// engine. All lengths are CSS pixels.
type PageConfig struct {
	Height       float64 `yaml:"height"`
	Padding      float64 `yaml:"padding"`
	Gap          float64 `yaml:"gap"`
	FooterHeight float64 `yaml:"footerHeight"`
	LineHeight   float64 `yaml:"lineHeight"`
	CharsPerLine int     `yaml:"charsPerLine"`
	RowHeight    float64 `yaml:"rowHeight"`
}

// NumberingConfig drives document numbers: TC-1001, INV-1001.
type NumberingConfig struct {
	QuotePrefix   string `yaml:"quotePrefix"`
	InvoicePrefix string `yaml:"invoicePrefix"`
	NextQuote     int    `yaml:"nextQuote"`
	NextInvoice   int    `yaml:"nextInvoice"`
}

// FormatConfig controls how money, dates and tax print.
type FormatConfig struct {
	Locale         string  `yaml:"locale"`         // BCP 47 tag for digit grouping (default: "en-NZ")
	CurrencySymbol string  `yaml:"currencySymbol"` // default: "$"
	DateFormat     string  `yaml:"dateFormat"`     // dateutil tokens (default: "D MMMM YYYY")
	GSTRate        float64 `yaml:"gstRate"`        // percent applied when a document sets none (default: 15)
}

// BranchConfig is one sender identity.
type BranchConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Website string `yaml:"website"`
	GST     string `yaml:"gst"`
	Logo    string `yaml:"logo"`
}

// PaymentConfig feeds the default payment advice sentence.
type PaymentConfig struct {
	Payee   string `yaml:"payee"`
	Account string `yaml:"account"`
}

// ThemeConfig lists the page backgrounds a document may pick.
type ThemeConfig struct {
	Backgrounds []string `yaml:"backgrounds"`
	Default     string   `yaml:"default"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath    string `yaml:"basePath"`    // empty = embedded assets only
	Style       string `yaml:"style"`       // stylesheet name (default: "default")
	TemplateSet string `yaml:"templateSet"` // template set name (default: "default")
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = next to the document
	PDF        bool   `yaml:"pdf"`        // also print a PDF
}

// DefaultSender is printed in the page header when a document has no branch.
const DefaultSender = "Tomar Contracting"

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{Engine: EngineModel, MaxPages: 10, DebounceMS: 150, TimeoutSec: 30},
		Page: PageConfig{
			Height:       1123,
			Padding:      48,
			Gap:          24,
			FooterHeight: 24,
			LineHeight:   20,
			CharsPerLine: 95,
			RowHeight:    36,
		},
		Numbering: NumberingConfig{QuotePrefix: "TC-", InvoicePrefix: "INV-", NextQuote: 1001, NextInvoice: 1001},
		Format:    FormatConfig{Locale: "en-NZ", CurrencySymbol: "$", DateFormat: "D MMMM YYYY", GSTRate: 15},
		Branches:  []BranchConfig{{Name: DefaultSender}},
		Assets:    AssetsConfig{Style: "default", TemplateSet: "default"},
	}
}

// Validate checks lengths and ranges. Called by LoadConfig, but available
// for callers that build a Config by hand.
func (c *Config) Validate() error {
	switch c.Layout.Engine {
	case "", EngineModel, EngineChrome:
	default:
		return fmt.Errorf("%w: layout.engine %q (must be %s)", ErrInvalidValue, c.Layout.Engine, strings.Join(Engines, " or "))
	}
	if c.Layout.MaxPages < 0 || c.Layout.MaxPages > 100 {
		return fmt.Errorf("%w: layout.maxPages must be between 1 and 100, got %d", ErrInvalidValue, c.Layout.MaxPages)
	}
	// 0 keeps the default delay
	minMS, maxMS := int(debounce.MinDelay.Milliseconds()), int(debounce.MaxDelay.Milliseconds())
	if d := c.Layout.DebounceMS; d != 0 && (d < minMS || d > maxMS) {
		return fmt.Errorf("%w: layout.debounceMs must be between %d and %d, got %d", ErrInvalidValue, minMS, maxMS, d)
	}
	if c.Layout.TimeoutSec < 0 {
		return fmt.Errorf("%w: layout.timeoutSec cannot be negative", ErrInvalidValue)
	}

	for name, v := range map[string]float64{
		"page.height":       c.Page.Height,
		"page.padding":      c.Page.Padding,
		"page.gap":          c.Page.Gap,
		"page.footerHeight": c.Page.FooterHeight,
		"page.lineHeight":   c.Page.LineHeight,
		"page.rowHeight":    c.Page.RowHeight,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a positive length, got %v", ErrInvalidValue, name, v)
		}
	}
	if c.Page.CharsPerLine < 0 {
		return fmt.Errorf("%w: page.charsPerLine cannot be negative", ErrInvalidValue)
	}
	if c.Page.Height > 0 && 2*c.Page.Padding+c.Page.FooterHeight >= c.Page.Height {
		return fmt.Errorf("%w: page padding and footer leave no room for content", ErrInvalidValue)
	}

	if err := validateFieldLength("numbering.quotePrefix", c.Numbering.QuotePrefix, MaxPrefixLength); err != nil {
		return err
	}
	if err := validateFieldLength("numbering.invoicePrefix", c.Numbering.InvoicePrefix, MaxPrefixLength); err != nil {
		return err
	}
	if c.Numbering.NextQuote < 0 || c.Numbering.NextInvoice < 0 {
		return fmt.Errorf("%w: numbering counters cannot be negative", ErrInvalidValue)
	}

	if err := validateFieldLength("format.locale", c.Format.Locale, MaxLocaleLength); err != nil {
		return err
	}
	if err := validateFieldLength("format.currencySymbol", c.Format.CurrencySymbol, MaxSymbolLength); err != nil {
		return err
	}
	if err := validateFieldLength("format.dateFormat", c.Format.DateFormat, MaxDateLength); err != nil {
		return err
	}
	if c.Format.GSTRate < 0 || c.Format.GSTRate > 100 || math.IsNaN(c.Format.GSTRate) {
		return fmt.Errorf("%w: format.gstRate must be between 0 and 100, got %v", ErrInvalidValue, c.Format.GSTRate)
	}

	for i, b := range c.Branches {
		if err := b.validate(fmt.Sprintf("branches[%d]", i)); err != nil {
			return err
		}
	}

	if err := validateFieldLength("payment.payee", c.Payment.Payee, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("payment.account", c.Payment.Account, MaxAccountLength); err != nil {
		return err
	}

	for i, bg := range c.Theme.Backgrounds {
		if err := validateFieldLength(fmt.Sprintf("theme.backgrounds[%d]", i), bg, MaxURLLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("theme.default", c.Theme.Default, MaxURLLength); err != nil {
		return err
	}

	return nil
}

func (b BranchConfig) validate(prefix string) error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"name", b.Name, MaxNameLength},
		{"address", b.Address, MaxAddressLength},
		{"email", b.Email, MaxEmailLength},
		{"phone", b.Phone, MaxPhoneLength},
		{"website", b.Website, MaxURLLength},
		{"gst", b.GST, MaxAccountLength},
		{"logo", b.Logo, MaxURLLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(prefix+"."+f.name, f.value, f.max); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Branch returns branch i, or a branch named DefaultSender when i is out of
// range.
func (c *Config) Branch(i int) BranchConfig {
	if i >= 0 && i < len(c.Branches) {
		return c.Branches[i]
	}
	return BranchConfig{Name: DefaultSender}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields the file leaves out keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-docpager/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-docpager", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
