package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name        string
		styleName   string
		wantErr     error
		wantContain string
	}{
		{
			name:        "loads default style",
			styleName:   DefaultStyleName,
			wantContain: ".page-footer",
		},
		{
			name:      "returns ErrStyleNotFound for nonexistent",
			styleName: "nonexistent-style-xyz",
			wantErr:   ErrStyleNotFound,
		},
		{
			name:      "returns ErrInvalidAssetName for empty name",
			styleName: "",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "returns ErrInvalidAssetName for path traversal",
			styleName: "../secret",
			wantErr:   ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadStyle(tt.styleName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadStyle(%q) content should contain %q", tt.styleName, tt.wantContain)
			}
		})
	}
}

func TestEmbeddedLoader_LoadTemplateSet(t *testing.T) {
	t.Parallel()

	ts, err := NewEmbeddedLoader().LoadTemplateSet(DefaultTemplateSetName)
	if err != nil {
		t.Fatalf("LoadTemplateSet() error = %v", err)
	}

	// ids the paginators anchor on
	for _, id := range []string{
		`id="preview-line-items"`,
		`id="acceptance-preview"`,
		`id="preview-letterhead-content"`,
		`class="page-footer"`,
		`class="page-header"`,
	} {
		if !strings.Contains(ts.Page, id) {
			t.Errorf("page template missing %s", id)
		}
	}
	if !strings.Contains(ts.Advice, "{{.DueDate}}") {
		t.Error("advice template should use the due date")
	}

	if _, err := NewEmbeddedLoader().LoadTemplateSet("nope"); !errors.Is(err, ErrTemplateSetNotFound) {
		t.Errorf("LoadTemplateSet(nope) error = %v, want ErrTemplateSetNotFound", err)
	}
}

func TestEmbeddedLoader_StyleNames(t *testing.T) {
	t.Parallel()

	names := NewEmbeddedLoader().StyleNames()
	if len(names) == 0 || names[0] != DefaultStyleName {
		t.Errorf("StyleNames() = %v", names)
	}
}

func TestPackageLoaders(t *testing.T) {
	t.Parallel()

	if _, err := LoadStyle(DefaultStyleName); err != nil {
		t.Errorf("LoadStyle() error = %v", err)
	}
	if _, err := LoadTemplateSet(DefaultTemplateSetName); err != nil {
		t.Errorf("LoadTemplateSet() error = %v", err)
	}
}
