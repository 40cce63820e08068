package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads assets from a directory on the filesystem.
// Implements AssetLoader interface.
type FilesystemLoader struct {
	basePath string
}

// NewFilesystemLoader creates a FilesystemLoader for the given base path.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	// Clean and resolve to an absolute path
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Resolve symlinks in the base path so containment checks compare
	// resolved paths on both sides
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	// Must be a readable directory
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}
	// Verify read access by listing it
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{basePath: absPath}, nil
}

// LoadStyle loads {basePath}/styles/{name}.css.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	filePath := filepath.Join(f.basePath, "styles", name+".css")

	// Path containment check: the resolved path must stay within basePath
	if err := f.verifyPathContainment(filePath); err != nil {
		return "", err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}

	return string(content), nil
}

// LoadTemplateSet loads {basePath}/templates/{name}/page.html and advice.html.
// A set with neither file does not exist; a set with only one is incomplete.
func (f *FilesystemLoader) LoadTemplateSet(name string) (*TemplateSet, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	dirPath := filepath.Join(f.basePath, "templates", name)

	// Path containment check for the set directory
	if err := f.verifyPathContainment(dirPath + string(filepath.Separator)); err != nil {
		return nil, err
	}

	page, pageErr := os.ReadFile(filepath.Join(dirPath, PageTemplate))       // #nosec G304 -- path validated above
	advice, adviceErr := os.ReadFile(filepath.Join(dirPath, AdviceTemplate)) // #nosec G304 -- path validated above

	// Both files missing: the template set does not exist
	if os.IsNotExist(pageErr) && os.IsNotExist(adviceErr) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateSetNotFound, name)
	}
	// Real read errors, not just missing files
	if pageErr != nil && !os.IsNotExist(pageErr) {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrAssetRead, PageTemplate, pageErr)
	}
	if adviceErr != nil && !os.IsNotExist(adviceErr) {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrAssetRead, AdviceTemplate, adviceErr)
	}
	// Only one file missing: the set is incomplete
	if os.IsNotExist(pageErr) {
		return nil, fmt.Errorf("%w: %q missing %s", ErrIncompleteTemplateSet, name, PageTemplate)
	}
	if os.IsNotExist(adviceErr) {
		return nil, fmt.Errorf("%w: %q missing %s", ErrIncompleteTemplateSet, name, AdviceTemplate)
	}

	return &TemplateSet{
		Name:   name,
		Page:   string(page),
		Advice: string(advice),
	}, nil
}

// verifyPathContainment ensures the resolved file path is within basePath.
// It stops path traversal even if name validation is bypassed, and resolves
// symlinks so a link pointing outside basePath cannot escape it.
func (f *FilesystemLoader) verifyPathContainment(filePath string) error {
	// Resolve to an absolute, clean path
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// Use the real path when symlink resolution succeeds. If it fails (the
	// file does not exist yet), keep absFilePath: the file will fail to open
	// anyway, and the prefix check below still runs.
	if realPath, err := filepath.EvalSymlinks(absFilePath); err == nil {
		absFilePath = realPath
	}

	// The trailing separator stops prefix attacks (/base/path vs
	// /base/pathevil)
	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}

	return nil
}

// Compile-time interface check.
var _ AssetLoader = (*FilesystemLoader)(nil)
