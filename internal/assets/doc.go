// Package assets provides the stylesheet and HTML templates a document is
// rendered from. Assets can be loaded from embedded files or custom
// filesystem paths.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in set)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver tries the custom FilesystemLoader first and falls back to the
// EmbeddedLoader when an asset is not found there, so a branch can override
// its page template while keeping the default stylesheet.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # page stylesheet
//	└── templates/
//	    └── {name}/
//	        ├── page.html        # base page (html/template)
//	        └── advice.html      # default payment advice sentence
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
