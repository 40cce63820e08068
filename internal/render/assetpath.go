package render

import "strings"

// legacyAssets maps asset file names that were renamed.
var legacyAssets = map[string]string{
	"Assets/Image 1 .png": "Assets/1.png",
}

// MigrateAssetPath normalizes background and logo paths saved by older
// versions: a doubled "Assets/Assets/" prefix collapses and renamed files
// map to their new names. Other values pass through.
func MigrateAssetPath(p string) string {
	if p == "" {
		return p
	}
	if rest, ok := strings.CutPrefix(p, "Assets/Assets/"); ok {
		p = "Assets/" + rest
	}
	if renamed, ok := legacyAssets[p]; ok {
		return renamed
	}
	return p
}
