// Package locate finds shell scripts on a filesystem.
package locate

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ScriptExt is the extension that marks a file as a runnable script.
const ScriptExt = ".sh"

// IsScriptName reports whether name carries the script extension.
func IsScriptName(name string) bool {
	// A bare ".sh" is a dotfile, not a script.
	return strings.HasSuffix(name, ScriptExt) && len(name) > len(ScriptExt)
}

// ListScripts returns the paths of the regular script files directly inside
// dir, sorted by name. Directories that can't be read produce no results.
func ListScripts(fsys afero.Fs, dir string) []string {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		if !IsScriptName(entry.Name()) {
			continue
		}

		fullPath := filepath.Join(dir, entry.Name())
		if !isRegularFile(fsys, fullPath) {
			continue
		}
		out = append(out, fullPath)
	}
	return out
}

// isRegularFile follows symlinks.
func isRegularFile(fsys afero.Fs, name string) bool {
	info, err := fsys.Stat(name)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
