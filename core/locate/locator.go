package locate

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// ConventionalNames are checked in order before falling back to any script in
// the directory.
var ConventionalNames = []string{"base.sh", "index.sh", "script.sh"}

// ErrNoScript is returned when a directory holds no script to run.
var ErrNoScript = errors.New("no scripts found")

// Locator picks "the" script to run from a directory.
type Locator struct {
	Fs afero.Fs
}

// NewLocator creates a Locator backed by fsys.
func NewLocator(fsys afero.Fs) *Locator {
	return &Locator{Fs: fsys}
}

// Find returns the first conventional script found in dir, then the first
// script ListScripts returns. The search does not descend into
// subdirectories.
func (l *Locator) Find(dir string) (string, bool) {
	for _, name := range ConventionalNames {
		candidate := filepath.Join(dir, name)
		if isRegularFile(l.Fs, candidate) {
			return candidate, true
		}
	}

	if scripts := ListScripts(l.Fs, dir); len(scripts) > 0 {
		return scripts[0], true
	}

	return "", false
}

// Resolve maps path to the script to run. A file is returned as is, a
// directory goes through Find.
func (l *Locator) Resolve(path string) (string, error) {
	info, err := l.Fs.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	found, ok := l.Find(path)
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNoScript)
	}
	return found, nil
}
