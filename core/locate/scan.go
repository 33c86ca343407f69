package locate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Scan walks root and returns every script below it in lexical walk order.
// Subtrees that can't be read are skipped.
func Scan(fsys afero.Fs, root string) []string {
	var out []string
	afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		switch {
		case err != nil && info != nil && info.IsDir():
			return filepath.SkipDir
		case err != nil:
			return nil
		case info.IsDir():
			return nil
		}

		if IsScriptName(info.Name()) && isRegularFile(fsys, path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// WriteListing writes one "[N] path" line per script, numbered from 1.
func WriteListing(w io.Writer, paths []string) error {
	for i, path := range paths {
		if _, err := fmt.Fprintf(w, "[%d] %s\n", i+1, path); err != nil {
			return err
		}
	}
	return nil
}

// SaveListing writes the listing for paths to name on fsys.
func SaveListing(fsys afero.Fs, name string, paths []string) error {
	fd, err := fsys.Create(name)
	if err != nil {
		return err
	}

	if err := WriteListing(fd, paths); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}
