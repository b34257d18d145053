//go:build dev

package resources

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Stylesheet edits show up on reload.
const cacheControl = "no-cache"

// assets reads static/ from the source tree next to this file.
func assets() fs.FS {
	dir := filepath.Join("internal", "ui", "resources", "static")
	if _, file, _, ok := runtime.Caller(0); ok {
		dir = filepath.Join(filepath.Dir(file), "static")
	}
	return os.DirFS(dir)
}
