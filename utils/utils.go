// Package utils provides helpers shared by the readaloud commands.
package utils

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands tilde and all environment variables from the given
// path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

// IsTextFile returns whether the filename has a plain text extension. Files
// without an extension count as text.
func IsTextFile(filename string) bool {
	switch filepath.Ext(filename) {
	case "", ".txt", ".text", ".md", ".markdown":
		return true
	}
	return false
}
