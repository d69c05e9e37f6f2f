package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ListingExt marks files holding a textual IR listing rather than source.
const ListingExt = ".ir"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadSource returns the contents of path, or of stdin when path is "-",
// together with the name to use in messages.
func ReadSource(path string, stdin io.Reader) (text string, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}

	fullPath, _, err := GetPathInfo(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", "", err
	}
	return string(data), fullPath, nil
}

// IsListing reports whether path names an IR listing file.
func IsListing(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ListingExt)
}
