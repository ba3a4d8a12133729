// Package fs stores extraction results as JSON files.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/revex"
)

// Ensure Writer implements revex.ResultWriter at compile time.
var _ revex.ResultWriter = (*Writer)(nil)

// Writer writes results as JSON files below a base directory, one file per
// product page URL. Existing files are replaced atomically.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteResult writes result to its path and returns that path.
func (w *Writer) WriteResult(ctx context.Context, result *revex.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relPath, err := URLToPath(result.URL)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(w.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}

	// Write to a sibling temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".result-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}

// URLToPath converts a product page URL to a relative file path.
// Example: https://shop.example.com/p/123?color=red → shop.example.com/p/123_color-red.json
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", revex.Errorf(revex.EINVALID, "URL has no host: %q", rawURL)
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		path = "index"
	}
	if u.RawQuery != "" {
		path += "_" + sanitize(u.RawQuery)
	}
	return filepath.Join(sanitize(u.Host), filepath.FromSlash(path)+".json"), nil
}

// sanitize replaces characters that are unsafe in file names.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '=':
			return '-'
		case '&', ':', '?', '*', '"', '<', '>', '|', '\\':
			return '_'
		}
		return r
	}, s)
}
