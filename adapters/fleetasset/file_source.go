// Package fleetasset provides the file-backed default fleet reference.
// The path comes from configuration, never from a hard-coded asset location,
// so deployments without a default simply run without enrichment.
package fleetasset

import (
	"context"
	"os"
	"path/filepath"

	"eformboard/internal/errors"
)

// FileSource reads the default fleet reference from a local file
type FileSource struct {
	path  string
	sheet string
}

// NewFileSource creates a file-backed fleet source. Returns nil when path is
// empty, which callers treat as "no default configured".
func NewFileSource(path, sheet string) *FileSource {
	if path == "" {
		return nil
	}
	return &FileSource{path: path, sheet: sheet}
}

// Fetch reads the configured reference file
func (s *FileSource) Fetch(ctx context.Context) ([]byte, string, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, "", "", errors.Wrapf(err, "failed to read default fleet file %s", s.path)
	}
	return data, filepath.Base(s.path), s.sheet, nil
}
