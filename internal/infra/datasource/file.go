// Package datasource provides the pricing document sources: local files,
// HTTP endpoints and S3 compatible object storage.
package datasource

import (
	"context"
	"fmt"
	"io"
	"os"

	"instancecat/internal/domain"
)

// FileSource reads the pricing list from a local path.
type FileSource struct {
	path string
}

var _ domain.DataSource = (*FileSource)(nil)

// NewFileSource creates a source backed by path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return domain.SourceKindFile
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open pricing file %s: %w", s.path, err)
	}
	return f, nil
}
