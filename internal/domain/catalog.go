package domain

import (
	"context"
	"io"
)

// DataSource produces a fresh pricing document stream on every Open.
// Callers close the returned reader.
type DataSource interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// CatalogReader is the read side of the catalog store, safe for concurrent use.
type CatalogReader interface {
	Get(ctx context.Context, name string) (InstanceType, error)
	List(ctx context.Context) ([]InstanceType, error)
}

// CatalogWriter is the single-writer side of the catalog store.
type CatalogWriter interface {
	ReplaceAll(ctx context.Context, records []InstanceType) (ReplaceStats, error)
}

// CatalogStore combines both sides. Only wiring code should hold one.
type CatalogStore interface {
	CatalogReader
	CatalogWriter
	Close() error
}

// ReplaceStats summarizes a diff-based replace.
type ReplaceStats struct {
	Upserted  int
	Unchanged int
	Deleted   int
	Total     int
}
