package datasource

import (
	"context"
	"fmt"
	"time"

	"instancecat/internal/domain"
)

// Config selects and configures one source variant.
type Config struct {
	Kind    string
	Path    string
	URL     string
	Timeout time.Duration
	Bucket  string
	Key     string
	S3      S3Options
}

// New builds the source named by cfg.Kind.
func New(ctx context.Context, cfg Config) (domain.DataSource, error) {
	switch cfg.Kind {
	case "", domain.SourceKindFile:
		if cfg.Path == "" {
			return nil, domain.E(domain.CodeInvalidArgument, "datasource.new", "file source requires a path", nil)
		}
		return NewFileSource(cfg.Path), nil
	case domain.SourceKindURL:
		if cfg.URL == "" {
			return nil, domain.E(domain.CodeInvalidArgument, "datasource.new", "url source requires a url", nil)
		}
		return NewURLSource(cfg.URL, nil, cfg.Timeout), nil
	case domain.SourceKindS3:
		if cfg.Bucket == "" || cfg.Key == "" {
			return nil, domain.E(domain.CodeInvalidArgument, "datasource.new", "s3 source requires bucket and key", nil)
		}
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, domain.Wrap(domain.CodeUnavailable, "datasource.new", err)
		}
		return NewS3Source(client, cfg.Bucket, cfg.Key), nil
	default:
		return nil, domain.Wrap(domain.CodeInvalidArgument, "datasource.new",
			fmt.Errorf("%w: %q", domain.ErrUnknownSourceKind, cfg.Kind))
	}
}
