package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"instancecat/internal/app/catalog"
	"instancecat/internal/app/config"
	"instancecat/internal/domain"
	"instancecat/internal/infra/datasource"
	"instancecat/internal/infra/pricing"
	"instancecat/internal/infra/store"
)

// DocumentReport describes a pricing document checked without writing it.
type DocumentReport struct {
	Source    string            `json:"source" yaml:"source"`
	Version   string            `json:"version" yaml:"version"`
	Records   int               `json:"records" yaml:"records"`
	Stats     domain.ParseStats `json:"stats" yaml:"stats"`
	CheckedAt time.Time         `json:"checkedAt" yaml:"checkedAt"`
}

// ValidateDocument reads and parses the configured source. The store is
// never opened.
func ValidateDocument(ctx context.Context, cfg config.Config, logger *zap.Logger) (DocumentReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	source, err := datasource.New(ctx, cfg.Source.DataSource())
	if err != nil {
		return DocumentReport{}, err
	}
	body, err := source.Open(ctx)
	if err != nil {
		return DocumentReport{}, domain.Wrap(domain.CodeUnavailable, "validate.read_source", err)
	}
	defer func() { _ = body.Close() }()

	snapshot, stats, err := pricing.NewParser(logger).ParseWithStats(body)
	if err != nil {
		return DocumentReport{}, domain.Wrap(domain.CodeInvalidArgument, "validate.parse", err)
	}

	report := DocumentReport{
		Source:    source.Name(),
		Version:   snapshot.Version,
		Records:   snapshot.Len(),
		Stats:     stats,
		CheckedAt: time.Now().UTC(),
	}
	logger.Info("pricing document validated",
		zap.String("source", report.Source),
		zap.String("version", report.Version),
		zap.Int("records", report.Records),
		zap.Int("discarded", stats.Discarded()),
	)
	return report, nil
}

// OpenCatalog opens the store read-only for inspection commands.
func OpenCatalog(cfg config.Config, logger *zap.Logger) (*catalog.Service, func(), error) {
	st, err := store.OpenReadOnly(cfg.Store.File())
	if err != nil {
		return nil, nil, domain.Wrap(domain.CodeUnavailable, "catalog.open", err)
	}
	cleanup := func() { _ = st.Close() }
	return catalog.NewService(st, logger), cleanup, nil
}
