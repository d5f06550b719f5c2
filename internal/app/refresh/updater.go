// Package refresh keeps the catalog store in sync with the pricing source.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"instancecat/internal/domain"
	"instancecat/internal/infra/hashutil"
	"instancecat/internal/infra/pricing"
	"instancecat/internal/infra/telemetry"
)

const (
	opReadSource  = "refresh." + telemetry.StageReadSource
	opParse       = "refresh." + telemetry.StageParse
	opUpdateStore = "refresh." + telemetry.StageUpdateStore
)

// Updater runs one refresh cycle at a time and owns the last applied
// catalog version. The version lives in memory only, so the first cycle
// after a restart always writes the store.
type Updater struct {
	parser  *pricing.Parser
	writer  domain.CatalogWriter
	metrics domain.Metrics
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	mu          sync.Mutex
	lastVersion *string
}

// UpdaterOptions configures optional collaborators.
type UpdaterOptions struct {
	Parser  *pricing.Parser
	Metrics domain.Metrics
	Logger  *zap.Logger
}

func NewUpdater(writer domain.CatalogWriter, opts UpdaterOptions) *Updater {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := opts.Parser
	if parser == nil {
		parser = pricing.NewParser(logger)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Updater{
		parser:  parser,
		writer:  writer,
		metrics: metrics,
		logger:  logger.Named("updater"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// LastVersion returns the version applied by the most recent successful cycle.
func (u *Updater) LastVersion() (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.lastVersion == nil {
		return "", false
	}
	return *u.lastVersion, true
}

// Refresh reads, parses and, when the version changed, applies one snapshot.
// A failed store write leaves the last version untouched so the same
// snapshot is applied again by the next cycle.
func (u *Updater) Refresh(ctx context.Context, source domain.DataSource) (domain.RefreshResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	start := u.now()
	result := domain.RefreshResult{
		CycleID: u.newID(),
		Source:  source.Name(),
	}
	logger := u.logger.With(telemetry.CycleIDField(result.CycleID), telemetry.SourceField(result.Source))
	logger.Debug("refresh started", telemetry.EventField(telemetry.EventRefreshStart))

	fail := func(stage string, err *domain.Error) (domain.RefreshResult, error) {
		result.Outcome = domain.OutcomeFailed
		result.Duration = u.now().Sub(start)
		u.metrics.ObserveRefresh(result.Outcome, result.Duration)
		logger.Warn("refresh failed",
			telemetry.EventField(telemetry.EventRefreshFailure),
			telemetry.StageField(stage),
			telemetry.VersionField(result.Version),
			telemetry.DurationField(result.Duration),
			zap.Int(telemetry.FieldRecords, result.Parse.Kept),
			zap.Error(err),
		)
		return result, err
	}

	reader, err := source.Open(ctx)
	if err != nil {
		return fail(telemetry.StageReadSource, domain.Retryable(domain.CodeUnavailable, opReadSource, err))
	}
	snapshot, stats, err := u.parser.ParseWithStats(reader)
	_ = reader.Close()
	result.Parse = stats
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(telemetry.StageReadSource, domain.Retryable(domain.CodeCanceled, opReadSource, ctxErr))
		}
		return fail(telemetry.StageParse, domain.Retryable(domain.CodeInvalidArgument, opParse, err))
	}
	result.Version = snapshot.Version

	if u.lastVersion != nil && *u.lastVersion == snapshot.Version {
		result.Outcome = domain.OutcomeSkipped
		result.Duration = u.now().Sub(start)
		u.metrics.ObserveRefresh(result.Outcome, result.Duration)
		logger.Info("catalog version unchanged",
			telemetry.EventField(telemetry.EventRefreshSkipped),
			telemetry.VersionField(result.Version),
			telemetry.DurationField(result.Duration),
		)
		return result, nil
	}

	replaced, err := u.writer.ReplaceAll(ctx, snapshot.Records)
	if err != nil {
		return fail(telemetry.StageUpdateStore, domain.Retryable(domain.CodeInternal, opUpdateStore, err))
	}

	version := snapshot.Version
	u.lastVersion = &version
	result.Outcome = domain.OutcomeApplied
	result.Applied = snapshot.Len()
	result.Digest = hashutil.CatalogDigest(logger, snapshot.Records)
	result.Store = replaced
	result.Duration = u.now().Sub(start)

	u.metrics.ObserveReplace(replaced)
	u.metrics.ObserveRefresh(result.Outcome, result.Duration)
	logger.Info("catalog applied",
		telemetry.EventField(telemetry.EventRefreshApplied),
		telemetry.VersionField(result.Version),
		zap.Int(telemetry.FieldRecords, result.Applied),
		zap.String("digest", result.Digest),
		zap.Int(telemetry.FieldDeleted, replaced.Deleted),
		zap.Int("unchanged", replaced.Unchanged),
		zap.Int("discarded", stats.Discarded()),
		telemetry.DurationField(result.Duration),
	)
	return result, nil
}
