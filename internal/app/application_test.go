package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"instancecat/internal/app/config"
	"instancecat/internal/app/refresh"
	"instancecat/internal/domain"
)

const pricingDoc = `{"version":"v1","products":{
	"a":{"attributes":{"instanceType":"m5.large","instanceFamily":"General purpose","vcpu":"2","memory":"8 GiB","operatingSystem":"Linux"}},
	"b":{"attributes":{"instanceType":"m5.large","instanceFamily":"General purpose","vcpu":"2","memory":"8 GiB","operatingSystem":"Windows"}},
	"c":{"attributes":{"instanceType":"c5.xlarge","vcpu":"4","memory":"8 GiB","operatingSystem":"Linux"}}
}}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing-list.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(t *testing.T, sourcePath string) config.Config {
	t.Helper()
	return config.Config{
		Source: config.SourceConfig{
			Kind:    domain.SourceKindFile,
			Path:    sourcePath,
			Timeout: time.Minute,
		},
		Store: config.StoreConfig{Dir: t.TempDir()},
		Refresh: config.RefreshConfig{
			SuccessInterval: time.Hour,
			RetryInterval:   time.Minute,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestInitializeApplication_RefreshOnce(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, pricingDoc))
	application, cleanup, err := InitializeApplication(context.Background(), cfg, LoggingConfig{Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	result, err := application.RefreshOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)
	assert.Equal(t, 2, result.Count())
	assert.Equal(t, "v1", result.Version)

	got, err := application.Catalog().Get(context.Background(), "m5.large")
	require.NoError(t, err)
	assert.Equal(t, int64(8<<30), got.Memory)

	result, err = application.RefreshOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, result.Outcome)
	assert.Zero(t, result.Count())
}

func TestInitializeApplication_InvalidSource(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, pricingDoc))
	cfg.Source.Kind = "ftp"

	_, _, err := InitializeApplication(context.Background(), cfg, LoggingConfig{Logger: zap.NewNop()})
	require.ErrorIs(t, err, domain.ErrUnknownSourceKind)
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, pricingDoc))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, cleanup, err := InitializeApplication(ctx, cfg, LoggingConfig{Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	done := make(chan error, 1)
	go func() { done <- application.Run() }()

	require.Eventually(t, func() bool {
		return application.SchedulerStatus().Cycles >= 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.SchedulerSuccessWait, application.SchedulerStatus().State)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpenCatalog_ReadsAfterDaemonCloses(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, pricingDoc))
	application, cleanup, err := InitializeApplication(context.Background(), cfg, LoggingConfig{Logger: zap.NewNop()})
	require.NoError(t, err)
	_, err = application.RefreshOnce(context.Background())
	require.NoError(t, err)
	cleanup()

	service, closeCatalog, err := OpenCatalog(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(closeCatalog)

	records, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c5.xlarge", records[0].Name)
	assert.Equal(t, domain.DefaultInstanceFamily, records[0].Family)
}

func TestOpenCatalog_MissingDatabase(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, pricingDoc))

	_, _, err := OpenCatalog(cfg, zap.NewNop())
	require.Error(t, err)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUnavailable, code)
}

func TestValidateDocument(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, pricingDoc))

	report, err := ValidateDocument(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "file", report.Source)
	assert.Equal(t, "v1", report.Version)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 1, report.Stats.NotLinux)
	assert.NoFileExists(t, cfg.Store.File())
}

func TestValidateDocument_Malformed(t *testing.T) {
	cfg := testConfig(t, writeDoc(t, `{"products":{}}`))

	_, err := ValidateDocument(context.Background(), cfg, nil)
	require.ErrorIs(t, err, domain.ErrMissingVersion)
	assert.Equal(t, "validate.parse", domain.OpFrom(err))
}

func TestNewSourceWatcher(t *testing.T) {
	cfg := testConfig(t, "/tmp/pricing-list.json")
	scheduler := refresh.NewScheduler(nil, nil, refresh.SchedulerOptions{})
	assert.Nil(t, NewSourceWatcher(cfg, scheduler, zap.NewNop()))

	cfg.Source.Watch = true
	assert.NotNil(t, NewSourceWatcher(cfg, scheduler, zap.NewNop()))

	cfg.Source.Kind = domain.SourceKindURL
	assert.Nil(t, NewSourceWatcher(cfg, scheduler, zap.NewNop()))
}

func TestBuildLogger(t *testing.T) {
	logger, err := BuildLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = BuildLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = BuildLogger(config.LoggingConfig{Level: "loud"})
	require.Error(t, err)
}
