package config

import (
	"net/url"

	"go.uber.org/zap/zapcore"

	"instancecat/internal/domain"
)

func validate(cfg Config) []string {
	var errs []string

	switch cfg.Source.Kind {
	case domain.SourceKindFile:
		if cfg.Source.Path == "" {
			errs = append(errs, "source.path is required for file sources")
		}
	case domain.SourceKindURL:
		parsed, err := url.Parse(cfg.Source.URL)
		if cfg.Source.URL == "" || err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, "source.url must be an absolute http(s) URL")
		}
	case domain.SourceKindS3:
		if cfg.Source.S3.Bucket == "" {
			errs = append(errs, "source.s3.bucket is required for s3 sources")
		}
		if cfg.Source.S3.Key == "" {
			errs = append(errs, "source.s3.key is required for s3 sources")
		}
	default:
		errs = append(errs, "source.kind must be one of file, url, s3")
	}
	if cfg.Source.Timeout <= 0 {
		errs = append(errs, "source.timeoutSeconds must be > 0")
	}
	if cfg.Source.Watch && cfg.Source.Kind != domain.SourceKindFile {
		errs = append(errs, "source.watch is only supported for file sources")
	}

	if cfg.Store.Dir == "" {
		errs = append(errs, "store.path is required")
	}

	if cfg.Refresh.SuccessInterval <= 0 {
		errs = append(errs, "refresh.successIntervalSeconds must be > 0")
	}
	if cfg.Refresh.RetryInterval <= 0 {
		errs = append(errs, "refresh.retryIntervalSeconds must be > 0")
	}

	if (cfg.Observability.Metrics || cfg.Observability.Healthz) && cfg.Observability.ListenAddress == "" {
		errs = append(errs, "observability.listenAddress is required when metrics or healthz is enabled")
	}

	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, "logging.level is invalid: "+cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, "logging.format must be json or console")
	}
	return errs
}
