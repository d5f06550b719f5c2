// Package config loads daemon configuration from defaults, an optional
// config file, environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"instancecat/internal/domain"
	"instancecat/internal/infra/datasource"
	"instancecat/internal/infra/store"
)

const envPrefix = "INSTANCECAT"

// ErrInvalidConfig is matched by every validation failure from Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables understood without the prefix.
const (
	EnvFileSource = "INSTANCE_TYPES_FILE_SOURCE"
	EnvStoresPath = "STORES_PATH"
)

type Config struct {
	Source        SourceConfig
	Store         StoreConfig
	Refresh       RefreshConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
}

type SourceConfig struct {
	Kind    string
	Path    string
	URL     string
	Timeout time.Duration
	Watch   bool
	S3      S3Config
}

type S3Config struct {
	Bucket       string
	Key          string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type StoreConfig struct {
	// Dir is the stores directory; the database file lives inside it.
	Dir string
}

type RefreshConfig struct {
	SuccessInterval time.Duration
	RetryInterval   time.Duration
}

type ObservabilityConfig struct {
	ListenAddress string
	Metrics       bool
	Healthz       bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// File returns the catalog database path.
func (s StoreConfig) File() string {
	return store.PathIn(s.Dir)
}

// DataSource maps the source section to datasource options.
func (s SourceConfig) DataSource() datasource.Config {
	return datasource.Config{
		Kind:    s.Kind,
		Path:    s.Path,
		URL:     s.URL,
		Timeout: s.Timeout,
		Bucket:  s.S3.Bucket,
		Key:     s.S3.Key,
		S3: datasource.S3Options{
			Region:       s.S3.Region,
			Endpoint:     s.S3.Endpoint,
			AccessKey:    s.S3.AccessKey,
			SecretKey:    s.S3.SecretKey,
			UsePathStyle: s.S3.UsePathStyle,
		},
	}
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is an optional YAML, TOML or JSON config file.
	Path string
	// Flags are bound by FlagKeys name when present.
	Flags  *pflag.FlagSet
	Logger *zap.Logger
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"source-kind":   "source.kind",
	"source-path":   "source.path",
	"source-url":    "source.url",
	"watch":         "source.watch",
	"stores-path":   "store.path",
	"listen":        "observability.listenAddress",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"success-every": "refresh.successIntervalSeconds",
	"retry-every":   "refresh.retryIntervalSeconds",
}

type rawConfig struct {
	Source        rawSourceConfig        `mapstructure:"source"`
	Store         rawStoreConfig         `mapstructure:"store"`
	Refresh       rawRefreshConfig       `mapstructure:"refresh"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Logging       rawLoggingConfig       `mapstructure:"logging"`
}

type rawSourceConfig struct {
	Kind           string      `mapstructure:"kind"`
	Path           string      `mapstructure:"path"`
	URL            string      `mapstructure:"url"`
	TimeoutSeconds int         `mapstructure:"timeoutSeconds"`
	Watch          bool        `mapstructure:"watch"`
	S3             rawS3Config `mapstructure:"s3"`
}

type rawS3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Key          string `mapstructure:"key"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"accessKey"`
	SecretKey    string `mapstructure:"secretKey"`
	UsePathStyle bool   `mapstructure:"usePathStyle"`
}

type rawStoreConfig struct {
	Path string `mapstructure:"path"`
}

type rawRefreshConfig struct {
	SuccessIntervalSeconds int `mapstructure:"successIntervalSeconds"`
	RetryIntervalSeconds   int `mapstructure:"retryIntervalSeconds"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

type rawLoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Explicit bindings take the first set variable in order.
	_ = v.BindEnv("source.path", envPrefix+"_SOURCE_PATH", EnvFileSource)
	_ = v.BindEnv("store.path", envPrefix+"_STORE_PATH", EnvStoresPath)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", domain.DefaultSourceKind)
	v.SetDefault("source.path", defaultSourcePath())
	v.SetDefault("source.url", "")
	v.SetDefault("source.timeoutSeconds", domain.DefaultSourceTimeoutSeconds)
	v.SetDefault("source.watch", false)
	v.SetDefault("source.s3.bucket", "")
	v.SetDefault("source.s3.key", "")
	v.SetDefault("source.s3.region", "")
	v.SetDefault("source.s3.endpoint", "")
	v.SetDefault("source.s3.accessKey", "")
	v.SetDefault("source.s3.secretKey", "")
	v.SetDefault("source.s3.usePathStyle", false)
	v.SetDefault("store.path", filepath.Join(os.TempDir(), domain.DefaultStoreDirName))
	v.SetDefault("refresh.successIntervalSeconds", domain.DefaultSuccessIntervalSeconds)
	v.SetDefault("refresh.retryIntervalSeconds", domain.DefaultRetryIntervalSeconds)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metrics", true)
	v.SetDefault("observability.healthz", true)
	v.SetDefault("logging.level", domain.DefaultLogLevel)
	v.SetDefault("logging.format", domain.DefaultLogFormat)
}

func defaultSourcePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return domain.DefaultSourceFile
	}
	return filepath.Join(cwd, domain.DefaultSourceFile)
}

// Load resolves the configuration. Validation problems are reported together.
func Load(opts LoadOptions) (Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	v := newViper()
	if err := readConfigFile(v, opts.Path, logger); err != nil {
		return Config{}, err
	}
	if opts.Flags != nil {
		for name, key := range FlagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := normalize(raw)
	if errs := validate(cfg); len(errs) > 0 {
		return Config{}, domain.E(domain.CodeInvalidArgument, "config.load", strings.Join(errs, "; "), ErrInvalidConfig)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string, logger *zap.Logger) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "yaml", "yml", "":
		ext = "yaml"
		expanded, missing, err := expandConfigEnv(data)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
		}
		data = expanded
	case "toml", "json":
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}

	v.SetConfigType(ext)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func normalize(raw rawConfig) Config {
	return Config{
		Source: SourceConfig{
			Kind:    strings.ToLower(strings.TrimSpace(raw.Source.Kind)),
			Path:    strings.TrimSpace(raw.Source.Path),
			URL:     strings.TrimSpace(raw.Source.URL),
			Timeout: seconds(raw.Source.TimeoutSeconds),
			Watch:   raw.Source.Watch,
			S3: S3Config{
				Bucket:       strings.TrimSpace(raw.Source.S3.Bucket),
				Key:          strings.TrimSpace(raw.Source.S3.Key),
				Region:       strings.TrimSpace(raw.Source.S3.Region),
				Endpoint:     strings.TrimSpace(raw.Source.S3.Endpoint),
				AccessKey:    raw.Source.S3.AccessKey,
				SecretKey:    raw.Source.S3.SecretKey,
				UsePathStyle: raw.Source.S3.UsePathStyle,
			},
		},
		Store: StoreConfig{Dir: strings.TrimSpace(raw.Store.Path)},
		Refresh: RefreshConfig{
			SuccessInterval: seconds(raw.Refresh.SuccessIntervalSeconds),
			RetryInterval:   seconds(raw.Refresh.RetryIntervalSeconds),
		},
		Observability: ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			Metrics:       raw.Observability.Metrics,
			Healthz:       raw.Observability.Healthz,
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(strings.TrimSpace(raw.Logging.Level)),
			Format: strings.ToLower(strings.TrimSpace(raw.Logging.Format)),
		},
	}
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}
