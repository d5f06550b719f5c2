package domain

const (
	DefaultSourceKind                 = "file"
	DefaultSourceFile                 = "pricing-list.json"
	DefaultSourceTimeoutSeconds       = 300
	DefaultStoreDirName               = "stores"
	DefaultStoreFileName              = "instance-types.db"
	DefaultSuccessIntervalSeconds     = 60 * 60 * 24 * 7
	DefaultRetryIntervalSeconds       = 60 * 60
	DefaultObservabilityListenAddress = "0.0.0.0:9090"
	DefaultLogLevel                   = "info"
	DefaultLogFormat                  = "json"
)

const (
	SourceKindFile = "file"
	SourceKindURL  = "url"
	SourceKindS3   = "s3"
)
