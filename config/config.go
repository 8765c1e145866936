// Package config provides configuration management for PDCM using Viper.
package config

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/percona/percona-dbcopy-mongodb/errors"
)

const (
	// AppName is reported to the server as the driver application name.
	AppName = "pdcm"

	// DefaultBatchSize is the number of pending upserts that triggers a flush.
	DefaultBatchSize = 1000
	// MaxBatchSize is the upper bound for the batch size option.
	MaxBatchSize = 100_000

	// DumpFileSuffix is appended to a collection name to form its dump file
	// name. Restore strips it to recover the collection name.
	DumpFileSuffix = ".json"

	// DefaultMongoDBOperationTimeout bounds individual driver operations.
	DefaultMongoDBOperationTimeout = 5 * time.Minute
	// DisconnectTimeout bounds client disconnect and server shutdown.
	DisconnectTimeout = 10 * time.Second
)

// Config holds all PDCM configuration.
type Config struct {
	Source string `mapstructure:"source"`
	Target string `mapstructure:"target"`

	// SourceDB and TargetDB name the databases for a direct clone.
	SourceDB string `mapstructure:"source-db"`
	TargetDB string `mapstructure:"target-db"`

	// DB names the database for dump and restore.
	DB string `mapstructure:"db"`
	// Dir is the dump directory for dump and restore.
	Dir string `mapstructure:"dir"`

	BatchSize int `mapstructure:"batch-size"`

	// NoURICleanup disables the trailing-dot-before-port URI cleanup.
	NoURICleanup bool `mapstructure:"no-uri-cleanup"`

	// MetricsListen is an optional address serving Prometheus /metrics for
	// the duration of an operation.
	MetricsListen string `mapstructure:"metrics-listen"`

	IncludeCollections []string `mapstructure:"include-collections"`
	ExcludeCollections []string `mapstructure:"exclude-collections"`

	Log LogConfig `mapstructure:",squash"`

	MongoDB MongoDBConfig `mapstructure:",squash"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"log-level"`
	JSON    bool   `mapstructure:"log-json"`
	NoColor bool   `mapstructure:"log-no-color"`
}

// MongoDBConfig holds MongoDB client configuration.
type MongoDBConfig struct {
	OperationTimeout time.Duration `mapstructure:"mongodb-operation-timeout"`
}

// ResolvedTargetDB returns the target database name for a direct clone,
// falling back to the source database name.
func (cfg *Config) ResolvedTargetDB() string {
	if cfg.TargetDB != "" {
		return cfg.TargetDB
	}

	return cfg.SourceDB
}

// Load initializes Viper and returns the Config for the invoked command.
func Load(cmd *cobra.Command) (*Config, error) {
	viper.SetEnvPrefix("PDCM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cmd.PersistentFlags() != nil {
		_ = viper.BindPFlags(cmd.PersistentFlags())
	}

	if cmd.Flags() != nil {
		_ = viper.BindPFlags(cmd.Flags())
	}

	bindEnvVars()

	var cfg Config

	err := viper.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	if cfg.MongoDB.OperationTimeout == 0 {
		cfg.MongoDB.OperationTimeout = DefaultMongoDBOperationTimeout
	}

	return &cfg, nil
}

func bindEnvVars() {
	_ = viper.BindEnv("source", "PDCM_SOURCE_URI")
	_ = viper.BindEnv("target", "PDCM_TARGET_URI")

	_ = viper.BindEnv("source-db", "PDCM_SOURCE_DB")
	_ = viper.BindEnv("target-db", "PDCM_TARGET_DB")
	_ = viper.BindEnv("db", "PDCM_DB")
	_ = viper.BindEnv("dir", "PDCM_DIR")

	_ = viper.BindEnv("batch-size", "PDCM_BATCH_SIZE")
	_ = viper.BindEnv("no-uri-cleanup", "PDCM_NO_URI_CLEANUP")
	_ = viper.BindEnv("metrics-listen", "PDCM_METRICS_LISTEN")

	_ = viper.BindEnv("include-collections", "PDCM_INCLUDE_COLLECTIONS")
	_ = viper.BindEnv("exclude-collections", "PDCM_EXCLUDE_COLLECTIONS")

	_ = viper.BindEnv("log-level", "PDCM_LOG_LEVEL")
	_ = viper.BindEnv("log-json", "PDCM_LOG_JSON")
	_ = viper.BindEnv("log-no-color", "PDCM_LOG_NO_COLOR")

	_ = viper.BindEnv("mongodb-operation-timeout", "PDCM_MONGODB_OPERATION_TIMEOUT")
}
