package config

import (
	"time"

	"github.com/tsrlab/tabled/internal/store"
)

// Config holds tabled configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`

	// MaxUploadBytes caps the size of an uploaded image.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// StorageConfig selects and configures the artifact backend. The state
// store is always filesystem-backed; artifacts can live on the local
// filesystem (default) or in an S3-compatible bucket.
type StorageConfig struct {
	// Backend is "fs" or "minio".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Minio credentials support ${ENV_VAR} syntax.
	Minio store.MinioConfig `mapstructure:"minio" yaml:"minio"`
}

// PipelineConfig holds pipeline execution settings.
type PipelineConfig struct {
	// StageTimeout bounds each stage executor invocation.
	// Zero disables the timeout.
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout"`

	// MockStageDelay is how long each simulated stage sleeps.
	MockStageDelay time.Duration `mapstructure:"mock_stage_delay" yaml:"mock_stage_delay"`
}
