package config

import (
	"time"

	"github.com/tsrlab/tabled/internal/store"
)

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           "8080",
			MaxUploadBytes: 16 << 20, // 16 MiB
		},
		Storage: StorageConfig{
			Backend: "fs",
			Minio: store.MinioConfig{
				Endpoint:  "localhost:9000",
				AccessKey: "${TABLED_MINIO_ACCESS_KEY}",
				SecretKey: "${TABLED_MINIO_SECRET_KEY}",
				Bucket:    "tabled-artifacts",
				UseSSL:    false,
			},
		},
		Pipeline: PipelineConfig{
			StageTimeout:   5 * time.Minute,
			MockStageDelay: 2 * time.Second,
		},
	}
}
