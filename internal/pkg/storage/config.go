package storage

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/quietpage/quietpage/internal/pkg/env"
)

// Config holds the resolved storage configuration. It is read from the
// environment once at startup; backends do not change at runtime.
type Config struct {
	// Backend is the default backend new images are written to.
	Backend string `validate:"required,oneof=local local_secure s3"`
	// LocalPath is the root of the publicly served local backend.
	LocalPath string `validate:"required"`
	// SecurePath is the root of the secure local backend, never served
	// directly.
	SecurePath string `validate:"required"`
	// SecureUploads obfuscates new source paths with a random token prefix.
	SecureUploads bool

	// PublicURL overrides all URL resolution when set (e.g. a CDN in front
	// of the storage).
	PublicURL string
	// AppURL is the application's own base URL, the final URL fallback.
	AppURL string `validate:"required"`

	S3Bucket          string `validate:"required_if=Backend s3"`
	S3Region          string
	S3AccessKeyID     string `validate:"required_if=Backend s3"`
	S3SecretAccessKey string `validate:"required_if=Backend s3"`
	// S3Endpoint is optional for S3-compatible services
	S3Endpoint string
}

// LoadConfig loads the storage configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Backend:           env.GetEnv("STORAGE_BACKEND", BackendLocal),
		LocalPath:         env.GetEnv("STORAGE_LOCAL_PATH", "./"),
		SecurePath:        env.GetEnv("STORAGE_SECURE_PATH", "./storage"),
		SecureUploads:     env.GetEnvBool("STORAGE_SECURE_UPLOADS", false),
		PublicURL:         env.GetEnv("STORAGE_PUBLIC_URL", ""),
		AppURL:            env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"),
		S3Bucket:          env.GetEnv("S3_BUCKET_NAME", ""),
		S3Region:          env.GetEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Endpoint:        env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	return cfg, nil
}
