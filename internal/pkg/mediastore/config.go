package mediastore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doorstep-market/doorstep/internal/pkg/env"
)

// Config holds the S3 media bucket configuration.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads the media store configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("MEDIA_UPLOADS_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when media uploads are enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when media uploads are enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when media uploads are enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if media uploads are enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates the bucket key for a service media asset.
// Format: services/<serviceID>/<assetID>.<ext>
func (c *Config) ObjectKey(serviceID, assetID uuid.UUID, fileExtension string) string {
	ext := strings.ToLower(strings.TrimPrefix(fileExtension, "."))
	return fmt.Sprintf("services/%s/%s.%s", serviceID, assetID, ext)
}

// GetBucketName returns the bucket name as configured.
func (c *Config) GetBucketName() string {
	return c.BucketName
}
