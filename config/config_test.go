package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "civic", cfg.DBName)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.Validation.Enabled)
	assert.Equal(t, 2, cfg.Validation.Workers)
	assert.Equal(t, 30*time.Second, cfg.Validation.Timeout)
	assert.False(t, cfg.Cloudinary.Enabled())
	assert.False(t, cfg.S3.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Prefixed(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "k")
	t.Setenv("CLOUDINARY_API_SECRET", "s")
	t.Setenv("S3_BUCKET", "civic-media")
	t.Setenv("VALIDATION_WORKERS", "4")
	t.Setenv("VALIDATION_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.Cloudinary.Enabled())
	assert.Equal(t, "civic-media", cfg.S3.Bucket)
	assert.Equal(t, 4, cfg.Validation.Workers)
	assert.Equal(t, 5*time.Second, cfg.Validation.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "missing secret", cfg: Config{StoreDriver: "memory"}},
		{name: "mongo without uri", cfg: Config{JWTSecret: "s", StoreDriver: "mongo"}},
		{name: "unknown driver", cfg: Config{JWTSecret: "s", StoreDriver: "redis"}},
		{name: "memory", cfg: Config{JWTSecret: "s", StoreDriver: "memory"}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Validation = ValidationConfig{Workers: 1, QueueSize: 1}
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
