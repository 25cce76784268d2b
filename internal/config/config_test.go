package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
db:
  path: /tmp/x.db
session:
  ttl: 2h
uploads:
  backend: s3
  s3:
    bucket: pics
    endpoint: http://localhost:9000
`), 0644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL.Std())
	assert.Equal(t, BackendS3, cfg.Uploads.Backend)
	assert.Equal(t, "pics", cfg.Uploads.S3.Bucket)
	// untouched keys keep their defaults
	assert.Equal(t, "session_id", cfg.Session.CookieName)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0644))

	t.Setenv("SOCIAL_ADDR", ":7070")
	t.Setenv("SOCIAL_SESSION_TTL", "30m")
	t.Setenv("SOCIAL_BCRYPT_COST", "4")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL.Std())
	assert.Equal(t, 4, cfg.Security.BcryptCost)
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOCIAL_COOKIE_NAME=sid\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SOCIAL_COOKIE_NAME") })

	cfg, err := Load(filepath.Join(dir, "absent.yaml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "sid", cfg.Session.CookieName)
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("SOCIAL_SESSION_TTL", "forever")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Uploads.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Uploads.Backend = BackendS3 }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"empty cookie", func(c *Config) { c.Session.CookieName = "" }},
		{"bcrypt too low", func(c *Config) { c.Security.BcryptCost = 1 }},
		{"no upload limit", func(c *Config) { c.Uploads.MaxBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
