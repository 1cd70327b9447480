package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "Shelf", cfg.AppName)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "3000", cfg.APIServer.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, time.Hour, cfg.Auth.ResetCodeTTL)
	assert.Equal(t, 20, cfg.Friends.SearchLimit)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
DATABASE:
  TYPE: sqlite
  PATH: ./test.db
FRIENDS:
  SEARCH_LIMIT: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("API_SERVER_PORT", "9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./test.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Friends.SearchLimit)
	assert.Equal(t, "9999", cfg.APIServer.Port)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AppEnv:   "development",
			Database: DatabaseConfig{Type: "postgres"},
			Auth:     AuthConfig{JWTSecretKey: "devsecret"},
			Friends:  FriendsConfig{SearchLimit: 20},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid development config", mutate: func(c *Config) {}},
		{name: "unknown database type", mutate: func(c *Config) { c.Database.Type = "mongo" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Type = "sqlite" }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecretKey = "" }, wantErr: true},
		{name: "short jwt secret in production", mutate: func(c *Config) { c.AppEnv = "production" }, wantErr: true},
		{name: "kafka enabled without topic", mutate: func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = []string{"localhost:9092"}
		}, wantErr: true},
		{name: "non-positive search limit", mutate: func(c *Config) { c.Friends.SearchLimit = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
