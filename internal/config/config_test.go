package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: "test.db"
approval:
  allow_overdraft: true
  check_funds_at_submit: false
cart:
  idle_expiry: 5m
api:
  admin_token: "test-token"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.True(t, cfg.Approval.AllowOverdraft)
	assert.False(t, cfg.Approval.CheckFundsAtSubmit)
	assert.Equal(t, 5*time.Minute, cfg.Cart.IdleExpiry)
	assert.Equal(t, "test-token", cfg.API.AdminToken)

	// Defaults fill what the file omits
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 20.0, cfg.API.RateLimitRPS)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_MissingAdminToken(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_token")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "data/budgetbot.db"},
			Cart:     CartConfig{IdleExpiry: 10 * time.Minute},
			API:      APIConfig{AdminToken: "secret", RateLimitRPS: 20},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port too low", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing admin token", mutate: func(c *Config) { c.API.AdminToken = "" }, wantErr: true},
		{name: "non-positive idle expiry", mutate: func(c *Config) { c.Cart.IdleExpiry = 0 }, wantErr: true},
		{name: "non-positive rate limit", mutate: func(c *Config) { c.API.RateLimitRPS = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
