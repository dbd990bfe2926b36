package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-testing-2026"

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("PRESENZE_AUTH_JWT_SECRET", testSecret)
	t.Setenv("PRESENZE_SERVER_PORT", "8080")

	// 未找到 config.yaml 时仅使用默认值与环境变量
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 8, cfg.Attendance.MarkConcurrency)
	assert.Equal(t, "UTC", cfg.Attendance.Timezone)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("PRESENZE_AUTH_JWT_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 4100
auth:
  jwt_secret: "` + testSecret + `"
  access_token_ttl: 30m
attendance:
  timezone: Asia/Kolkata
  mark_concurrency: 3
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4100, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.Auth.AccessTokenTTLLong)
	assert.Equal(t, 3, cfg.Attendance.MarkConcurrency)
	assert.Equal(t, "Asia/Kolkata", cfg.Attendance.Location().String())
	assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 4000},
			Auth:       AuthConfig{JWTSecret: testSecret},
			Attendance: AttendanceConfig{Timezone: "UTC", MarkConcurrency: 4},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero concurrency", func(c *Config) { c.Attendance.MarkConcurrency = 0 }},
		{"bad timezone", func(c *Config) { c.Attendance.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAttendanceConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, (&AttendanceConfig{}).Location())
	assert.Equal(t, time.UTC, (&AttendanceConfig{Timezone: "Nowhere/Invalid"}).Location())
}
