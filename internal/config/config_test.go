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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 500

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

auth:
  secret: "jwt-secret"
  token_param: "t"

game:
  shutdown_timeout: 60
  shutdown_check_interval: 2
  room_cleanup_delay: 1

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  message_limit:
    max_per_second: 5
    burst: 10
    max_warnings: 3

log:
  level: debug
  format: json
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, 500, cfg.Server.MaxConnections)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "jwt-secret", cfg.Auth.Secret)
	assert.Equal(t, "t", cfg.Auth.TokenParam)
	assert.Equal(t, 60*time.Second, cfg.Game.ShutdownTimeoutDuration())
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 5, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, defaultTokenParam, cfg.Auth.TokenParam)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMessageBurst, cfg.Security.MessageLimit.Burst)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Error(t, cfg.Validate(), "empty secret must be rejected")

	cfg.Auth.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Server.MaxConnections = -1
	assert.Error(t, cfg.Validate())
}

func TestGameConfig_DurationMethods(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{
		ShutdownTimeout:       60,
		ShutdownCheckInterval: 5,
		RoomCleanupDelay:      20,
	}

	assert.Equal(t, 60*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, 5*time.Second, cfg.ShutdownCheckIntervalDuration())
	assert.Equal(t, 20*time.Second, cfg.RoomCleanupDelayDuration())
}

func TestLoadFromEnv(t *testing.T) {
	// Not parallel because it modifies environment variables
	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("WS_SECRET", "from-env")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.com,http://b.com")

	cfg, err := Load(writeConfig(t, "server:\n  host: file-host\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
}

func TestLoadFromEnv_InvalidValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load(writeConfig(t, `{}`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
