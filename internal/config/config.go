package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost                  = "0.0.0.0"
	defaultPort                  = 3001
	defaultMaxConnections        = 2000
	defaultRedisAddr             = "localhost:6379"
	defaultTokenParam            = "token"
	defaultShutdownTimeout       = 30
	defaultShutdownCheckInterval = 5
	defaultRoomCleanupDelay      = 3
	defaultMessagesPerSecond     = 20
	defaultMessageBurst          = 40
	defaultMaxWarnings           = 5
	defaultLogLevel              = "info"
	defaultLogFormat             = "text"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host" env:"SERVER_HOST"`
	Port           int    `yaml:"port" env:"SERVER_PORT"`
	MaxConnections int    `yaml:"max_connections" env:"SERVER_MAX_CONNECTIONS"`
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// AuthConfig controls connection credentials.
type AuthConfig struct {
	Secret     string `yaml:"secret" env:"WS_SECRET"`
	TokenParam string `yaml:"token_param" env:"AUTH_TOKEN_PARAM"`
}

// GameConfig 游戏配置
type GameConfig struct {
	ShutdownTimeout       int `yaml:"shutdown_timeout" env:"GAME_SHUTDOWN_TIMEOUT"`               // 优雅关闭最长等待（秒）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval" env:"GAME_SHUTDOWN_CHECK_INTERVAL"` // 检查间隔（秒）
	RoomCleanupDelay      int `yaml:"room_cleanup_delay" env:"GAME_ROOM_CLEANUP_DELAY"`           // 关闭前的延迟（秒）
}

// ShutdownTimeoutDuration 返回优雅关闭超时时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// ShutdownCheckIntervalDuration 返回检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// RoomCleanupDelayDuration 返回关闭前延迟
func (c *GameConfig) RoomCleanupDelayDuration() time.Duration {
	return time.Duration(c.RoomCleanupDelay) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins" env:"SECURITY_ALLOWED_ORIGINS"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"SECURITY_MESSAGE_MAX_PER_SECOND"`
	Burst        int `yaml:"burst" env:"SECURITY_MESSAGE_BURST"`
	MaxWarnings  int `yaml:"max_warnings" env:"SECURITY_MESSAGE_MAX_WARNINGS"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

// Load 加载配置文件, fills defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields whose environment variable is set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Validate reports configuration the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth secret is empty (set auth.secret or WS_SECRET)")
	}
	if c.Server.MaxConnections <= 0 {
		return errors.New("server.max_connections must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Auth.TokenParam == "" {
		c.Auth.TokenParam = defaultTokenParam
	}
	if c.Game.ShutdownTimeout == 0 {
		c.Game.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Game.ShutdownCheckInterval == 0 {
		c.Game.ShutdownCheckInterval = defaultShutdownCheckInterval
	}
	if c.Game.RoomCleanupDelay == 0 {
		c.Game.RoomCleanupDelay = defaultRoomCleanupDelay
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMessagesPerSecond
	}
	if c.Security.MessageLimit.Burst == 0 {
		c.Security.MessageLimit.Burst = defaultMessageBurst
	}
	if c.Security.MessageLimit.MaxWarnings == 0 {
		c.Security.MessageLimit.MaxWarnings = defaultMaxWarnings
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}
