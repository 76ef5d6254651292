package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Widget    WidgetDefaults  `yaml:"widget"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	// EnforceAllowedDomains rejects widget requests whose Origin or Referer
	// is not in the client's allowed domains.
	EnforceAllowedDomains bool `yaml:"enforce_allowed_domains"`
	// AllowLocalhostOrigins lets http://localhost and http://127.0.0.1
	// through the domain check. Development only.
	AllowLocalhostOrigins bool `yaml:"allow_localhost_origins"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN builds a postgres URL usable by both pgxpool and golang-migrate.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort int    `yaml:"metrics_port"`
}

// StorageConfig selects the persistence backend: "postgres" or "memory".
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type ChatConfig struct {
	HistoryLimit     int           `yaml:"history_limit"`
	DefaultMaxTokens int           `yaml:"default_max_tokens"`
	ActiveWindow     time.Duration `yaml:"active_window"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	MaxMessageChars  int           `yaml:"max_message_chars"`
}

type RateLimitConfig struct {
	Enabled                 bool          `yaml:"enabled"`
	DefaultRequestsPerMin   int           `yaml:"default_requests_per_minute"`
	DefaultDailyTokenBudget int64         `yaml:"default_daily_token_budget"`
	AuthCacheTTL            time.Duration `yaml:"auth_cache_ttl"`
}

// WidgetDefaults are server-wide branding values merged into new sessions
// below the client's own configuration.
type WidgetDefaults struct {
	BotName           string `yaml:"bot_name"`
	PoweredByText     string `yaml:"powered_by_text"`
	PrimaryColor      string `yaml:"primary_color"`
	BotIconURL        string `yaml:"bot_icon_url"`
	BotMessageBgColor string `yaml:"bot_message_bg_color"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			AllowedOrigins:   []string{"*"},

			EnforceAllowedDomains: true,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "chatbot",
			User:            "chatbot",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
		Storage: StorageConfig{Driver: "postgres"},
		Chat: ChatConfig{
			HistoryLimit:     10,
			DefaultMaxTokens: 1000,
			ActiveWindow:     5 * time.Minute,
			MaxUploadBytes:   10 << 20,
			MaxMessageChars:  50000,
		},
		RateLimit: RateLimitConfig{
			Enabled:                 true,
			DefaultRequestsPerMin:   60,
			DefaultDailyTokenBudget: 0,
			AuthCacheTTL:            5 * time.Minute,
		},
		Widget: WidgetDefaults{
			BotName:       "AI Assistant",
			PoweredByText: "Powered by AI",
			PrimaryColor:  "#007bff",
		},
	}
}
