package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogLevel is the minimum level emitted by the structured logger.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// UnmarshalText implements encoding.TextUnmarshaler for LogLevel.
func (l *LogLevel) UnmarshalText(text []byte) error {
	v := LogLevel(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		*l = v
		return nil
	case "warning":
		*l = LogLevelWarn
		return nil
	default:
		return fmt.Errorf("invalid LogLevel: %q (valid options: debug, info, warn, error)", v)
	}
}

// Level maps the configured level to slog. Unset means info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - sso.go: CAS portal credentials
//   - remote.go: GWT endpoint, calendar feed and crawl tuning
//   - cache.go: Redis feed cache
//   - http.go: outbound HTTP client
//   - observability.go: metrics and failure notifications
type AppConfig struct {
	LogLevel LogLevel `env:"LOG_LEVEL" envDefault:"info"`

	SSO      SSOConfig
	GWT      GWTConfig
	Calendar CalendarConfig
	Crawl    CrawlConfig

	Cache CacheConfig
	HTTP  HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.SSO.Sanitize()
	c.GWT.Sanitize()
	c.Calendar.Sanitize()
	c.Crawl.Sanitize()
	c.Cache.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()
}
