package sqlite

import (
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds SQLite configuration.
type ClientConfig struct {
	Path          string
	BusyTimeout   time.Duration
	LogLevel      gormlogger.LogLevel
	SlowThreshold time.Duration
	Migrate       bool
}

// WithPath sets the database file. ":memory:" opens an in-memory database.
func WithPath(path string) ClientOption {
	return func(c *ClientConfig) {
		c.Path = path
	}
}

// WithBusyTimeout sets how long a statement waits on a locked database.
func WithBusyTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.BusyTimeout = d
	}
}

// WithLogLevel sets the gorm query log level.
func WithLogLevel(level gormlogger.LogLevel) ClientOption {
	return func(c *ClientConfig) {
		c.LogLevel = level
	}
}

// WithSlowThreshold sets the duration after which queries are logged as slow.
func WithSlowThreshold(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.SlowThreshold = d
	}
}

// WithMigrations toggles running embedded migrations on open.
func WithMigrations(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.Migrate = enabled
	}
}
