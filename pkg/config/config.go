package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	applogger "TickerBot/pkg/logger"
)

type Config struct {
	App struct {
		Name        string `yaml:"name" default:"TemplateBot" validate:"required"`
		Version     string `yaml:"version" default:"2025.12.17"`
		EnabledCron bool   `yaml:"enabled_cron" default:"false"`
		// Refresh ticker file, read once at startup.
		ConfigurationFile string `yaml:"configuration_file" default:"app/configuration.json"`
	} `yaml:"app"`
	Server struct {
		Port            int           `yaml:"port" default:"8000" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		Metrics         bool          `yaml:"metrics" default:"true"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
	} `yaml:"server"`
	Database struct {
		Path        string        `yaml:"path" default:"data/development.db" validate:"required"`
		BusyTimeout time.Duration `yaml:"busy_timeout" default:"5s"`
		LogQueries  bool          `yaml:"log_queries" default:"false"`
		SlowQuery   time.Duration `yaml:"slow_query" default:"200ms"`
		Migrate     bool          `yaml:"migrate" default:"true"`
	} `yaml:"database"`
	Log struct {
		Dir        string `yaml:"dir" default:"data"`
		File       string `yaml:"file" default:"development.log" validate:"required"`
		Level      string `yaml:"level" default:"INFO"`
		Format     string `yaml:"format" default:"console" validate:"oneof=console json"`
		MaxAgeDays int    `yaml:"max_age_days" default:"7" validate:"gte=0"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"500" validate:"gte=1"`
		Console    bool   `yaml:"console" default:"true"`
	} `yaml:"log"`
	Scheduler struct {
		StopTimeout time.Duration `yaml:"stop_timeout" default:"30s"`
	} `yaml:"scheduler"`
	Provider struct {
		BaseURL   string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
		Timeout   time.Duration `yaml:"timeout" default:"20s"`
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; TickerBot)"`
		KeepLast  int           `yaml:"keep_last" default:"10" validate:"gte=1"`
	} `yaml:"provider"`
	Notifier struct {
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		Telegram struct {
			BaseURL   string  `yaml:"base_url" default:"https://api.telegram.org"`
			Token     string  `yaml:"token"`
			ChatID    string  `yaml:"chat_id"`
			RateLimit float64 `yaml:"rate_limit" default:"1"`
			Burst     int     `yaml:"burst" default:"3"`
		} `yaml:"telegram"`
		Discord struct {
			WebhookURL string  `yaml:"webhook_url"`
			RateLimit  float64 `yaml:"rate_limit" default:"0.5"`
			Burst      int     `yaml:"burst" default:"5"`
		} `yaml:"discord"`
	} `yaml:"notifier"`
	Alerts struct {
		Enabled        bool          `yaml:"enabled" default:"false"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"1m"`
		CountThreshold int           `yaml:"count_threshold" default:"20"`
	} `yaml:"alerts"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis layered"`
		TTL     time.Duration `yaml:"ttl" default:"5m"`
		MaxSize int           `yaml:"max_size" default:"1000"`
		// Expired memory entries are swept this often.
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
		Redis           struct {
			Host         string        `yaml:"host" default:"localhost"`
			Port         int           `yaml:"port" default:"6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db" default:"0"`
			Prefix       string        `yaml:"prefix" default:"tickerbot"`
			PoolSize     int           `yaml:"pool_size" default:"10"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled" default:"false"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"tickerbot.candles"`
		RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
		Async        bool          `yaml:"async" default:"false"`
		Compression  string        `yaml:"compression" default:"gzip"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		BatchSize    int           `yaml:"batch_size" default:"100" validate:"gte=1"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576" validate:"gte=1"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"100ms"`
	} `yaml:"kafka"`
}

// ConfigError reports a missing or unreadable configuration source.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var validate = validator.New()

// Load builds the configuration: defaults, then the optional YAML file.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, &ConfigError{Path: path, Err: err}
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
			}
		}
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML, then .env and the process environment.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Real environment wins over .env.
	_ = godotenv.Load()

	c.applyEnv()
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	setBool("ENABLED_CRON", &c.App.EnabledCron)
	setString("APP_NAME", &c.App.Name)
	setString("APP_VERSION", &c.App.Version)
	setString("CONFIGURATION_FILE", &c.App.ConfigurationFile)
	setInt("SERVER_PORT", &c.Server.Port)
	setString("DATABASE_PATH", &c.Database.Path)
	setString("LOG_DIR", &c.Log.Dir)
	setString("LOG_FILE", &c.Log.File)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	setString("NOTIFIER_TELEGRAM_TOKEN", &c.Notifier.Telegram.Token)
	setString("NOTIFIER_TELEGRAM_CHAT_ID", &c.Notifier.Telegram.ChatID)
	setString("NOTIFIER_DISCORD_WEBHOOK_URL", &c.Notifier.Discord.WebhookURL)
	setBool("ALERTS_ENABLED", &c.Alerts.Enabled)
	setString("PROVIDER_BASE_URL", &c.Provider.BaseURL)
	setString("CACHE_BACKEND", &c.Cache.Backend)
	setString("REDIS_HOST", &c.Cache.Redis.Host)
	setInt("REDIS_PORT", &c.Cache.Redis.Port)
	setString("REDIS_PASSWORD", &c.Cache.Redis.Password)
	setBool("KAFKA_ENABLED", &c.Kafka.Enabled)
	setString("KAFKA_TOPIC", &c.Kafka.Topic)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
}

func (c *Config) normalize() {
	c.Log.Level = applogger.NormalizeLevel(c.Log.Level)
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// LogPath is the live log file: <dir>/<file base>.log.
func (c *Config) LogPath() string {
	base := strings.TrimSuffix(filepath.Base(c.Log.File), filepath.Ext(c.Log.File))
	return filepath.Join(c.Log.Dir, base+".log")
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

// setBool accepts true/false, 1/0, yes/no, on/off.
func setBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y", "t":
		*dst = true
	case "0", "false", "no", "off", "n", "f":
		*dst = false
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
