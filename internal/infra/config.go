package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xela07ax/agentiq-console/internal/archive"
	"github.com/xela07ax/agentiq-console/internal/ticket"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Session  SessionConfig   `mapstructure:"session"`
	Tickets  ticket.Config   `mapstructure:"tickets"`
	Archive  archive.Options `mapstructure:"archive"`
	Logger   LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig — Postgres для аудиторского архива. Пустой URL — архив выключен.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig — Redis для публикации исполненных предложений. Пустой Addr — публикация выключена.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig — подпись токенов сессии (HS256)
type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RateLimit     float64       `mapstructure:"rate_limit"` // действий в секунду на сессию
	Burst         int           `mapstructure:"burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

var (
	ErrMissingSecret   = errors.New("auth.session_secret is required")
	ErrInvalidInterval = errors.New("interval must be positive")
)

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// paths — дополнительные каталоги поиска config.yaml.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// AGENTIQ_SESSION_IDLE_TTL=1h перекроет session.idle_ttl
	v.SetEnvPrefix("AGENTIQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Ключи без дефолтов Unmarshal не увидит, пока их явно не привязать к ENV
	for _, key := range []string{"auth.session_secret", "database.url", "redis.addr", "redis.password", "redis.db"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.Auth.SessionSecret == "" {
		return nil, ErrMissingSecret
	}
	if err := cfg.validateIntervals(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateIntervals: time.NewTicker паникует на нуле, а нулевой idle_ttl выметет все сессии
func (c *Config) validateIntervals() error {
	checks := []struct {
		key string
		val time.Duration
	}{
		{"session.sweep_interval", c.Session.SweepInterval},
		{"session.idle_ttl", c.Session.IdleTTL},
		{"archive.flush_interval", c.Archive.FlushInterval},
		{"auth.token_ttl", c.Auth.TokenTTL},
	}
	for _, ch := range checks {
		if ch.val <= 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidInterval, ch.key, ch.val)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("session.idle_ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("session.rate_limit", 5)
	v.SetDefault("session.burst", 10)

	v.SetDefault("tickets.base_url", ticket.DefaultBaseURL)
	v.SetDefault("tickets.project_id", ticket.DefaultProjectID)
	v.SetDefault("tickets.issue_type", ticket.DefaultIssueType)
	v.SetDefault("tickets.labels", ticket.DefaultLabels())

	v.SetDefault("archive.buffer_size", 10000)
	v.SetDefault("archive.batch_size", 100)
	v.SetDefault("archive.flush_interval", 500*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
