package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Credential blocks are environment-only, never checked into config files.
	Twilio TwilioConfig `mapstructure:"-"`
	SMTP   SMTPConfig   `mapstructure:"-"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// SchedulerConfig drives the notification poller: how often it ticks, how
// stale a dose may be before it is considered due, and how late a tick may
// start before it is dropped.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	GraceMinutes  int           `mapstructure:"grace_minutes"`
	MisfireGrace  time.Duration `mapstructure:"misfire_grace"`
	AdminFallback string        `mapstructure:"admin_fallback_phone"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// TwilioConfig holds the WhatsApp gateway credentials. Any empty field means
// the gateway is unconfigured and dispatch short-circuits to failure.
type TwilioConfig struct {
	AccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	FromNumber string `envconfig:"TWILIO_PHONE_NUMBER"`
	TemplateID string `envconfig:"TWILIO_TEMPLATE_ID"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("jwt.expiry_hours", 24*7)
	viper.SetDefault("scheduler.interval", time.Minute)
	viper.SetDefault("scheduler.grace_minutes", 5)
	viper.SetDefault("scheduler.misfire_grace", 15*time.Minute)
	viper.SetDefault("rate_limit.requests_per_second", 20.0)
	viper.SetDefault("rate_limit.burst", 40)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Twilio); err != nil {
		return nil, fmt.Errorf("failed to read twilio credentials: %w", err)
	}
	if err := envconfig.Process("", &cfg.SMTP); err != nil {
		return nil, fmt.Errorf("failed to read smtp credentials: %w", err)
	}

	return &cfg, nil
}
