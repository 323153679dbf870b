package config

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingSecret = errors.New("JWT_SECRET is required")

type Config struct {
	HTTPAddr          string
	DatabaseDSN       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	JWTSecret         string
	JWTTTL            time.Duration
	LogLevel          string
	TelegramBotToken  string
	RingTimeout       time.Duration
	RingSweepInterval time.Duration
	NodeID            string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(NewViper())
}

// NewViper returns a viper instance bound to the environment with every default set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_DSN", "host=localhost user=user password=password dbname=tawkdb port=5432 sslmode=disable")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 72*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("RING_TIMEOUT", DefaultRingTimeout)
	v.SetDefault("RING_SWEEP_INTERVAL", DefaultRingSweepInterval)
	v.SetDefault("NODE_ID", "")
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		HTTPAddr:          v.GetString("HTTP_ADDR"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		RedisAddr:         strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		LogLevel:          strings.TrimSpace(v.GetString("LOG_LEVEL")),
		TelegramBotToken:  strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		RingTimeout:       v.GetDuration("RING_TIMEOUT"),
		RingSweepInterval: v.GetDuration("RING_SWEEP_INTERVAL"),
		NodeID:            strings.TrimSpace(v.GetString("NODE_ID")),
	}

	if c.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if c.NodeID == "" {
		c.NodeID = uuid.NewString()
	}
	if c.RingTimeout <= 0 {
		c.RingTimeout = DefaultRingTimeout
	}
	if c.RingSweepInterval <= 0 {
		c.RingSweepInterval = DefaultRingSweepInterval
	}
	return c, nil
}
