package main

import (
	"time"

	"github.com/dmitrymomot/newsletter/modules/newsletter"
	"github.com/dmitrymomot/newsletter/pkg/config"
	"github.com/dmitrymomot/newsletter/pkg/email"
	"github.com/dmitrymomot/newsletter/pkg/httpserver"
	"github.com/dmitrymomot/newsletter/pkg/pg"
	"github.com/dmitrymomot/newsletter/pkg/ratelimiter"
	"github.com/dmitrymomot/newsletter/pkg/redis"
	"github.com/dmitrymomot/newsletter/svc/adminauth"
)

// KV backends selectable with KV_BACKEND.
const (
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
)

type appConfig struct {
	Env           string        `env:"APP_ENV" envDefault:"development"`
	Name          string        `env:"APP_NAME" envDefault:"newsletter"`
	LogLevel      string        `env:"LOG_LEVEL"`
	KVBackend     string        `env:"KV_BACKEND" envDefault:"memory"`
	PurgeInterval time.Duration `env:"KV_PURGE_INTERVAL" envDefault:"1h"` // PurgeInterval is how often expired postgres rows are removed.
	AutoMigrate   bool          `env:"PG_AUTO_MIGRATE" envDefault:"true"`
	RateLimit     bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

type broadcastConfig struct {
	Stagger     time.Duration `env:"BROADCAST_STAGGER" envDefault:"50ms"`
	SendTimeout time.Duration `env:"BROADCAST_SEND_TIMEOUT" envDefault:"30s"`
}

// Config is the whole process configuration, read from the environment and
// an optional .env file.
type Config struct {
	App       appConfig
	HTTP      httpserver.Config
	Web       newsletter.Config
	Redis     redis.Config
	Postgres  pg.Config
	Email     email.Config
	Admin     adminauth.Config
	Broadcast broadcastConfig
	RateLimit ratelimiter.Config
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
