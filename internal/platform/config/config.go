package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Issuer captures issuer service configuration.
type Issuer struct {
	Addr           string        `env:"ISSUER_ADDR" envDefault:":4000"`
	SigningKey     string        `env:"ISSUER_SIGNING_KEY,required,notEmpty,unset"`
	LogLevel       string        `env:"ISSUER_LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"ISSUER_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxBodyBytes   int64         `env:"ISSUER_MAX_BODY_BYTES" envDefault:"16384"`
}

// Storage backends for the learner's durable slots.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Learner captures learner client configuration.
type Learner struct {
	IssuerURL       string        `env:"ENTANGLEDU_ISSUER_URL" envDefault:"http://localhost:4000"`
	MintTimeout     time.Duration `env:"ENTANGLEDU_MINT_TIMEOUT" envDefault:"10s"`
	Storage         string        `env:"ENTANGLEDU_STORAGE" envDefault:"sqlite"`
	DataPath        string        `env:"ENTANGLEDU_DATA_PATH" envDefault:"entangledu.db"`
	RedisURL        string        `env:"ENTANGLEDU_REDIS_URL"`
	PollInterval    time.Duration `env:"ENTANGLEDU_POLL_INTERVAL" envDefault:"500ms"`
	IssuerIdentity  string        `env:"ENTANGLEDU_ISSUER_IDENTITY"`
	LogLevel        string        `env:"ENTANGLEDU_LOG_LEVEL" envDefault:"warn"`
	BreakerFailures int           `env:"ENTANGLEDU_BREAKER_FAILURES" envDefault:"3"`
	BreakerCooldown time.Duration `env:"ENTANGLEDU_BREAKER_COOLDOWN" envDefault:"30s"`
}

// IssuerFromEnv loads issuer configuration. A missing signing key is an error:
// the issuer has no compiled-in fallback key.
func IssuerFromEnv() (Issuer, error) {
	return parseIssuer(nil)
}

// LearnerFromEnv loads learner configuration.
func LearnerFromEnv() (Learner, error) {
	return parseLearner(nil)
}

func parseIssuer(environ map[string]string) (Issuer, error) {
	var cfg Issuer
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Issuer{}, fmt.Errorf("parse issuer env: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return Issuer{}, fmt.Errorf("ISSUER_REQUEST_TIMEOUT must be positive")
	}
	return cfg, nil
}

func parseLearner(environ map[string]string) (Learner, error) {
	var cfg Learner
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Learner{}, fmt.Errorf("parse learner env: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch cfg.Storage {
	case StorageSQLite:
		if strings.TrimSpace(cfg.DataPath) == "" {
			return Learner{}, fmt.Errorf("ENTANGLEDU_DATA_PATH is required for sqlite storage")
		}
	case StorageRedis:
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return Learner{}, fmt.Errorf("ENTANGLEDU_REDIS_URL is required for redis storage")
		}
	case StorageMemory:
	default:
		return Learner{}, fmt.Errorf("unsupported ENTANGLEDU_STORAGE %q", cfg.Storage)
	}
	if cfg.MintTimeout <= 0 {
		return Learner{}, fmt.Errorf("ENTANGLEDU_MINT_TIMEOUT must be positive")
	}
	return cfg, nil
}
