package app

import (
	"github.com/openpredict/settlement/app/amm"
	"github.com/openpredict/settlement/app/database"
	"github.com/openpredict/settlement/app/oracle"
	"github.com/openpredict/settlement/app/settlement"
	"github.com/openpredict/settlement/internal/cache"
	"github.com/openpredict/settlement/internal/conf"
)

// Config is the full service configuration, loaded from the environment
// (optionally overlaid on a .env file) and validated at startup.
type Config struct {
	AppHost string `env:"APP_HOST" env-default:"0.0.0.0"`
	AppPort string `env:"APP_PORT" env-default:"8080"`
	AppEnv  string `env:"APP_ENV" env-default:"development" validate:"oneof=development staging production"`

	// TokenSymmetricKey seals PASETO bearer tokens. Must be exactly 32 bytes.
	TokenSymmetricKey string `env:"TOKEN_SYMMETRIC_KEY" validate:"required,len=32"`

	CacheBackend  string `env:"CACHE_BACKEND" env-default:"memory" validate:"oneof=memory redis"`
	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	DB         database.Config
	AMM        amm.Config
	Oracle     oracle.Config
	Settlement settlement.Config
}

// RedisOptions builds the cache backend options from the redis fields.
func (c *Config) RedisOptions() *cache.RedisOptions {
	return &cache.RedisOptions{
		Addr:      c.RedisAddr,
		Password:  c.RedisPassword,
		DB:        c.RedisDB,
		KeyPrefix: "settlement:",
	}
}

// LoadConfig reads, validates, and parses the configuration.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := conf.NewLoader().Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.AMM.Parse(); err != nil {
		return nil, err
	}
	if err := cfg.Oracle.Parse(); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.Parse(); err != nil {
		return nil, err
	}
	return cfg, nil
}
