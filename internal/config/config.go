package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	ModelPath        string   `mapstructure:"MODEL_PATH"`
	TrainingDataPath string   `mapstructure:"TRAINING_DATA_PATH"`
	GeneratorSeed    int64    `mapstructure:"GENERATOR_SEED"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	AuthTokenSecret  string   `mapstructure:"AUTH_TOKEN_SECRET"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MODEL_PATH", "models/risk_model.gob")
	v.SetDefault("TRAINING_DATA_PATH", "training_data.json")
	v.SetDefault("GENERATOR_SEED", 42)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MODEL_PATH")
	v.BindEnv("TRAINING_DATA_PATH")
	v.BindEnv("GENERATOR_SEED")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_TOKEN_SECRET")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the process is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasDatabase reports whether a Postgres corpus store is configured. The
// training corpus can live entirely in files, so DATABASE_URL is optional.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Validate checks that the configuration is safe to serve with. Training and
// generation run out-of-band and only need defaults; the scoring API refuses
// to start unauthenticated outside development.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH must not be empty")
	}
	if !c.IsDev() && c.AuthTokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required when ENV is not development")
	}
	return nil
}
