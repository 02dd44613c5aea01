// Package config loads server settings from the environment and game rules from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"guesser/internal/game"
	"guesser/internal/storage"
)

// Config holds the server settings.
type Config struct {
	Port             string        `env:"PORT"              envDefault:"8080"`
	GinMode          string        `env:"GIN_MODE"`
	Env              string        `env:"ENV"               envDefault:"development"`
	SessionTimeout   time.Duration `env:"SESSION_TIMEOUT"   envDefault:"2h"`
	CookieMaxAge     time.Duration `env:"COOKIE_MAX_AGE"    envDefault:"8760h"`
	// ProfileRetention purges stored profiles idle for longer; 0 keeps them forever.
	ProfileRetention time.Duration `env:"PROFILE_RETENTION" envDefault:"0"`
	StaticCacheAge   time.Duration `env:"STATIC_CACHE_AGE"  envDefault:"5m"`
	RateLimitRPS     int           `env:"RATE_LIMIT_RPS"    envDefault:"5"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST"  envDefault:"10"`
	StoreBackend     storage.Kind  `env:"STORE_BACKEND"     envDefault:"file"`
	DataDir          string        `env:"DATA_DIR"          envDefault:"data"`
	SQLitePath       string        `env:"SQLITE_PATH"       envDefault:"data/guesser.db"`
	GdataAppName     string        `env:"GDATA_APP_NAME"    envDefault:"guesser"`
	RulesPath        string        `env:"RULES_PATH"        envDefault:"data/rules.yaml"`
	TickInterval     time.Duration `env:"TICK_INTERVAL"     envDefault:"1s"`
}

// IsProduction reports whether the server runs in release mode.
func (c Config) IsProduction() bool {
	return c.GinMode == "release" || c.Env == "production"
}

// StorageOptions maps the storage settings onto storage.Options.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Dir:        c.DataDir,
		SQLitePath: c.SQLitePath,
		AppName:    c.GdataAppName,
	}
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("rate limit must be positive, got %d rps burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.ProfileRetention < 0 || (cfg.ProfileRetention > 0 && cfg.ProfileRetention < cfg.CookieMaxAge) {
		return Config{}, fmt.Errorf("PROFILE_RETENTION must be 0 or at least COOKIE_MAX_AGE (%s), got %s", cfg.CookieMaxAge, cfg.ProfileRetention)
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	return cfg, nil
}

// LoadRules overlays the YAML file at path on game.DefaultRules. A missing file yields
// the defaults. Levels named in the file replace the default level entirely.
func LoadRules(path string) (game.Rules, error) {
	rules := game.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules, nil
	}
	if err != nil {
		return game.Rules{}, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return game.Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return game.Rules{}, fmt.Errorf("invalid rules %s: %w", path, err)
	}
	return rules, nil
}
