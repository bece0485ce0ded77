package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// File names inside the data directory.
const (
	APIKeyFileName   = "API_key.txt"
	CityListFileName = "city.list.json"
	CacheFileName    = "weather.db"
)

type AppConfig struct {
	// OpenWeatherAPIKey wins over the key file when set.
	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY"`
	BaseURL           string `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5" validate:"required,url"`

	// DataDir holds the key file, the city list and the cache unless each is
	// overridden below.
	DataDir      string `env:"WTW_DATA_DIR"`
	APIKeyFile   string `env:"WTW_API_KEY_FILE"`
	CityListFile string `env:"WTW_CITY_LIST"`
	CachePath    string `env:"WTW_CACHE_PATH"`

	// MinInterval is the rate limit window shared by every request.
	MinInterval time.Duration `env:"WTW_MIN_INTERVAL" envDefault:"10m" validate:"gt=0"`
	// WatchInterval must exceed MinInterval for every tick to reach the API.
	WatchInterval time.Duration `env:"WTW_WATCH_INTERVAL" envDefault:"11m" validate:"gt=0"`

	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	HTTPMaxRetries int           `env:"HTTP_MAX_RETRIES" envDefault:"0" validate:"gte=0,lte=5"`

	// Timezone is an IANA name; empty means the system zone.
	Timezone string `env:"WTW_TIMEZONE" validate:"omitempty,timezone"`

	RecreateCorruptCache bool `env:"WTW_RECREATE_CORRUPT_CACHE" envDefault:"true"`
	Verbose              bool `env:"WTW_VERBOSE"`
}

// Load reads configuration from .env and the environment with sensible
// defaults, then fills in paths derived from the data directory.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	cfg.APIKeyFile = orDefault(cfg.APIKeyFile, filepath.Join(cfg.DataDir, APIKeyFileName))
	cfg.CityListFile = orDefault(cfg.CityListFile, filepath.Join(cfg.DataDir, CityListFileName))
	cfg.CachePath = orDefault(cfg.CachePath, filepath.Join(cfg.DataDir, CacheFileName))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.WatchInterval <= cfg.MinInterval {
		log.Printf("WARN: WTW_WATCH_INTERVAL %s does not exceed WTW_MIN_INTERVAL %s; some ticks will be rate limited",
			cfg.WatchInterval, cfg.MinInterval)
	}

	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Location returns the zone used to print timestamps.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// Unreachable after validation.
		return time.Local
	}
	return loc
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(base, "wtw"), nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
