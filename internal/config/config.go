package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Places    PlacesConfig    `yaml:"places"`
	Votes     VotesConfig     `yaml:"votes"`
	Redis     RedisConfig     `yaml:"redis"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

type AuthConfig struct {
	Enabled     bool          `yaml:"enabled"`
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
}

type PlacesConfig struct {
	APIKey                    string        `yaml:"api_key"`
	BaseURL                   string        `yaml:"base_url"`
	Timeout                   time.Duration `yaml:"timeout"`
	MaxCandidates             int           `yaml:"max_candidates"`
	MaxPages                  int           `yaml:"max_pages"`
	DefaultLat                float64       `yaml:"default_lat"`
	DefaultLng                float64       `yaml:"default_lng"`
	FallbackUnfilteredOnEmpty bool          `yaml:"fallback_unfiltered_on_empty"`
}

type VotesConfig struct {
	// Backend is "sqlite" or "redis".
	Backend string `yaml:"backend"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Path: "groupbite.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			JWTDuration: 24 * time.Hour,
		},
		Places: PlacesConfig{
			BaseURL:       "https://maps.googleapis.com/maps/api/place",
			Timeout:       10 * time.Second,
			MaxCandidates: 10,
			MaxPages:      1,
			DefaultLat:    37.7749,
			DefaultLng:    -122.4194,
		},
		Votes: VotesConfig{
			Backend: "sqlite",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "groupbite:",
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// and environment variables, in that order.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("GROUPBITE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Votes.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("invalid votes backend %q", c.Votes.Backend)
	}
	if c.Places.MaxCandidates <= 0 {
		return fmt.Errorf("places.max_candidates must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("GROUPBITE_SERVER_HOST", &cfg.Server.Host)
	if err := setInt("GROUPBITE_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if origins := os.Getenv("GROUPBITE_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	setString("GROUPBITE_TRANSPORT_MODE", &cfg.Transport.Mode)
	setString("GROUPBITE_DB_PATH", &cfg.DB.Path)
	setString("GROUPBITE_LOG_LEVEL", &cfg.Log.Level)
	setString("GROUPBITE_LOG_FORMAT", &cfg.Log.Format)
	setString("GROUPBITE_LOG_PATH", &cfg.Log.Path)

	if err := setBool("GROUPBITE_AUTH_ENABLED", &cfg.Auth.Enabled); err != nil {
		return err
	}
	setString("GROUPBITE_JWT_SECRET", &cfg.Auth.JWTSecret)
	if err := setDuration("GROUPBITE_JWT_DURATION", &cfg.Auth.JWTDuration); err != nil {
		return err
	}

	setString("GROUPBITE_PLACES_API_KEY", &cfg.Places.APIKey)
	setString("GROUPBITE_PLACES_BASE_URL", &cfg.Places.BaseURL)
	if err := setDuration("GROUPBITE_PLACES_TIMEOUT", &cfg.Places.Timeout); err != nil {
		return err
	}
	if err := setInt("GROUPBITE_PLACES_MAX_CANDIDATES", &cfg.Places.MaxCandidates); err != nil {
		return err
	}
	if err := setInt("GROUPBITE_PLACES_MAX_PAGES", &cfg.Places.MaxPages); err != nil {
		return err
	}
	if err := setBool("GROUPBITE_PLACES_FALLBACK_UNFILTERED_ON_EMPTY", &cfg.Places.FallbackUnfilteredOnEmpty); err != nil {
		return err
	}

	setString("GROUPBITE_VOTES_BACKEND", &cfg.Votes.Backend)
	setString("GROUPBITE_REDIS_ADDR", &cfg.Redis.Addr)
	setString("GROUPBITE_REDIS_PASSWORD", &cfg.Redis.Password)
	if err := setInt("GROUPBITE_REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	setString("GROUPBITE_REDIS_KEY_PREFIX", &cfg.Redis.KeyPrefix)
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
