package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration loaded from environment variables
// and, optionally, a TOML file.
type Config struct {
	BasicsPath  string `toml:"basics_path"`
	RatingsPath string `toml:"ratings_path"`
	OutputPath  string `toml:"output_path"`
	StaticDir   string `toml:"static_dir"`

	TargetType  string  `toml:"target_type"`
	PriorRating float64 `toml:"prior_rating"`
	PriorWeight float64 `toml:"prior_weight"`
	TopN        int     `toml:"top_n"`

	StoreDriver      string `toml:"store_driver"`
	SQLitePath       string `toml:"sqlite_path"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresPassword string `toml:"postgres_password"`
	PostgresDB       string `toml:"postgres_db"`
	PostgresSSLMode  string `toml:"postgres_sslmode"`
	MaxRetries       int    `toml:"max_retries"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	LogLevel string `toml:"log_level"`
}

// Defaults used when neither the environment nor a config file sets a value.
const (
	DefaultTargetType  = "movie"
	DefaultPriorRating = 7.0
	DefaultPriorWeight = 25000
	DefaultTopN        = 9999
)

// Load reads the .env file and returns a populated Config struct. If path is
// non-empty (or IMDB_RANK_CONFIG is set) the TOML file there is applied on
// top of the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		BasicsPath:  getEnv("BASICS_PATH", "title.basics.tsv"),
		RatingsPath: getEnv("RATINGS_PATH", "title.ratings.tsv"),
		OutputPath:  getEnv("OUTPUT_PATH", "imdb-data.csv"),
		StaticDir:   getEnv("STATIC_DIR", ""),

		TargetType:  getEnv("TARGET_TYPE", DefaultTargetType),
		PriorRating: getEnvFloat("PRIOR_RATING", DefaultPriorRating),
		PriorWeight: getEnvFloat("PRIOR_WEIGHT", DefaultPriorWeight),
		TopN:        getEnvInt("TOP_N", DefaultTopN),

		StoreDriver:      getEnv("STORE_DRIVER", "postgres"),
		SQLitePath:       getEnv("SQLITE_PATH", "imdb.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "imdb"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "imdb"),
		PostgresDB:       getEnv("POSTGRES_DB", "imdb"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 5),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if path == "" {
		path = os.Getenv("IMDB_RANK_CONFIG")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays values present in the TOML file. Keys absent from the
// file leave the environment value untouched.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BasicsPath) == "" {
		errs = append(errs, errors.New("basics_path is required"))
	}
	if strings.TrimSpace(c.RatingsPath) == "" {
		errs = append(errs, errors.New("ratings_path is required"))
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		errs = append(errs, errors.New("output_path is required"))
	}
	if c.TargetType == "" {
		errs = append(errs, errors.New("target_type is required"))
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Errorf("top_n must be positive, got %d", c.TopN))
	}
	if c.PriorWeight <= 0 {
		errs = append(errs, fmt.Errorf("prior_weight must be positive, got %g", c.PriorWeight))
	}
	if c.PriorRating < 0 || c.PriorRating > 10 {
		errs = append(errs, fmt.Errorf("prior_rating must be within 0-10, got %g", c.PriorRating))
	}
	switch c.StoreDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store_driver must be postgres or sqlite, got %q", c.StoreDriver))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
