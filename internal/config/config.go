package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The struct is passed explicitly into the
// database layer and the handlers; nothing reads connection settings from
// package-level state.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	LogLevel        string        // zerolog level name (debug, info, warn, error)
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	DBTimeout       time.Duration // dial/read/write timeout for MySQL
	Currency        string        // currency label used in replies
	RestaurantName  string        // name used by the welcome reply
	ShutdownTimeout time.Duration // grace period for in-flight requests on shutdown
}

// ErrMissingEnv is wrapped by Load when a required variable is unset.
var ErrMissingEnv = errors.New("missing required env var")

// Load reads an optional .env file and then builds a Config from the
// environment.  Required variables are DB_USER, DB_HOST and DB_NAME; every
// other value has a default.
func Load() (Config, error) {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	cfg := Config{
		Env:             getenv("APP_ENV", "dev"),
		Port:            getenv("APP_PORT", "8000"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DBPass:          os.Getenv("DB_PASS"),
		DBPort:          getenv("DB_PORT", "3306"),
		DBTimeout:       parseDur(getenv("DB_TIMEOUT", "5s")),
		Currency:        getenv("CURRENCY", "EGP"),
		RestaurantName:  getenv("RESTAURANT_NAME", "Fool & Falafel"),
		ShutdownTimeout: parseDur(getenv("SHUTDOWN_TIMEOUT", "10s")),
	}
	var err error
	if cfg.DBUser, err = must("DB_USER"); err != nil {
		return Config{}, err
	}
	if cfg.DBHost, err = must("DB_HOST"); err != nil {
		return Config{}, err
	}
	if cfg.DBName, err = must("DB_NAME"); err != nil {
		return Config{}, err
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid APP_PORT %q", cfg.Port)
	}
	return cfg, nil
}

// must retrieves the value of a required environment variable.
func must(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, key)
	}
	return v, nil
}
