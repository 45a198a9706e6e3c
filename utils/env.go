package utils

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNoDatabaseURL is returned when no connection string is configured.
var ErrNoDatabaseURL = errors.New("DATABASE_URL not set (in .env, environment or config file)")

// LoadEnv reads .env into the process environment when the file exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, continuing")
	}
}

// DatabaseURL returns the configured connection string. The config key
// database_url wins over the DATABASE_URL environment variable.
func DatabaseURL() (string, error) {
	if url := viper.GetString("database_url"); url != "" {
		return url, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", ErrNoDatabaseURL
}
