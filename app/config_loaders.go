package cinevault

import (
	"encoding/base64"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ConfigLoader interface {
	Load() (*Config, error)
}

// EnvConfigLoader loads the configuration from a .env file and the process
// environment. The SECRET variable is expected to be a base64-encoded string;
// it is decoded into the signing key for JWT tokens. ALLOWED_ORIGINS is a
// comma-separated list of origins allowed to connect to the server.
type EnvConfigLoader struct {
}

func (l *EnvConfigLoader) Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	config := &Config{}

	config.Port, _ = strconv.Atoi(getEnv("PORT"))
	config.Hostname = getEnv("HOSTNAME")

	secret, err := base64.StdEncoding.DecodeString(getEnv("SECRET"))
	if err != nil {
		return nil, errors.New("invalid secret value")
	}
	config.Auth.Secret = secret

	config.Auth.Flow = getEnv("AUTH_FLOW")
	if config.Auth.Flow == "" {
		config.Auth.Flow = TokenFlow
	}

	if exp := getEnv("TOKEN_EXP"); exp != "" {
		config.Auth.TokenExp, err = time.ParseDuration(exp)
		if err != nil {
			return nil, errors.New("invalid token exp value")
		}
	}

	if idle := getEnv("SESSION_IDLE"); idle != "" {
		config.Auth.SessionIdle, err = time.ParseDuration(idle)
		if err != nil {
			return nil, errors.New("invalid session idle value")
		}
	}

	config.SQLite.File = getEnv("SQLITE_FILE")
	config.SQLite.Migrations = getEnv("MIGRATION_DIR")
	config.AllowedOrigins = strings.Split(getEnv("ALLOWED_ORIGINS"), ",")

	return config, nil
}

// Utility function to get an environment variable with a default value
func getEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}
