package util

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// LoadEnv loads variables from a .env file if one exists. Missing files
// are not an error; the process environment is used as-is.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnv returns the value of an environment variable or "" if unset.
func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

// GetEnvString returns the value of an environment variable or the
// provided default if unset.
func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

// GetEnvNumeric returns an environment variable parsed as a float or the
// provided default if unset or unparseable.
func GetEnvNumeric(key string, defaultValue int) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return float64(defaultValue)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return float64(defaultValue)
	}
	return parsed
}

// GetEnvBool returns an environment variable parsed as "true"/"false" or
// the provided default for any other value.
func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if value == "true" || value == "false" {
		return value == "true"
	}
	return defaultValue
}
