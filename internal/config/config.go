// Package config loads service configuration from environment variables,
// grounded on the teacher's common/os.go GetenvOrDefault family.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a local .env file if present; absence is not an error,
// matching how joho/godotenv is used across the teacher's bootstrap code.
func LoadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// GetenvOrDefault returns os.Getenv(key), or defaultValue when unset/blank.
func GetenvOrDefault(key, defaultValue string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return defaultValue
	}

	return v
}

// GetenvIntOrDefault parses os.Getenv(key) as an int, falling back to
// defaultValue when unset or unparsable.
func GetenvIntOrDefault(key string, defaultValue int) int {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}

	return n
}

// GetenvDurationSecondsOrDefault parses os.Getenv(key) as a count of
// seconds, returning a time.Duration.
func GetenvDurationSecondsOrDefault(key string, defaultSeconds int) time.Duration {
	return time.Duration(GetenvIntOrDefault(key, defaultSeconds)) * time.Second
}

// GetenvBoolOrDefault parses os.Getenv(key) as a bool, falling back to
// defaultValue when unset or unparsable.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}

// Limits holds the business-tunable ceilings shared by every service.
type Limits struct {
	MaxPledge  string
	MaxTransfer string
}

// LoadLimits reads MAX_PLEDGE/MAX_TRANSFER from the environment, defaulting
// to the values spec.md implies for a donation platform.
func LoadLimits() Limits {
	return Limits{
		MaxPledge:   GetenvOrDefault("MAX_PLEDGE", "1000000.00"),
		MaxTransfer: GetenvOrDefault("MAX_TRANSFER", "1000000.00"),
	}
}
