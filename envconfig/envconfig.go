// Package envconfig reads environment configuration shared by the
// payment providers. Each provider layers its own typed config on top
// of these helpers.
package envconfig

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a .env file into the process environment. Existing
// variables are never overwritten. A missing file is not an error.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the first non-empty value among keys, or fallback.
// Multiple keys let callers accept both prefixed and legacy names.
func Get(fallback string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return fallback
}

func GetInt(fallback int, keys ...string) int {
	if value := Get("", keys...); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func GetFloat(fallback float64, keys ...string) float64 {
	if value := Get("", keys...); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func GetBool(fallback bool, keys ...string) bool {
	if value := Get("", keys...); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func GetDuration(fallback time.Duration, keys ...string) time.Duration {
	if value := Get("", keys...); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare numbers are treated as seconds.
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
