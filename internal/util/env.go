package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the trimmed value of key or fallback when unset
func GetEnvString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetEnvInt parses key as an integer, logging and falling back on bad input
func GetEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		LogWarnf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// GetEnvFloat parses key as a float, logging and falling back on bad input
func GetEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		LogWarnf("Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

// GetEnvDuration parses key with time.ParseDuration. Bare integers are
// read as seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		LogWarnf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

// GetEnvBool parses key with strconv.ParseBool
func GetEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		LogWarnf("Invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
