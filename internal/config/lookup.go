package config

import (
	"fmt"
	"os"
	"strconv"
)

// envString returns the variable's value, or the fallback when unset.
func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

// envInt parses an integer variable. A variable that is set but malformed
// is a configuration error, not a reason to fall back silently.
func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", key, v, err)
	}

	return n, nil
}
