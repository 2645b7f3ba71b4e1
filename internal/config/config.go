package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	TelegramToken        string
	AdminUserIDs         []int64
	DatabasePath         string
	MediaDir             string
	LogLevel             string
	Timezone             *time.Location
	Locale               string
	AdminHTTPAddr        string
	AdminAPIToken        string
	MaxSubmissionsPerDay int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	adminIDsStr := os.Getenv("ADMIN_USER_IDS")
	if adminIDsStr == "" {
		return nil, fmt.Errorf("ADMIN_USER_IDS environment variable is required")
	}
	adminIDs, err := parseAdminIDs(adminIDsStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}

	c := &Config{
		TelegramToken: token,
		AdminUserIDs:  adminIDs,
	}

	c.DatabasePath = envString("DATABASE_PATH", "./data/bot.db")
	c.MediaDir = envString("MEDIA_DIR", "./data/media")
	c.LogLevel = envString("LOG_LEVEL", "INFO")
	c.Locale = envString("LOCALE", "ru")
	c.AdminHTTPAddr = envString("ADMIN_HTTP_ADDR", ":8080")
	c.AdminAPIToken = envString("ADMIN_API_TOKEN", "")

	timezoneStr := envString("TIMEZONE", "UTC")
	timezone, err := time.LoadLocation(timezoneStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE '%s': %w", timezoneStr, err)
	}
	c.Timezone = timezone

	maxPerDay, err := envInt("MAX_SUBMISSIONS_PER_DAY", 3)
	if err != nil {
		return nil, err
	}
	if maxPerDay < 1 {
		return nil, fmt.Errorf("invalid MAX_SUBMISSIONS_PER_DAY '%d': must be positive", maxPerDay)
	}
	c.MaxSubmissionsPerDay = maxPerDay

	return c, nil
}

// IsAdmin reports whether the given telegram user ID is a configured admin
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// parseAdminIDs parses comma-separated admin user IDs
func parseAdminIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin ID '%s': %w", part, err)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one admin ID is required")
	}

	return ids, nil
}
