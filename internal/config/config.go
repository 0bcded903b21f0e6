package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kindnessforautism/donations-api/internal/domain"
)

// Config holds everything read from the environment at startup.
//
// PayPal credentials and the admin secret are allowed to be empty here: the
// endpoints that need them fail closed at request time (500 / 503) instead of
// preventing the rest of the site's API from serving.
type Config struct {
	Port    string
	Storage string // "postgres" or "memory"

	DBSource string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalMode         string // "live" selects the production API, anything else sandbox

	AdminSecret string

	GoalCents int64
	BrandName string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("STORAGE", "")
	v.SetDefault("PAYPAL_MODE", "sandbox")
	v.SetDefault("DONATION_GOAL", 250000) // dollars
	v.SetDefault("BRAND_NAME", "Kindness for Autism")

	goal := v.GetFloat64("DONATION_GOAL")
	if goal <= 0 {
		return nil, fmt.Errorf("DONATION_GOAL must be a positive dollar amount, got %v", goal)
	}

	cfg := &Config{
		Port:               v.GetString("SERVER_PORT"),
		Storage:            strings.ToLower(v.GetString("STORAGE")),
		DBSource:           v.GetString("DB_SOURCE"),
		PayPalClientID:     v.GetString("PAYPAL_CLIENT_ID"),
		PayPalClientSecret: v.GetString("PAYPAL_CLIENT_SECRET"),
		PayPalMode:         v.GetString("PAYPAL_MODE"),
		AdminSecret:        v.GetString("ADMIN_SECRET"),
		GoalCents:          domain.DollarsToCents(goal),
		BrandName:          v.GetString("BRAND_NAME"),
	}

	// Default the storage backend from what is configured: a DSN means
	// postgres, nothing means the in-memory ledger.
	if cfg.Storage == "" {
		if cfg.DBSource != "" {
			cfg.Storage = "postgres"
		} else {
			cfg.Storage = "memory"
		}
	}
	if cfg.Storage == "postgres" && cfg.DBSource == "" {
		return nil, fmt.Errorf("STORAGE=postgres requires DB_SOURCE to be set")
	}
	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return nil, fmt.Errorf("unknown STORAGE %q (want postgres or memory)", cfg.Storage)
	}

	return cfg, nil
}
