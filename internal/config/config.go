package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port    string
	DBPath  string
	Workers int

	ProviderURL     string
	Mock            bool
	AutofillGaps    bool
	Hourly          bool
	RefreshInterval time.Duration
	SettingsFile    string
	Countervalue    string
}

func Load() Config {
	return Config{
		Port:    getEnv("PORT", "8080"),
		DBPath:  getEnv("DB_PATH", "countervalues.db"),
		Workers: getEnvInt("WORKERS", 5),

		ProviderURL:     getEnv("PROVIDER_URL", "https://countervalues.live.ledger.com"),
		Mock:            getEnvBool("MOCK", false),
		AutofillGaps:    getEnvBool("AUTOFILL_GAPS", true),
		Hourly:          getEnvBool("EXPERIMENTAL_PORTFOLIO_RANGE", false),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		SettingsFile:    getEnv("SETTINGS_FILE", ""),
		Countervalue:    getEnv("COUNTERVALUE", "USD"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
