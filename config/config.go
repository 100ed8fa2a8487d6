// Package config loads per-concern configuration. Values come from an
// optional config.yaml, a .env file, and the process environment, in that
// order of precedence (environment wins).
package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig holds the application-wide settings.
type AppConfig struct {
	ServerAddr string `yaml:"serverAddr"`
	DataDir    string `yaml:"dataDir"`
	LogLevel   string `yaml:"logLevel"`

	// YearAwareMonths switches the reshape to YYYY-MM buckets instead of
	// the default 1-12 month-of-year buckets.
	YearAwareMonths bool `yaml:"yearAwareMonths"`
}

// GetAppConfig returns the application configuration.
func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadDotEnv()

		appConfig = &AppConfig{
			ServerAddr: ":8080",
			DataDir:    "./data",
			LogLevel:   "info",
		}
		loadYAML(appConfig)

		if v := os.Getenv("SERVER_ADDR"); v != "" {
			appConfig.ServerAddr = v
		}
		if v := os.Getenv("DATA_DIR"); v != "" {
			appConfig.DataDir = v
		}
		if v := os.Getenv("LOG_LEVEL"); v != "" {
			appConfig.LogLevel = v
		}
		if v := os.Getenv("YEAR_AWARE_MONTHS"); v != "" {
			appConfig.YearAwareMonths = boolEnv("YEAR_AWARE_MONTHS", false)
		}
	})
	return appConfig
}

var dotEnvOnce sync.Once

func loadDotEnv() {
	dotEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}
	})
}

// loadYAML overlays config.yaml (or $CONFIG_FILE) onto dst if present.
func loadYAML(dst interface{}) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		log.Printf("Warning: can't parse %s: %v", path, err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a boolean, using %v", key, v, fallback)
		return fallback
	}
	return b
}
