package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"bahikhata/backend/internal/logger"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ReportCacheTTLSeconds int
	DefaultBundleRate     decimal.Decimal
	ImportMaxRows         int
	Timezone              string
	Log                   logger.LogConfig
}

// Load reads settings from the environment, optionally layered over a YAML
// file named by CONFIG_FILE. Keys in the file use the env names in lower
// case (port, database_url, ...).
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	ttl := v.GetInt("REPORT_CACHE_TTL_SECONDS")
	if ttl < 1 {
		ttl = 300
	}

	bundleRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("DEFAULT_BUNDLE_RATE")))
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_BUNDLE_RATE: %w", err)
	}

	return Config{
		Port:                  v.GetString("PORT"),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:           strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisAddr:             strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		ReportCacheTTLSeconds: ttl,
		DefaultBundleRate:     bundleRate,
		ImportMaxRows:         v.GetInt("IMPORT_MAX_ROWS"),
		Timezone:              v.GetString("TIMEZONE"),
		Log: logger.LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			TimeFormat: time.RFC3339,
			Output:     v.GetString("LOG_OUTPUT"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REPORT_CACHE_TTL_SECONDS", 300)
	v.SetDefault("DEFAULT_BUNDLE_RATE", "0")
	v.SetDefault("IMPORT_MAX_ROWS", 5000)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("CONFIG_FILE", "")
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

// Location resolves Timezone; weekly windows are computed in it.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
