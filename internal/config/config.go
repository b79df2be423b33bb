// Package config loads service configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Billing       BillingConfig       `mapstructure:"billing"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BillingConfig carries the company-wide rate book defaults and run tuning.
// A zero default means "not configured at the company level"; customers and
// departments may still override.
type BillingConfig struct {
	Currency                string        `mapstructure:"currency"`
	DefaultStorageRateCents int64         `mapstructure:"default_storage_rate_cents"`
	DefaultMinimumFeeCents  int64         `mapstructure:"default_minimum_fee_cents"`
	StandardBoxLength       float64       `mapstructure:"standard_box_length"`
	StandardBoxWidth        float64       `mapstructure:"standard_box_width"`
	StandardBoxHeight       float64       `mapstructure:"standard_box_height"`
	StandardBoxRateCents    int64         `mapstructure:"standard_box_rate_cents"`
	Workers                 int           `mapstructure:"workers"`
	RunTimeout              time.Duration `mapstructure:"run_timeout"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Spec is a cron expression; default fires on the 1st of each month.
	Spec    string        `mapstructure:"spec"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

func Load() (Config, error) {
	// Missing .env is fine; env vars may come from the host.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("recordbay")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/recordbay")

	v.SetEnvPrefix("RECORDBAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "recordbay.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("billing.currency", "USD")
	v.SetDefault("billing.default_storage_rate_cents", 0)
	v.SetDefault("billing.default_minimum_fee_cents", 0)
	v.SetDefault("billing.standard_box_length", 15)
	v.SetDefault("billing.standard_box_width", 12)
	v.SetDefault("billing.standard_box_height", 10)
	v.SetDefault("billing.standard_box_rate_cents", 600)
	v.SetDefault("billing.workers", 8)
	v.SetDefault("billing.run_timeout", 5*time.Minute)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.spec", "0 2 1 * *")
	v.SetDefault("scheduler.lock_ttl", 30*time.Minute)

	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.service_name", "recordbay")
}
