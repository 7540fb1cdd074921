package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storefront drivers
const (
	StorefrontWooCommerce = "woocommerce"
	StorefrontPostgres    = "postgres"
	StorefrontMemory      = "memory"
)

// Ledger transport modes
const (
	TransportAuto    = "auto"
	TransportPrimary = "primary"
	TransportBasic   = "basic"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Ledger      LedgerConfig
	Storefront  StorefrontConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Sync        SyncConfig
	API         APIConfig
	LogLevel    string
}

// LedgerConfig holds the ERP credential triple and transport settings.
// Empty credentials are not rejected here: the token manager reports them per run.
type LedgerConfig struct {
	BaseURL      string // LEDGER_API_URL, e.g. https://erp.example.com/api
	Username     string
	Password     string
	Transport    string // auto | primary | basic
	Timeout      time.Duration
	MaxRedirects int
}

// StorefrontConfig selects the catalog store the reconciler writes to
type StorefrontConfig struct {
	Driver      string // woocommerce | postgres | memory
	WooCommerce WooCommerceConfig
}

type WooCommerceConfig struct {
	URL            string // shop root, e.g. https://shop.example.com
	ConsumerKey    string
	ConsumerSecret string
	PageSize       int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig is optional; empty Addr means in-process token cache and run lock
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig is optional; no brokers means events are dropped
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SyncConfig struct {
	Interval          time.Duration // SYNC_INTERVAL, daily by default
	LockTTL           time.Duration
	TokenSafetyBuffer time.Duration
	RunOnStartup      bool
}

type APIConfig struct {
	AdminKeyHash string // bcrypt hash of the admin bearer key for /internal routes
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := getDuration("LEDGER_TIMEOUT", 45*time.Second)
	if err != nil {
		return nil, err
	}
	interval, err := getDuration("SYNC_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	lockTTL, err := getDuration("SYNC_LOCK_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	buffer, err := getDuration("LEDGER_TOKEN_SAFETY_BUFFER", 300*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "ledgersync"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Ledger: LedgerConfig{
			BaseURL:      strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("LEDGER_API_URL", "")), "/"),
			Username:     strings.TrimSpace(getEnvOrViper("LEDGER_USERNAME", "")),
			Password:     getEnvOrViper("LEDGER_PASSWORD", ""),
			Transport:    strings.ToLower(getEnvOrViper("LEDGER_TRANSPORT", TransportAuto)),
			Timeout:      timeout,
			MaxRedirects: getInt("LEDGER_MAX_REDIRECTS", 5),
		},
		Storefront: StorefrontConfig{
			Driver: strings.ToLower(getEnvOrViper("STOREFRONT_DRIVER", StorefrontWooCommerce)),
			WooCommerce: WooCommerceConfig{
				URL:            strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("WOOCOMMERCE_URL", "")), "/"),
				ConsumerKey:    strings.TrimSpace(getEnvOrViper("WOOCOMMERCE_CONSUMER_KEY", "")),
				ConsumerSecret: strings.TrimSpace(getEnvOrViper("WOOCOMMERCE_CONSUMER_SECRET", "")),
				PageSize:       getInt("WOOCOMMERCE_PAGE_SIZE", 100),
			},
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getEnvOrViper("REDIS_ADDR", "")),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnvOrViper("KAFKA_BROKERS", "")),
			Topic:   getEnvOrViper("KAFKA_TOPIC", "ledgersync-events"),
		},
		Sync: SyncConfig{
			Interval:          interval,
			LockTTL:           lockTTL,
			TokenSafetyBuffer: buffer,
			RunOnStartup:      getEnvOrViper("SYNC_RUN_ON_STARTUP", "true") == "true",
		},
		API: APIConfig{
			AdminKeyHash: strings.TrimSpace(getEnvOrViper("ADMIN_API_KEY_HASH", "")),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would make the process unusable.
// Ledger credentials are deliberately left to the token manager.
func (c *Config) Validate() error {
	switch c.Ledger.Transport {
	case TransportAuto, TransportPrimary, TransportBasic:
	default:
		return fmt.Errorf("LEDGER_TRANSPORT must be one of auto, primary, basic (got %q)", c.Ledger.Transport)
	}

	switch c.Storefront.Driver {
	case StorefrontWooCommerce:
		if c.Storefront.WooCommerce.URL == "" {
			return fmt.Errorf("WOOCOMMERCE_URL is required when STOREFRONT_DRIVER=woocommerce")
		}
		if c.Storefront.WooCommerce.ConsumerKey == "" || c.Storefront.WooCommerce.ConsumerSecret == "" {
			return fmt.Errorf("WOOCOMMERCE_CONSUMER_KEY and WOOCOMMERCE_CONSUMER_SECRET are required")
		}
	case StorefrontPostgres, StorefrontMemory:
	default:
		return fmt.Errorf("STOREFRONT_DRIVER must be one of woocommerce, postgres, memory (got %q)", c.Storefront.Driver)
	}

	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	return nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnvOrViper(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
