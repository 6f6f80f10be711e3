package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config menampung semua konfigurasi service.
// Urutan sumber: default -> file YAML (opsional) -> environment (.env ikut dimuat).
type Config struct {
	Port     string   `yaml:"port"`
	GinMode  string   `yaml:"gin_mode"`
	LogLevel string   `yaml:"log_level"`
	LogFmt   string   `yaml:"log_format"`
	DB       Database `yaml:"database"`
	JWT      JWT      `yaml:"jwt"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`

	CORSOrigins           []string      `yaml:"cors_origins"`
	ChangeMonitorInterval time.Duration `yaml:"change_monitor_interval"`
	JoinRatePerMinute     int           `yaml:"join_rate_per_minute"`

	Defaults ShopDefaults `yaml:"shop_defaults"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type JWT struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type RabbitMQ struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// ShopDefaults dipakai jika toko belum punya baris shop_settings.
type ShopDefaults struct {
	Currency           string  `yaml:"currency"`
	TaxRate            float64 `yaml:"tax_rate"`
	TaxIncludedInPrice bool    `yaml:"tax_included_in_price"`
	ServiceChargeRate  float64 `yaml:"service_charge_rate"`
	EnableOtp          bool    `yaml:"enable_otp"`
	IsPhoneMandatory   bool    `yaml:"is_phone_mandatory"`
	MaxItemQuantity    int     `yaml:"max_item_quantity"`
}

func Default() *Config {
	return &Config{
		Port:    "8080",
		GinMode: "debug",
		DB: Database{
			Driver: "sqlite",
			DSN:    "foodcafe.db",
		},
		JWT: JWT{
			TTL: 24 * time.Hour,
		},
		RabbitMQ: RabbitMQ{
			Exchange: "foodcafe_changes",
		},
		CORSOrigins:           []string{"http://127.0.0.1:5500", "http://localhost:3000"},
		ChangeMonitorInterval: 500 * time.Millisecond,
		JoinRatePerMinute:     20,
		Defaults: ShopDefaults{
			Currency:        "INR",
			TaxRate:         5,
			EnableOtp:       true,
			MaxItemQuantity: 20,
		},
	}
}

// Load membaca .env, file YAML lalu environment.
func Load() (*Config, error) {
	// .env boleh tidak ada
	_ = godotenv.Load()

	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFmt = getEnv("LOG_FORMAT", c.LogFmt)
	c.DB.Driver = getEnv("DB_DRIVER", c.DB.Driver)
	c.DB.DSN = getEnv("DB_DSN", c.DB.DSN)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.RabbitMQ.Exchange = getEnv("RABBITMQ_EXCHANGE", c.RabbitMQ.Exchange)
	c.Defaults.Currency = getEnv("DEFAULT_CURRENCY", c.Defaults.Currency)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}

	var err error
	if c.JWT.TTL, err = durationEnv("JWT_TTL", c.JWT.TTL); err != nil {
		return err
	}
	if c.ChangeMonitorInterval, err = durationEnv("CHANGE_MONITOR_INTERVAL", c.ChangeMonitorInterval); err != nil {
		return err
	}
	if c.JoinRatePerMinute, err = intEnv("JOIN_RATE_PER_MINUTE", c.JoinRatePerMinute); err != nil {
		return err
	}
	if c.Defaults.MaxItemQuantity, err = intEnv("DEFAULT_MAX_ITEM_QUANTITY", c.Defaults.MaxItemQuantity); err != nil {
		return err
	}
	if c.Defaults.TaxRate, err = floatEnv("DEFAULT_TAX_RATE", c.Defaults.TaxRate); err != nil {
		return err
	}
	if c.Defaults.ServiceChargeRate, err = floatEnv("DEFAULT_SERVICE_CHARGE_RATE", c.Defaults.ServiceChargeRate); err != nil {
		return err
	}
	if c.Defaults.TaxIncludedInPrice, err = boolEnv("DEFAULT_TAX_INCLUDED", c.Defaults.TaxIncludedInPrice); err != nil {
		return err
	}
	if c.Defaults.EnableOtp, err = boolEnv("DEFAULT_ENABLE_OTP", c.Defaults.EnableOtp); err != nil {
		return err
	}
	if c.Defaults.IsPhoneMandatory, err = boolEnv("DEFAULT_PHONE_MANDATORY", c.Defaults.IsPhoneMandatory); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("DB_DSN is not set")
	}
	if c.GinMode == "release" && c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	if c.Defaults.TaxRate < 0 || c.Defaults.TaxRate > 100 {
		return fmt.Errorf("DEFAULT_TAX_RATE out of range: %v", c.Defaults.TaxRate)
	}
	if c.Defaults.MaxItemQuantity < 1 {
		return errors.New("DEFAULT_MAX_ITEM_QUANTITY must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
