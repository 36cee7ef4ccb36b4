package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port                  string `koanf:"port"`
	AllowedOrigin         string `koanf:"allowed_origin"`
	DBDriver              string `koanf:"db_driver"`
	DatabaseURL           string `koanf:"database_url"`
	RedisAddr             string `koanf:"redis_addr"`
	RedisPassword         string `koanf:"redis_password"`
	RedisDB               int    `koanf:"redis_db"`
	CacheTTLSeconds       int    `koanf:"cache_ttl_seconds"`
	AuthSecret            string `koanf:"auth_secret"`
	AccessTokenTTLMinutes int    `koanf:"access_token_ttl_minutes"`
	SeedAdminPassword     string `koanf:"seed_admin_password"`
	SeedEmployeePassword  string `koanf:"seed_employee_password"`
	Timezone              string `koanf:"timezone"`
	MaxDiscount           string `koanf:"max_discount"`
	LoginRateLimit        int    `koanf:"login_rate_limit"`
	LogLevel              string `koanf:"log_level"`
	LogFormat             string `koanf:"log_format"`
}

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// envKeys lists the environment variables read by Load and their config key.
var envKeys = map[string]string{
	"PORT":                     "port",
	"ALLOWED_ORIGIN":           "allowed_origin",
	"DB_DRIVER":                "db_driver",
	"DATABASE_URL":             "database_url",
	"REDIS_ADDR":               "redis_addr",
	"REDIS_PASSWORD":           "redis_password",
	"REDIS_DB":                 "redis_db",
	"CACHE_TTL_SECONDS":        "cache_ttl_seconds",
	"AUTH_SECRET":              "auth_secret",
	"ACCESS_TOKEN_TTL_MINUTES": "access_token_ttl_minutes",
	"SEED_ADMIN_PASSWORD":      "seed_admin_password",
	"SEED_EMPLOYEE_PASSWORD":   "seed_employee_password",
	"BUSINESS_TIMEZONE":        "timezone",
	"MAX_DISCOUNT":             "max_discount",
	"LOGIN_RATE_LIMIT":         "login_rate_limit",
	"LOG_LEVEL":                "log_level",
	"LOG_FORMAT":               "log_format",
}

func defaults() Config {
	return Config{
		Port:                  "8080",
		AllowedOrigin:         "http://127.0.0.1:3000",
		DBDriver:              "sqlite",
		DatabaseURL:           "mrchooks.db",
		CacheTTLSeconds:       60,
		AccessTokenTTLMinutes: 480,
		Timezone:              "Asia/Manila",
		MaxDiscount:           "20",
		LoginRateLimit:        10,
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// Load layers struct defaults, an optional YAML file and the environment,
// in that order of precedence.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps a known environment variable to its config key. Unknown and
// empty variables map to "" and are skipped.
func envKey(name string) string {
	key, ok := envKeys[name]
	if !ok || os.Getenv(name) == "" {
		return ""
	}
	return key
}

func findConfigFile() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "sqlite3", "pgx", "postgres", "postgresql":
	default:
		errs = append(errs, fmt.Errorf("unsupported db_driver %q", c.DBDriver))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	if d, err := decimal.NewFromString(c.MaxDiscount); err != nil || d.IsNegative() {
		errs = append(errs, fmt.Errorf("max_discount must be a non-negative amount, got %q", c.MaxDiscount))
	}
	if c.CacheTTLSeconds < 1 {
		errs = append(errs, errors.New("cache_ttl_seconds must be positive"))
	}
	if c.AccessTokenTTLMinutes < 1 {
		errs = append(errs, errors.New("access_token_ttl_minutes must be positive"))
	}
	if c.LoginRateLimit < 1 {
		errs = append(errs, errors.New("login_rate_limit must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) MaxDiscountAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.MaxDiscount)
	if err != nil {
		return decimal.NewFromInt(20)
	}
	return d
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// AllowedOrigins splits the comma separated origin list.
func (c Config) AllowedOrigins() []string {
	parts := strings.Split(c.AllowedOrigin, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
