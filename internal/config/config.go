package config

import (
	"errors"  // Validation errors
	"fmt"     // String formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // String manipulation
	"time"    // Durations

	"github.com/joho/godotenv" // For loading .env files
	"gopkg.in/yaml.v3"         // For the optional config file
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// MinBcryptCost is the lowest bcrypt cost the server accepts
const MinBcryptCost = 4

// Config holds the application configuration
type Config struct {
	AppPort          string   `yaml:"app_port"`           // Application port
	DBDriver         string   `yaml:"db_driver"`          // postgres, mysql or sqlite
	DBUser           string   `yaml:"db_user"`            // Database user
	DBPassword       string   `yaml:"db_password"`        // Database password
	DBHost           string   `yaml:"db_host"`            // Database host
	DBPort           string   `yaml:"db_port"`            // Database port
	DBName           string   `yaml:"db_name"`            // Database name
	DBSSLMode        string   `yaml:"db_sslmode"`         // Postgres sslmode
	DBPath           string   `yaml:"db_path"`            // SQLite file path
	JWTSecret        string   `yaml:"jwt_secret"`         // JWT secret key
	JWTExpiresIn     string   `yaml:"jwt_expires_in"`     // Token lifetime, e.g. 7d or 12h
	BcryptCost       int      `yaml:"bcrypt_cost"`        // Bcrypt cost factor
	RedisAddr        string   `yaml:"redis_addr"`         // Redis server address, empty disables throttling
	RedisPass        string   `yaml:"redis_pass"`         // Redis password
	RedisDB          int      `yaml:"redis_db"`           // Redis database number
	LoginMaxAttempts int      `yaml:"login_max_attempts"` // Failed logins allowed per window
	LoginWindow      string   `yaml:"login_window"`       // Failed login window, e.g. 15m
	CORSOrigins      []string `yaml:"cors_origins"`       // Allowed CORS origins
	LogLevel         string   `yaml:"log_level"`          // Logrus level
	IsProd           bool     `yaml:"is_prod"`            // Is production environment
	WebDir           string   `yaml:"web_dir"`            // Built SPA directory, empty disables static serving
	AutoMigrate      bool     `yaml:"auto_migrate"`       // Run schema migrations when the server starts

	TokenTTL          time.Duration `yaml:"-"` // Parsed JWTExpiresIn
	LoginWindowPeriod time.Duration `yaml:"-"` // Parsed LoginWindow
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		AppPort:          "3000",
		DBDriver:         DriverPostgres,
		DBHost:           "localhost",
		DBPort:           "5432",
		DBName:           "room_rental",
		DBSSLMode:        "disable",
		DBPath:           "room_rental.db",
		JWTExpiresIn:     "7d",
		BcryptCost:       10,
		LoginMaxAttempts: 5,
		LoginWindow:      "15m",
		CORSOrigins:      []string{"http://localhost:5173"},
		LogLevel:         "info",
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file and environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := Default()
	// CONFIG_FILE points at an optional YAML overlay
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv() // Environment always wins
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a YAML file on top of the current values
func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields with the environment variables that are set
func (c *Config) applyEnv() {
	setString(&c.AppPort, "APP_PORT")
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBPort, "DB_PORT")
	setString(&c.DBName, "DB_NAME")
	setString(&c.DBSSLMode, "DB_SSLMODE")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.JWTExpiresIn, "JWT_EXPIRES_IN")
	setInt(&c.BcryptCost, "BCRYPT_ROUNDS")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPass, "REDIS_PASS")
	setInt(&c.RedisDB, "REDIS_DB")
	setInt(&c.LoginMaxAttempts, "LOGIN_MAX_ATTEMPTS")
	setString(&c.LoginWindow, "LOGIN_WINDOW")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.WebDir, "WEB_DIR")
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	setBool(&c.IsProd, "IS_PROD")
	setBool(&c.AutoMigrate, "AUTO_MIGRATE")
}

// Validate checks required values and parses durations
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.BcryptCost < MinBcryptCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be at least %d, got %d", MinBcryptCost, c.BcryptCost))
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	ttl, err := ParseDuration(c.JWTExpiresIn)
	if err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("invalid JWT_EXPIRES_IN %q", c.JWTExpiresIn))
	}
	c.TokenTTL = ttl
	window, err := ParseDuration(c.LoginWindow)
	if err != nil || window <= 0 {
		errs = append(errs, fmt.Errorf("invalid LOGIN_WINDOW %q", c.LoginWindow))
	}
	c.LoginWindowPeriod = window
	if c.LoginMaxAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=true&loc=UTC"
	case DriverSQLite:
		if strings.Contains(c.DBPath, "?") {
			return c.DBPath
		}
		return "file:" + c.DBPath + "?_foreign_keys=on"
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	}
}

// ParseDuration accepts Go durations plus a day suffix ("7d")
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v == "true"
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
