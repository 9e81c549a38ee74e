// Package config loads the server configuration once at startup. Values come
// from the process environment (after .env.local is loaded), with defaults
// from struct tags, and an optional YAML file named by CONFIG_FILE overriding
// whatever it sets.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"3000" yaml:"port"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level"`

	// Storage selects the backend: "postgres" or "memory" (local demos only).
	Storage      string        `envconfig:"STORAGE" default:"postgres" yaml:"storage"`
	DatabaseURL  string        `envconfig:"DATABASE_URL" yaml:"database_url"`
	DBHost       string        `envconfig:"DB_HOST" default:"localhost" yaml:"db_host"`
	DBPort       int           `envconfig:"DB_PORT" default:"5432" yaml:"db_port"`
	DBUser       string        `envconfig:"DB_USER" default:"postgres" yaml:"db_user"`
	DBPassword   string        `envconfig:"DB_PASSWORD" yaml:"db_password"`
	DBName       string        `envconfig:"DB_NAME" default:"meal_tracker" yaml:"db_name"`
	DBSSLMode    string        `envconfig:"DB_SSLMODE" default:"disable" yaml:"db_sslmode"`
	DBSchema     string        `envconfig:"DB_SCHEMA" default:"public" yaml:"db_schema"`
	DBMaxConns   int           `envconfig:"DB_MAX_CONNS" default:"20" yaml:"db_max_conns"`
	DBConnMaxAge time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m" yaml:"db_conn_max_lifetime"`

	JWTSecret   string        `envconfig:"JWT_SECRET" yaml:"jwt_secret"`
	TokenExpiry time.Duration `envconfig:"TOKEN_EXPIRY" default:"1h" yaml:"token_expiry"`
	BcryptCost  int           `envconfig:"BCRYPT_COST" default:"10" yaml:"bcrypt_cost"`

	PasswordMinLength int    `envconfig:"PASSWORD_MIN_LENGTH" default:"8" yaml:"password_min_length"`
	PasswordSymbols   string `envconfig:"PASSWORD_SYMBOLS" default:"@$!%*#?&" yaml:"password_symbols"`

	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3001" yaml:"cors_origins"`
	RateLimitRPS   float64  `envconfig:"RATE_LIMIT_RPS" default:"5" yaml:"rate_limit_rps"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"10" yaml:"rate_limit_burst"`
	TrustProxy     bool     `envconfig:"TRUST_PROXY" default:"false" yaml:"trust_proxy"`
}

// Load reads .env.local (if present), the environment and CONFIG_FILE, then
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile copies every non-zero field of the YAML file onto c.
func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	dst := reflect.ValueOf(c).Elem()
	src := reflect.ValueOf(file)
	for i := 0; i < src.NumField(); i++ {
		if f := src.Field(i); !f.IsZero() {
			dst.Field(i).Set(f)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenExpiry <= 0 {
		errs = append(errs, errors.New("TOKEN_EXPIRY must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.PasswordMinLength < 1 {
		errs = append(errs, errors.New("PASSWORD_MIN_LENGTH must be at least 1"))
	}
	if c.PasswordSymbols == "" {
		errs = append(errs, errors.New("PASSWORD_SYMBOLS is empty"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

// DSN returns the Postgres connection string. DATABASE_URL wins over the
// discrete DB_* settings; a non-public DB_SCHEMA becomes the search_path.
func (c *Config) DSN() (string, error) {
	schema := c.DBSchema
	if schema == "public" {
		schema = ""
	}

	if c.DatabaseURL != "" {
		if schema == "" {
			return c.DatabaseURL, nil
		}
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	parts := []string{
		"host=" + quoteDSN(c.DBHost),
		fmt.Sprintf("port=%d", c.DBPort),
		"user=" + quoteDSN(c.DBUser),
		"password=" + quoteDSN(c.DBPassword),
		"dbname=" + quoteDSN(c.DBName),
		"sslmode=" + quoteDSN(c.DBSSLMode),
		"TimeZone=UTC",
	}
	if schema != "" {
		parts = append(parts, "search_path="+quoteDSN(schema))
	}
	return strings.Join(parts, " "), nil
}

// quoteDSN quotes a keyword/value connection string value.
func quoteDSN(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
