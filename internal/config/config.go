package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret signs tokens of the local CLI when JWT_SECRET is unset.
// The server refuses to start with it.
const DefaultJWTSecret = "change-me"

type Config struct {
	Port string `yaml:"port"`

	// SQL configuration. DBDriver is "sqlite3" or "mysql".
	DBDriver     string `yaml:"db_driver"`
	DatabasePath string `yaml:"database_path"`
	DBUser       string `yaml:"db_user"`
	DBPassword   string `yaml:"db_password"`
	DBHost       string `yaml:"db_host"`
	DBName       string `yaml:"db_name"`

	// Document store backend: "sql" or "mongo"
	StoreBackend string `yaml:"store_backend"`
	MongoURI     string `yaml:"mongodb_uri"`
	MongoDB      string `yaml:"mongodb_database"`

	// Change notifications cross processes through Redis when set. Without
	// Redis, subscriptions poll the store every PollInterval.
	RedisURL     string        `yaml:"redis_url"`
	PollInterval time.Duration `yaml:"poll_interval"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	OpenAIKey string `yaml:"openai_key"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	SessionFile string `yaml:"session_file"`
}

func defaults() *Config {
	sessionFile := ".notespark-session"
	if home, err := os.UserHomeDir(); err == nil {
		sessionFile = filepath.Join(home, ".notespark", "session")
	}
	return &Config{
		Port:         "8080",
		DBDriver:     "sqlite3",
		DatabasePath: "notespark.db",
		DBHost:       "localhost:3306",
		DBName:       "notespark",
		StoreBackend: "sql",
		MongoURI:     "mongodb://localhost:27017",
		MongoDB:      "notespark",
		JWTSecret:    DefaultJWTSecret,
		TokenTTL:     72 * time.Hour,
		PollInterval: time.Second,
		LogLevel:     "info",
		LogFormat:    "console",
		SessionFile:  sessionFile,
	}
}

// LoadConfig reads the optional YAML file at path, then .env, then the
// environment. Later sources win.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	setString(&cfg.Port, "PORT")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.StoreBackend, "STORE_BACKEND")
	setString(&cfg.MongoURI, "MONGODB_URI")
	setString(&cfg.MongoDB, "MONGODB_DATABASE")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.OpenAIKey, "OPENAI_KEY")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.SessionFile, "SESSION_FILE")

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			// a bare integer is read as hours
			hours, convErr := strconv.Atoi(v)
			if convErr != nil {
				return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
			}
			ttl = time.Duration(hours) * time.Hour
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", v, err)
		}
		cfg.PollInterval = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StoreBackend {
	case "sql", "mongo":
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

// ValidateServer rejects settings that are only acceptable for local use.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a private value")
	}
	return nil
}

// DSN returns the data source name for the configured SQL driver.
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&clientFoundRows=true", c.DBUser, c.DBPassword, c.DBHost, c.DBName)
	}
	return c.DatabasePath
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
