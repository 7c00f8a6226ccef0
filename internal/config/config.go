package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Storage types
const (
	StorageFile = "file"
	StorageDB   = "db"
)

// Config holds all configuration for the application
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	S3        S3Config        `yaml:"s3"`
	Events    EventsConfig    `yaml:"events"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Security  SecurityConfig  `yaml:"security"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig selects the storage backend
type StorageConfig struct {
	Type     string `yaml:"type"`
	FilePath string `yaml:"file_path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// S3Config places the file backend's graph in a bucket instead of on disk
type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// EventsConfig holds change-event delivery configuration
type EventsConfig struct {
	WebSocket    bool   `yaml:"websocket"`
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
}

// RateLimitConfig holds the Redis token bucket configuration
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	Capacity       int           `yaml:"capacity"`
	RefillTokens   int           `yaml:"refill_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	TTL            time.Duration `yaml:"ttl"`
	Prefix         string        `yaml:"prefix"`
}

// SecurityConfig holds password hashing configuration
type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Storage: StorageConfig{
			Type:     StorageFile,
			FilePath: "file.json",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			DBName:  "hbnb_dev_db",
			SSLMode: "disable",
		},
		S3: S3Config{
			Region: "us-east-1",
			Key:    "file.json",
		},
		Events: EventsConfig{
			WebSocket:    true,
			AMQPExchange: "hbnb.events",
		},
		RateLimit: RateLimitConfig{
			RedisAddr:      "localhost:6379",
			Capacity:       60,
			RefillTokens:   1,
			RefillInterval: time.Second,
			TTL:            10 * time.Minute,
			Prefix:         "rl",
		},
		Security: SecurityConfig{
			BcryptCost: bcrypt.DefaultCost,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file at
// path, an optional .env file, and HBNB_* environment variables, in that
// order of precedence (later wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "HBNB_ENV")
	setString(&c.Server.Host, "HBNB_API_HOST")
	setString(&c.Storage.FilePath, "HBNB_FILE_PATH")
	setString(&c.Database.Host, "HBNB_DB_HOST")
	setString(&c.Database.User, "HBNB_DB_USER")
	setString(&c.Database.Password, "HBNB_DB_PWD")
	setString(&c.Database.DBName, "HBNB_DB_NAME")
	setString(&c.Database.SSLMode, "HBNB_DB_SSLMODE")
	setString(&c.S3.Bucket, "HBNB_S3_BUCKET")
	setString(&c.S3.Region, "HBNB_S3_REGION")
	setString(&c.S3.Endpoint, "HBNB_S3_ENDPOINT")
	setString(&c.Events.AMQPURL, "HBNB_AMQP_URL")
	setString(&c.RateLimit.RedisAddr, "HBNB_REDIS_ADDR")
	setString(&c.Log.Level, "HBNB_LOG_LEVEL")

	if v, ok := lookup("HBNB_TYPE_STORAGE"); ok {
		// any value other than "db" keeps the file backend
		if strings.EqualFold(v, StorageDB) {
			c.Storage.Type = StorageDB
		} else {
			c.Storage.Type = StorageFile
		}
	}

	for key, dst := range map[string]*int{
		"HBNB_API_PORT":     &c.Server.Port,
		"HBNB_DB_PORT":      &c.Database.Port,
		"HBNB_BCRYPT_COST":  &c.Security.BcryptCost,
		"HBNB_RATE_LIMIT_N": &c.RateLimit.Capacity,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}

	if v, ok := lookup("HBNB_RATE_LIMIT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid bool for HBNB_RATE_LIMIT: %q", v)
		}
		c.RateLimit.Enabled = b
	}
	return nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Type {
	case StorageFile:
		if c.Storage.FilePath == "" && c.S3.Bucket == "" {
			return fmt.Errorf("file storage needs a file path or an s3 bucket")
		}
	case StorageDB:
		if c.Database.DBName == "" {
			return fmt.Errorf("db storage needs a database name")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.RateLimit.Enabled {
		rl := &c.RateLimit
		if rl.Capacity < 1 || rl.RefillTokens < 1 || rl.RefillInterval <= 0 {
			return fmt.Errorf("rate limit needs a positive capacity, refill tokens and refill interval")
		}
		// buckets must outlive a few refills or idle clients regain a full burst early
		if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
			rl.TTL = minTTL
		}
	}
	return nil
}

// IsTest reports whether the process runs in the test environment
func (c *Config) IsTest() bool {
	return c.Env == "test"
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL keyword/value connection string. Empty
// settings are left out so the driver falls back to its own defaults.
func (c *DatabaseConfig) DSN() string {
	pairs := []struct{ key, value string }{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.DBName},
		{"sslmode", c.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteDSN(p.value))
	}
	return strings.Join(parts, " ")
}

// quoteDSN single-quotes v, escaping backslashes and quotes
func quoteDSN(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid int for %s: %q", key, v)
	}
	*dst = n
	return nil
}
