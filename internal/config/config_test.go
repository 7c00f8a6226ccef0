package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HBNB_TYPE_STORAGE", "")

	cfg, err := Load("missing.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:5000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr())
	}
	if cfg.Storage.Type != StorageFile || cfg.Storage.FilePath != "file.json" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.IsTest() {
		t.Fatalf("default env should not be test")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 8080
storage:
  type: db
database:
  host: pg
  user: hbnb
  dbname: hbnb_prod
rate_limit:
  enabled: true
  capacity: 5
  refill_interval: 2s
  ttl: 1s
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HBNB_API_PORT", "9090")
	t.Setenv("HBNB_DB_PWD", "secret")
	t.Setenv("HBNB_ENV", "test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("env should override yaml port, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != StorageDB {
		t.Fatalf("expected db storage")
	}
	want := "host='pg' port='5432' user='hbnb' password='secret' dbname='hbnb_prod' sslmode='disable'"
	if got := cfg.Database.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	if !cfg.IsTest() {
		t.Fatalf("expected test env")
	}
	if cfg.RateLimit.TTL != 10*time.Second {
		t.Fatalf("ttl should be raised to five refill intervals, got %v", cfg.RateLimit.TTL)
	}
}

func TestDSN(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*DatabaseConfig)
		want   string
	}{
		{
			"empty credentials are left out",
			func(d *DatabaseConfig) {},
			"host='localhost' port='5432' dbname='hbnb_dev_db' sslmode='disable'",
		},
		{
			"empty password keeps dbname",
			func(d *DatabaseConfig) { d.User = "hbnb" },
			"host='localhost' port='5432' user='hbnb' dbname='hbnb_dev_db' sslmode='disable'",
		},
		{
			"quotes and spaces are escaped",
			func(d *DatabaseConfig) { d.User = "hbnb"; d.Password = `it's a \ secret` },
			`host='localhost' port='5432' user='hbnb' password='it\'s a \\ secret' dbname='hbnb_dev_db' sslmode='disable'`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg.Database)
			if got := cfg.Database.DSN(); got != tc.want {
				t.Fatalf("DSN = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HBNB_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set
	t.Setenv("HBNB_LOG_LEVEL", "")
	os.Unsetenv("HBNB_LOG_LEVEL")
	t.Cleanup(func() { os.Unsetenv("HBNB_LOG_LEVEL") })

	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected level from .env, got %q", cfg.Log.Level)
	}
}

func TestLoad_StorageTypeFallsBackToFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HBNB_TYPE_STORAGE", "mongo")

	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Type != StorageFile {
		t.Fatalf("expected file storage, got %q", cfg.Storage.Type)
	}
}

func TestLoad_InvalidInt(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HBNB_API_PORT", "abc")

	if _, err := Load("config.yaml"); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"storage type", func(c *Config) { c.Storage.Type = "mongo" }},
		{"no file target", func(c *Config) { c.Storage.FilePath = "" }},
		{"db name", func(c *Config) { c.Storage.Type = StorageDB; c.Database.DBName = "" }},
		{"bcrypt", func(c *Config) { c.Security.BcryptCost = 100 }},
		{"rate limit", func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.Capacity = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
