package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./cantus.db" {
			t.Errorf("expected database path ./cantus.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Export.Workers != 4 {
			t.Errorf("expected 4 export workers, got %d", config.Export.Workers)
		}

		if config.Auth.TTL() != 720*time.Hour {
			t.Errorf("expected session ttl 720h, got %s", config.Auth.TTL())
		}

		if config.Auth.Enabled() {
			t.Error("auth should be disabled without a client secret")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[auth]
session_ttl = "not a duration"

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Export.OutputDir != "./exports" {
			t.Errorf("unset sections should keep defaults, got output dir %q", config.Export.OutputDir)
		}
		if config.Auth.TTL() != 30*24*time.Hour {
			t.Errorf("invalid ttl should fall back to 30 days, got %s", config.Auth.TTL())
		}
		if ParseLogLevel(config.Log.Level).String() != "debug" {
			t.Errorf("expected debug level, got %s", config.Log.Level)
		}
	})

	t.Run("LoadConfig rejects malformed toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath = 1"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("CANTUS_DB_PATH", "/tmp/env.db")
		t.Setenv("CANTUS_AUTH_CLIENT_SECRET", "s3cret")
		t.Setenv("CANTUS_BASE_URL", "https://choir.example.org/")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected env db path, got %s", config.Database.Path)
		}
		if config.Auth.ClientSecret != "s3cret" {
			t.Errorf("expected env client secret, got %q", config.Auth.ClientSecret)
		}
		if config.Server.BaseURL != "https://choir.example.org" {
			t.Errorf("expected trimmed base url, got %s", config.Server.BaseURL)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("CANTUS_TEST_LOADENV=from-file\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("CANTUS_TEST_LOADENV", "")
		os.Unsetenv("CANTUS_TEST_LOADENV")

		LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env"))

		if got := os.Getenv("CANTUS_TEST_LOADENV"); got != "from-file" {
			t.Errorf("expected value from env file, got %q", got)
		}
	})
}
