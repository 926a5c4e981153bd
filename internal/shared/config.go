package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Export   ExportConfig   `toml:"export"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	BaseURL        string   `toml:"base_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimit      float64  `toml:"rate_limit"`
	Burst          int      `toml:"burst"`
}

// Addr joins host and port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig describes the hosted OAuth2/OIDC identity provider.
type AuthConfig struct {
	Provider     string   `toml:"provider"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	AuthURL      string   `toml:"auth_url"`
	TokenURL     string   `toml:"token_url"`
	UserInfoURL  string   `toml:"userinfo_url"`
	RedirectURL  string   `toml:"redirect_url"`
	Scopes       []string `toml:"scopes"`
	SessionTTL   string   `toml:"session_ttl"`
}

// TTL parses SessionTTL, falling back to 30 days.
func (a AuthConfig) TTL() time.Duration {
	d, err := time.ParseDuration(a.SessionTTL)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

// Enabled reports whether enough of the provider is configured to run the login flow.
func (a AuthConfig) Enabled() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.AuthURL != "" && a.TokenURL != ""
}

// ExportConfig tunes file exports and the bulk export worker pool.
type ExportConfig struct {
	OutputDir string  `toml:"output_dir"`
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LogConfig sets the logger level.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads the given dotenv files into the process environment.
//
// Missing files are ignored, already-set variables win.
func LoadEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides config values from CANTUS_* environment variables.
func ApplyEnv(c *Config) {
	if v := os.Getenv("CANTUS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CANTUS_AUTH_CLIENT_ID"); v != "" {
		c.Auth.ClientID = v
	}
	if v := os.Getenv("CANTUS_AUTH_CLIENT_SECRET"); v != "" {
		c.Auth.ClientSecret = v
	}
	if v := os.Getenv("CANTUS_BASE_URL"); v != "" {
		c.Server.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := os.Getenv("CANTUS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
