// Package config loads client configuration from the environment and from a
// per-instance token file.
//
// Static settings (instance, consumer key) come from environment variables,
// optionally via a .env file. OAuth tokens are persisted to a YAML file under
// the user config directory so a refreshed access token survives across
// processes. Environment values take precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProductionFilename = "production.yaml"
	SandboxFilename    = "sandbox.yaml"

	// DefaultAPIVersion is the REST API version used when none is configured.
	DefaultAPIVersion = "53.0"
)

type Config struct {
	Instance     string `yaml:"instance"`
	Domain       string `yaml:"domain"`
	ClientID     string `yaml:"client_id"`
	APIVersion   string `yaml:"api_version"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`

	// path is the file Save writes to. Empty means the config is not bound
	// to a file and Save will refuse to persist.
	path string
}

// UserPath returns the per-user config directory for sftools.
func UserPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sftools")
}

// Production loads the default production config file.
func Production() (*Config, error) {
	return Load(filepath.Join(UserPath(), ProductionFilename))
}

// Sandbox loads the default sandbox config file.
func Sandbox() (*Config, error) {
	return Load(filepath.Join(UserPath(), SandboxFilename))
}

// Load reads the config file at path (if it exists), overlays environment
// variables, and validates the result. An empty path yields an environment
// only config that Save refuses to persist.
func Load(path string) (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{path: path}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	overlay := map[string]*string{
		"SFTOOLS_INSTANCE":      &cfg.Instance,
		"SFTOOLS_DOMAIN":        &cfg.Domain,
		"SFTOOLS_CLIENT_ID":     &cfg.ClientID,
		"SFTOOLS_API_VERSION":   &cfg.APIVersion,
		"SFTOOLS_ACCESS_TOKEN":  &cfg.AccessToken,
		"SFTOOLS_REFRESH_TOKEN": &cfg.RefreshToken,
	}
	for key, dst := range overlay {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if cfg.Domain == "" {
		cfg.Domain = "login"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Instance == "" {
		return fmt.Errorf("SFTOOLS_INSTANCE is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("SFTOOLS_CLIENT_ID is required")
	}
	return nil
}

// Path returns the file this config is bound to, or "" when unbound.
func (c *Config) Path() string {
	return c.path
}

// InstanceURL returns the base URL of the configured instance. Instance is
// normally a bare hostname; a value carrying an explicit scheme is used
// as-is.
func (c *Config) InstanceURL() string {
	if strings.Contains(c.Instance, "://") {
		return c.Instance
	}
	return fmt.Sprintf("https://%s", c.Instance)
}

// TokenURL returns the OAuth token endpoint of the configured instance.
func (c *Config) TokenURL() string {
	return fmt.Sprintf("%s/services/oauth2/token", c.InstanceURL())
}

// SetTokens updates the in-memory token values. Use Save to persist them.
func (c *Config) SetTokens(accessToken, refreshToken string) {
	if accessToken != "" {
		c.AccessToken = accessToken
	}
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
}

// Save writes the config back to its file, creating the directory as needed.
// Configs not bound to a file refuse to save; callers decide whether that is
// fatal.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config is not bound to a file, refusing to save")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Token file: keep it readable by the owner only
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", c.path, err)
	}

	return nil
}
