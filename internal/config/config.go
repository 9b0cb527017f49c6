// Package config loads server and provider settings from repomerge.yml
// with environment overlays for secrets.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	EnableMCP bool   `yaml:"enableMcp,omitempty"`
}

// GitHubConfig holds repository-host access settings.
type GitHubConfig struct {
	Token string `yaml:"token,omitempty"`
}

// StoreConfig selects and configures the job store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend,omitempty"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path,omitempty"`
}

// ProviderConfig holds one reasoning provider's settings.
type ProviderConfig struct {
	APIKey    string `yaml:"apiKey,omitempty"`
	Model     string `yaml:"model,omitempty"`
	BaseURL   string `yaml:"baseUrl,omitempty"`
	MaxTokens int    `yaml:"maxTokens,omitempty"`
}

// ProvidersConfig holds the provider selection and per-provider settings.
type ProvidersConfig struct {
	// Default names the provider used when a job does not pick one.
	Default   string         `yaml:"default,omitempty"`
	Anthropic ProviderConfig `yaml:"anthropic,omitempty"`
	OpenAI    ProviderConfig `yaml:"openai,omitempty"`
}

// MergeConfig tunes the merge pipeline.
type MergeConfig struct {
	// Concurrency bounds per-file provider calls within each phase.
	Concurrency int `yaml:"concurrency,omitempty"`
	// MaxFileBytes caps the size of files read from either side. Zero
	// keeps the source default of 1 MiB.
	MaxFileBytes int64 `yaml:"maxFileBytes,omitempty"`
}

// Config is the full configuration loaded from repomerge.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	GitHub    GitHubConfig    `yaml:"github,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Providers ProvidersConfig `yaml:"providers,omitempty"`
	Merge     MergeConfig     `yaml:"merge,omitempty"`
}

// Defaults applied for fields the file leaves unset.
const (
	DefaultAddr         = ":8080"
	DefaultStoreBackend = "memory"
	DefaultConcurrency  = 4
)

// Load reads repomerge.yml or repomerge.yaml from the given directory and
// overlays environment variables. Returns a usable default config (not an
// error) if no config file exists.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	for _, name := range []string{"repomerge.yml", "repomerge.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overlays secrets from the environment. Environment values win
// over file values so tokens never need to live on disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Merge.Concurrency <= 0 {
		c.Merge.Concurrency = DefaultConcurrency
	}
}

// Provider returns the named provider's settings. An empty name selects
// the configured default, falling back to anthropic.
func (c *Config) Provider(name string) (string, ProviderConfig) {
	if name == "" {
		name = c.Providers.Default
	}
	if name == "" {
		name = "anthropic"
	}
	switch name {
	case "openai":
		return name, c.Providers.OpenAI
	default:
		return name, c.Providers.Anthropic
	}
}
