package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viant/agentrt/internal/apperr"
)

// RuntimeConfig is the ambient process configuration read from a YAML file
// at startup: log level, background worker cadence and the shared HTTP
// connection pool size (§5's max_conns_per_host, default 64).
type RuntimeConfig struct {
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`

	MaxConnsPerHost int `yaml:"maxConnsPerHost,omitempty" json:"maxConnsPerHost,omitempty"`

	RefreshWorker struct {
		Spec       string        `yaml:"spec,omitempty" json:"spec,omitempty"`
		Window     time.Duration `yaml:"window,omitempty" json:"window,omitempty"`
		MaxRetries int           `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
		RetryDelay time.Duration `yaml:"retryDelay,omitempty" json:"retryDelay,omitempty"`
	} `yaml:"refreshWorker,omitempty" json:"refreshWorker,omitempty"`

	MCPSettingsPath string        `yaml:"mcpSettingsPath,omitempty" json:"mcpSettingsPath,omitempty"`
	WatchDebounce   time.Duration `yaml:"watchDebounce,omitempty" json:"watchDebounce,omitempty"`

	CredentialDir string `yaml:"credentialDir,omitempty" json:"credentialDir,omitempty"`
}

func (c *RuntimeConfig) withDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = 64
	}
	if c.MCPSettingsPath == "" {
		c.MCPSettingsPath = "mcp_settings.json"
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 500 * time.Millisecond
	}
	if c.CredentialDir == "" {
		c.CredentialDir = "credentials"
	}
}

// LoadRuntimeConfig reads and parses a YAML runtime config at path, applying
// defaults for anything left unset. A missing file yields an all-defaults
// config rather than an error.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.withDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageError, "read %q: %v", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "parse %q: %v", path, err)
	}
	cfg.withDefaults()
	return cfg, nil
}
