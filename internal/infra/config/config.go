package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"agentteam/internal/adapter/llm"
)

// Config is the top-level application configuration.
type Config struct {
	Team   TeamConfig   `yaml:"team"`
	LLM    LLMConfig    `yaml:"llm"`
	Store  StoreConfig  `yaml:"store"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// TeamConfig holds roster-level settings.
type TeamConfig struct {
	Name string `yaml:"name"`
	// Seed installs a small demo roster on first run against an empty store.
	Seed bool `yaml:"seed"`
}

// LLMConfig holds the global provider settings plus named profiles. The
// global fields act as the fallback; a selected profile overrides them
// field-by-field.
type LLMConfig struct {
	DefaultProfile string  `yaml:"default_profile"`
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`

	ConnTimeout time.Duration             `yaml:"conn_timeout"`
	RespTimeout time.Duration             `yaml:"resp_timeout"`
	Pool        llm.PooledTransportConfig `yaml:"pool"`
	Breaker     BreakerConfig             `yaml:"breaker"`

	Profiles []ProfileConfig `yaml:"profiles"`
}

// ProfileConfig is one named saved provider configuration.
type ProfileConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// BreakerConfig enables the optional circuit breaker around the adapter.
type BreakerConfig struct {
	Enabled                  bool `yaml:"enabled"`
	llm.CircuitBreakerConfig `yaml:",inline"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// defaultDataDir returns the persistent data directory under
// $HOME/.agentteam/data. Falls back to "./data" if $HOME cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".agentteam", "data")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Team: TeamConfig{
			Name: "Agent Team",
			Seed: true,
		},
		LLM: LLMConfig{
			Provider:  string(llm.ProviderOpenAI),
			Model:     "gpt-4o-mini",
			MaxTokens: 2048,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataDir(), "agentteam.db"),
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and validates.
// A missing file is not an error; defaults plus env vars apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps AGENTTEAM_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENTTEAM_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("AGENTTEAM_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("AGENTTEAM_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AGENTTEAM_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("AGENTTEAM_LLM_DEFAULT_PROFILE"); v != "" {
		cfg.LLM.DefaultProfile = v
	}
	if v := os.Getenv("AGENTTEAM_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLM.MaxTokens = n
		}
	}
	if v := os.Getenv("AGENTTEAM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("AGENTTEAM_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("AGENTTEAM_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("AGENTTEAM_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("AGENTTEAM_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("AGENTTEAM_TEAM_SEED"); v == "false" {
		cfg.Team.Seed = false
	}
}

// Validate checks the configuration for consistency. Provider names are
// validated here so bad config fails at startup rather than on first call.
func Validate(cfg *Config) error {
	if cfg.LLM.Provider != "" {
		if _, err := llm.ParseProvider(cfg.LLM.Provider); err != nil {
			return fmt.Errorf("llm.provider: %w", err)
		}
	}

	seen := make(map[string]bool, len(cfg.LLM.Profiles))
	for _, p := range cfg.LLM.Profiles {
		if p.Name == "" {
			return fmt.Errorf("llm.profiles: profile without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("llm.profiles: duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
		if p.Provider != "" {
			if _, err := llm.ParseProvider(p.Provider); err != nil {
				return fmt.Errorf("llm.profiles[%s].provider: %w", p.Name, err)
			}
		}
	}
	if cfg.LLM.DefaultProfile != "" && !seen[cfg.LLM.DefaultProfile] {
		return fmt.Errorf("llm.default_profile: profile %q not defined", cfg.LLM.DefaultProfile)
	}

	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		return fmt.Errorf("tracer.exporter: unknown exporter %q", cfg.Tracer.Exporter)
	}
	return nil
}

// Effective resolves the provider configuration for one call. A named
// profile overrides the global settings field-by-field; with an empty name
// (or the default profile) only the selected profile and the global
// fallback are consulted, never a second profile.
func (c *LLMConfig) Effective(profileName string) (llm.Config, error) {
	cfg := llm.Config{
		APIKey:  c.APIKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
	}
	if c.Provider != "" {
		p, err := llm.ParseProvider(c.Provider)
		if err != nil {
			return llm.Config{}, err
		}
		cfg.Provider = p
	}

	if profileName == "" {
		profileName = c.DefaultProfile
	}
	if profileName == "" {
		return cfg, nil
	}

	for _, prof := range c.Profiles {
		if prof.Name != profileName {
			continue
		}
		if prof.Provider != "" {
			p, err := llm.ParseProvider(prof.Provider)
			if err != nil {
				return llm.Config{}, err
			}
			cfg.Provider = p
		}
		if prof.APIKey != "" {
			cfg.APIKey = prof.APIKey
		}
		if prof.Model != "" {
			cfg.Model = prof.Model
		}
		if prof.BaseURL != "" {
			cfg.BaseURL = prof.BaseURL
		}
		return cfg, nil
	}
	return llm.Config{}, fmt.Errorf("profile %q not defined", profileName)
}
