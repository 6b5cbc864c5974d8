// Package config handles GaoAgent configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./gaoagent.yaml, ~/.config/gaoagent/gaoagent.yaml,
// /etc/gaoagent/gaoagent.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"gaoagent.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gaoagent", "gaoagent.yaml"))
	}

	paths = append(paths, "/etc/gaoagent/gaoagent.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all GaoAgent configuration.
type Config struct {
	LLM       LLMConfig   `yaml:"llm"`
	Agent     AgentConfig `yaml:"agent"`
	Jobs      JobsConfig  `yaml:"jobs"`
	SkillsDir string      `yaml:"skills_dir"`
	DataDir   string      `yaml:"data_dir"`
	LogLevel  string      `yaml:"log_level"`
}

// LLMConfig defines the OpenAI-compatible model endpoint.
type LLMConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// AgentConfig defines agent loop limits.
type AgentConfig struct {
	// MaxTurns bounds the number of model/parse/dispatch cycles per run.
	MaxTurns int `yaml:"max_turns"`
	// SkillTimeoutSec is the hard timeout for one skill subprocess.
	SkillTimeoutSec int `yaml:"skill_timeout_sec"`
}

// JobsConfig defines the upstream media-generation service.
type JobsConfig struct {
	// UpstreamBaseURL is the media-generation API root.
	UpstreamBaseURL string `yaml:"upstream_base_url"`
	APIKey          string `yaml:"api_key"`
	// DBPath is the SQLite file for job records. Defaults to
	// <data_dir>/jobs.db when empty.
	DBPath string `yaml:"db_path"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-5-mini",
		},
		Agent: AgentConfig{
			MaxTurns:        5,
			SkillTimeoutSec: 30,
		},
		SkillsDir: "skills",
		DataDir:   ".",
		LogLevel:  "info",
	}
}

// Load reads and parses the YAML config at path, applies defaults for
// unset fields, then applies environment overrides (see ApplyEnv).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()
	return &cfg, nil
}

// LoadOrDefault behaves like Load when a config file can be found, and
// otherwise returns the built-in defaults with environment overrides
// applied. A missing config file is normal for CLI use — everything the
// agent needs can come from the environment.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		cfg := Default()
		cfg.ApplyEnv()
		return &cfg, nil
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = d.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.LLM.Model
	}
	if c.Agent.MaxTurns <= 0 {
		c.Agent.MaxTurns = d.Agent.MaxTurns
	}
	if c.Agent.SkillTimeoutSec <= 0 {
		c.Agent.SkillTimeoutSec = d.Agent.SkillTimeoutSec
	}
	if c.SkillsDir == "" {
		c.SkillsDir = d.SkillsDir
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Jobs.DBPath == "" {
		c.Jobs.DBPath = filepath.Join(c.DataDir, "jobs.db")
	}
}

// StatePath returns the SQLite file for saved conversation state.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// ApplyEnv overlays environment variables onto the config. A .env file
// in the working directory is folded into the environment first (without
// overriding variables that are already set). Recognized variables, in
// preference order:
//
//	LLM_API_KEY, OPENAI_API_KEY     → LLM.APIKey
//	LLM_BASE_URL, OPENAI_BASE_URL   → LLM.BaseURL
//	LLM_MODEL, OPENAI_MODEL         → LLM.Model
//	MEDIA_API_KEY                   → Jobs.APIKey
//	MEDIA_BASE_URL                  → Jobs.UpstreamBaseURL
func (c *Config) ApplyEnv() {
	// Best effort — no .env file is the common case.
	_ = godotenv.Load()

	if v := firstEnv("LLM_API_KEY", "OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := firstEnv("LLM_BASE_URL", "OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := firstEnv("LLM_MODEL", "OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("MEDIA_API_KEY"); v != "" {
		c.Jobs.APIKey = v
	}
	if v := os.Getenv("MEDIA_BASE_URL"); v != "" {
		c.Jobs.UpstreamBaseURL = v
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
