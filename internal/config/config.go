package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config models launchpad.yml plus environment overrides.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	AI struct {
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model"`
		MaxTokens int           `yaml:"max_tokens"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"ai"`
	Jira struct {
		Host     string `yaml:"host"`
		Username string `yaml:"username"`
		APIToken string `yaml:"api_token"`
	} `yaml:"jira"`
	Launch struct {
		TicketDelay time.Duration `yaml:"ticket_delay"`
	} `yaml:"launch"`
}

// Load reads config from workspace, layering env vars over the file.
// A missing file yields defaults so the server can run on env alone.
func Load(workspace string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(workspace, ".env"))

	cfg := Default()
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("JIRA_HOST"); v != "" {
		c.Jira.Host = v
	}
	if v := os.Getenv("JIRA_USERNAME"); v != "" {
		c.Jira.Username = v
	}
	if v := os.Getenv("JIRA_API_TOKEN"); v != "" {
		c.Jira.APIToken = v
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config.server.port must be in 1..65535")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("config.ai.model is required")
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("config.ai.max_tokens must be positive")
	}
	if c.Launch.TicketDelay < 0 {
		return fmt.Errorf("config.launch.ticket_delay must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "launchpad.yml")
}

// Default returns the built-in defaults.
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 3001
	cfg.AI.Model = "claude-3-sonnet-20240229"
	cfg.AI.MaxTokens = 2000
	cfg.AI.Timeout = 60 * time.Second
	cfg.Launch.TicketDelay = 500 * time.Millisecond
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultTemplate = `server:
  host: 127.0.0.1
  port: 3001

ai:
  # api_key can also come from ANTHROPIC_API_KEY
  model: claude-3-sonnet-20240229
  max_tokens: 2000
  timeout: 60s

jira:
  # host/username/api_token can also come from JIRA_HOST, JIRA_USERNAME, JIRA_API_TOKEN
  host: ""
  username: ""
  api_token: ""

launch:
  ticket_delay: 500ms
`
