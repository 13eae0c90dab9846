// Package config loads the bridge configuration from YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// DefaultToken is shipped in the generated config and must be changed before
// the server is exposed.
const DefaultToken = "changeme"

// Environment overrides applied after the file is read.
const (
	EnvToken = "MCP_BRIDGE_TOKEN"
	EnvPort  = "MCP_BRIDGE_PORT"
)

// Config represents the complete bridge configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	ServerInfo ServerInfoConfig `yaml:"server_info"`
	Sandbox    SandboxConfig    `yaml:"sandbox"`
	Logs       LogsConfig       `yaml:"logs"`
	Bridge     BridgeConfig     `yaml:"bridge"`
	Host       HostConfig       `yaml:"host"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Token             string        `yaml:"token"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ServerInfoConfig is announced to clients during initialize
type ServerInfoConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// SandboxConfig holds the filesystem root every file tool is confined to
type SandboxConfig struct {
	Root string `yaml:"root"`
}

// LogsConfig controls get_logs
type LogsConfig struct {
	File      string `yaml:"file"`
	TailLines int    `yaml:"tail_lines"`
}

// BridgeConfig holds host execution timing
type BridgeConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	CaptureGrace time.Duration `yaml:"capture_grace"`
}

// HostConfig configures the process host adapter
type HostConfig struct {
	TickInterval        time.Duration   `yaml:"tick_interval"`
	Shell               []string        `yaml:"shell"`
	CommandTimeout      time.Duration   `yaml:"command_timeout"`
	ConsoleOnlyCommands []string        `yaml:"console_only_commands,omitempty"`
	LogFile             string          `yaml:"log_file"`
	Modules             []domain.Module `yaml:"modules,omitempty"`
}

// LoggingConfig configures the diagnostic logger
type LoggingConfig struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			Token:             DefaultToken,
			MaxBodyBytes:      16 << 20,
			KeepAliveInterval: 15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		ServerInfo: ServerInfoConfig{
			Name:    "mcp-host-bridge",
			Version: "1.2.3",
		},
		Sandbox: SandboxConfig{Root: "."},
		Logs: LogsConfig{
			File:      filepath.Join("logs", "latest.log"),
			TailLines: 100,
		},
		Bridge: BridgeConfig{
			Timeout:      10 * time.Second,
			CaptureGrace: 100 * time.Millisecond,
		},
		Host: HostConfig{
			TickInterval:   50 * time.Millisecond,
			Shell:          []string{"/bin/sh", "-c"},
			CommandTimeout: 30 * time.Second,
			LogFile:        filepath.Join("logs", "latest.log"),
		},
		Logging: LoggingConfig{
			Level:       "info",
			OutputPaths: []string{"stderr"},
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or an empty
// string when it is unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Load reads the file at path on top of Default, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(data)
}

// Parse decodes YAML content on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv(EnvToken); token != "" {
		c.Server.Token = token
	}
	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Wrapf(err, "parsing %s %q", EnvPort, raw)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate returns the first problem found in the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	case c.Server.Token == "":
		return fmt.Errorf("server.token is required")
	case c.Server.MaxBodyBytes <= 0:
		return fmt.Errorf("server.max_body_bytes must be positive")
	case c.Server.KeepAliveInterval <= 0:
		return fmt.Errorf("server.keepalive_interval must be positive")
	case c.Sandbox.Root == "":
		return fmt.Errorf("sandbox.root is required")
	case c.Logs.File == "":
		return fmt.Errorf("logs.file is required")
	case c.Logs.TailLines <= 0:
		return fmt.Errorf("logs.tail_lines must be positive")
	case c.Bridge.Timeout <= 0:
		return fmt.Errorf("bridge.timeout must be positive")
	case c.Bridge.CaptureGrace < 0:
		return fmt.Errorf("bridge.capture_grace must not be negative")
	case c.Host.TickInterval <= 0:
		return fmt.Errorf("host.tick_interval must be positive")
	case len(c.Host.Shell) == 0:
		return fmt.Errorf("host.shell is required")
	}
	return nil
}

// UsesDefaultToken reports whether the shipped placeholder token is in use.
func (c *Config) UsesDefaultToken() bool {
	return c.Server.Token == DefaultToken
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left untouched and reported as false.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrap(err, "checking config file")
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return false, errors.Wrap(err, "encoding default config")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, errors.Wrap(err, "creating config directory")
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, errors.Wrap(err, "writing default config")
	}
	return true, nil
}
