package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/framer"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/protocol"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Decoder DecoderConfig `yaml:"decoder"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains listener configuration
type ServerConfig struct {
	BindAddress   string `yaml:"bind_address"`
	TCPPort       int    `yaml:"tcp_port"`
	UDPPort       int    `yaml:"udp_port"`
	BufferSize    int    `yaml:"buffer_size"`    // socket read buffer, bytes
	SourceTimeout int    `yaml:"source_timeout"` // seconds of inactivity before a source is dropped
}

// DecoderConfig contains streaming decoder behavior
type DecoderConfig struct {
	MaxPayloadSize int    `yaml:"max_payload_size"` // bytes; 0 selects the protocol default
	WarnPolicy     string `yaml:"warn_policy"`      // none, unrecognized, all
	IncludeRaw     bool   `yaml:"include_raw"`      // attach verbatim frame bytes to decoded frames
}

// HTTPConfig contains the monitoring API server configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration used when fields are omitted
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:   "0.0.0.0",
			TCPPort:       30200,
			UDPPort:       30201,
			BufferSize:    65536,
			SourceTimeout: 300,
		},
		Decoder: DecoderConfig{
			MaxPayloadSize: protocol.DefaultMaxPayloadSize,
			WarnPolicy:     "unrecognized",
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Address: "127.0.0.1",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder config: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate checks listener configuration values
func (s *ServerConfig) Validate() error {
	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}
	if s.TCPPort == 0 && s.UDPPort == 0 {
		return fmt.Errorf("at least one of tcp_port and udp_port must be set")
	}
	if s.TCPPort < 0 || s.TCPPort > 65535 {
		return fmt.Errorf("tcp_port must be between 0 and 65535, got %d", s.TCPPort)
	}
	if s.UDPPort < 0 || s.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 0 and 65535, got %d", s.UDPPort)
	}
	if s.TCPPort != 0 && s.TCPPort == s.UDPPort {
		return fmt.Errorf("tcp_port and udp_port cannot both be %d", s.TCPPort)
	}
	if s.BufferSize < 1024 {
		return fmt.Errorf("buffer_size must be at least 1024 bytes, got %d", s.BufferSize)
	}
	if s.SourceTimeout < 1 {
		return fmt.Errorf("source_timeout must be at least 1 second, got %d", s.SourceTimeout)
	}
	return nil
}

// Validate checks decoder configuration values
func (d *DecoderConfig) Validate() error {
	if d.MaxPayloadSize < 0 {
		return fmt.Errorf("max_payload_size cannot be negative, got %d", d.MaxPayloadSize)
	}
	if _, ok := framer.ParseWarnPolicy(d.WarnPolicy); !ok {
		return fmt.Errorf("warn_policy must be one of [none, unrecognized, all], got '%s'", d.WarnPolicy)
	}
	return nil
}

// Validate checks HTTP API configuration values
func (h *HTTPConfig) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.Address == "" {
		return fmt.Errorf("http address cannot be empty when HTTP is enabled")
	}
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
	}
	return nil
}

// Validate checks logging configuration values
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}
	switch l.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}
	return nil
}

// GetSourceTimeoutDuration returns the source timeout as a time.Duration
func (s *ServerConfig) GetSourceTimeoutDuration() time.Duration {
	return time.Duration(s.SourceTimeout) * time.Second
}

// DecoderOptions converts the decoder section to framer options. The logger
// is attached by the caller.
func (d *DecoderConfig) DecoderOptions() framer.Options {
	policy, _ := framer.ParseWarnPolicy(d.WarnPolicy)
	return framer.Options{
		MaxPayloadSize: d.MaxPayloadSize,
		WarnPolicy:     policy,
		IncludeRaw:     d.IncludeRaw,
	}
}
