package rtspd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "configs/default.yaml"

type Config struct {
	RTSP    RTSPConfig    `yaml:"rtsp"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

type RTSPConfig struct {
	Address     string        `yaml:"address"`
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type HTTPConfig struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	Greeting string `yaml:"greeting"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the values used for keys missing from the config file
func DefaultConfig() *Config {
	return &Config{
		RTSP: RTSPConfig{
			Port:        8554,
			ReadTimeout: 60 * time.Second,
		},
		HTTP: HTTPConfig{
			Port:     8080,
			Greeting: "rtspd API",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a yaml file on top of DefaultConfig
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid. Port 0 asks the OS for an ephemeral port.
func (c *Config) validate() error {
	if c.RTSP.Port < 0 || c.RTSP.Port > 65535 {
		return fmt.Errorf("invalid rtsp port: %d (must be between 0-65535)", c.RTSP.Port)
	}

	if c.RTSP.ReadTimeout < 0 {
		return fmt.Errorf("invalid rtsp read_timeout: %s (must be non-negative)", c.RTSP.ReadTimeout)
	}

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d (must be between 0-65535)", c.HTTP.Port)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s (must be one of: %v)", c.Logging.Level, validLevels)
	}

	return nil
}

// GetSlogLevel returns slog.Level from config
func (c *Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
