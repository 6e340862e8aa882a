package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"smppc/session"
)

// Config describes one ESME client run.
type Config struct {
	Addr            string                `yaml:"addr"`                      // address and port of the SMSC
	Bind            session.BindParameter `yaml:"bind"`                      // authorization parameters
	EnquireDuration string                `yaml:"enquireDuration,omitempty"` // keepalive cadence
	RequestTimeout  string                `yaml:"requestTimeout,omitempty"`  // per-request response deadline
	ReconnectDelay  string                `yaml:"reconnectDelay,omitempty"`  // delay between reconnect attempts
	MaxError        int                   `yaml:"maxError,omitempty"`        // maximum allowable number of connection errors
	SubmitRate      float64               `yaml:"submitRate,omitempty"`      // outbound submits per second, 0 = unlimited
	LogDir          string                `yaml:"logDir,omitempty"`          // directory for per-level log files

	Source string `yaml:"source,omitempty"` // default source address for sends
}

// ParseConfig parses the configuration and initializes default values.
func ParseConfig(data []byte) (*Config, error) {
	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	if config.MaxError <= 0 {
		config.MaxError = maxErrors
	}
	if config.ReconnectDelay == "" {
		config.ReconnectDelay = "10s"
	}
	return config, nil
}

// LoadConfig loads and parses the configuration from a file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func (c *Config) duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

// Settings converts the file values into session settings.
func (c *Config) Settings() session.Settings {
	return session.Settings{
		EnquireLinkTimer: c.duration(c.EnquireDuration),
		TransactionTimer: c.duration(c.RequestTimeout),
		SubmitRate:       c.SubmitRate,
	}
}
