package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/opensensing/lteshield/shield"
)

// Config holds the daemon configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// SerialPort is the path to the shield's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the module (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// LogFormat selects the log output format ("json" or "console")
	LogFormat string `yaml:"log_format"`
	// Verbose logs every byte exchanged with the module
	Verbose bool `yaml:"verbose"`
	// Carrier selects the network operator profile, by name or numeric code
	Carrier string `yaml:"carrier"`
	// APN is the access point name of the packet data context
	APN string `yaml:"apn"`
	// PDPType selects the packet data protocol (e.g. "IP", "IPV4V6")
	PDPType string `yaml:"pdp_type"`
}

// network resolves the carrier fields into a shield network configuration.
func (c *Config) network() (shield.NetworkConfig, error) {
	mno, err := shield.ParseMNO(c.Carrier)
	if err != nil {
		return shield.NetworkConfig{}, fmt.Errorf("carrier: %w", err)
	}

	pdp := shield.PDPNone
	if c.APN != "" {
		pdp, err = shield.ParsePDP(c.PDPType)
		if err != nil {
			return shield.NetworkConfig{}, fmt.Errorf("pdp type: %w", err)
		}
	}

	return shield.NetworkConfig{MNO: mno, APN: c.APN, PDP: pdp}, nil
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.LogFormat = "json"
		c.Carrier = "auto"
		c.PDPType = "IP"
		return nil
	}
}

// WithFile loads configuration from a YAML file. An empty path is a no-op
// so the config flag can stay optional.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return yaml.Unmarshal(data, c)
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if format := os.Getenv("LOG_FORMAT"); format != "" {
			c.LogFormat = format
		}

		if verbose := os.Getenv("VERBOSE"); verbose != "" {
			if v, err := strconv.ParseBool(verbose); err == nil {
				c.Verbose = v
			}
		}

		if carrier := os.Getenv("CARRIER"); carrier != "" {
			c.Carrier = carrier
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}

		if pdp := os.Getenv("PDP_TYPE"); pdp != "" {
			c.PDPType = pdp
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "log-format":
				c.LogFormat = f.Value.String()
			case "verbose":
				if v, err := strconv.ParseBool(f.Value.String()); err == nil {
					c.Verbose = v
				}
			case "carrier":
				c.Carrier = f.Value.String()
			case "apn":
				c.APN = f.Value.String()
			case "pdp-type":
				c.PDPType = f.Value.String()
			}

		})
		return nil
	}

}
