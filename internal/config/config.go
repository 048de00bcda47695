// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (RELAYSTAT_LOG_LEVEL)
const EnvPrefix = "RELAYSTAT"

// PasswordEnv holds the bridge password; it is never read from a file
const PasswordEnv = EnvPrefix + "_PASSWORD"

// Config defines the global configuration structure
type Config struct {
	Log     LogConfig    `mapstructure:"log"`
	Serial  SerialConfig `mapstructure:"serial"`
	Bridges []string     `mapstructure:"bridges"` // ws:// or wss:// URLs appended to the directory
	Bridge  BridgeConfig `mapstructure:"bridge"`
	Device  int          `mapstructure:"device"` // Directory index selected at startup
	Relays  int          `mapstructure:"relays"` // Relay count shown in the control panel
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path, "-" for stderr
}

// SerialConfig defines the RS-485 line settings
type SerialConfig struct {
	BaudRate    int           `mapstructure:"baud_rate"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxResponse int           `mapstructure:"max_response"`
}

// BridgeConfig defines WebSocket bridge credentials
type BridgeConfig struct {
	Username         string        `mapstructure:"username"`
	NoSSLVerify      bool          `mapstructure:"no_ssl_verify"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("serial.baud_rate", 9600)
	v.SetDefault("serial.timeout", 100*time.Millisecond)
	v.SetDefault("serial.max_response", 256)
	v.SetDefault("bridge.username", "")
	v.SetDefault("bridge.no_ssl_verify", false)
	v.SetDefault("bridge.handshake_timeout", 5*time.Second)
	v.SetDefault("device", 0)
	v.SetDefault("relays", 8)
}

// Load reads configuration into v and unmarshals it. A missing config file
// is not an error when configFile is empty; defaults and environment
// overrides still apply. Flags bound into v before calling Load take
// precedence over the file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("relaystat")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.relaystat")
		v.AddConfigPath("/etc/relaystat/")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.fixup(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig loads configuration from file into a fresh viper instance
func LoadConfig(configFile string) (*Config, error) {
	return Load(viper.New(), configFile)
}

func (c *Config) fixup() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (use debug, info, warn or error)", c.Log.Level)
	}

	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("invalid serial.baud_rate %d", c.Serial.BaudRate)
	}
	if c.Serial.Timeout <= 0 {
		c.Serial.Timeout = 100 * time.Millisecond
	}
	if c.Serial.MaxResponse <= 0 {
		c.Serial.MaxResponse = 256
	}
	if c.Relays <= 0 || c.Relays > 255 {
		return fmt.Errorf("invalid relays %d (1-255)", c.Relays)
	}
	if c.Device < 0 {
		return fmt.Errorf("invalid device index %d", c.Device)
	}

	bridges := c.Bridges[:0]
	for _, b := range c.Bridges {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if !strings.HasPrefix(b, "ws://") && !strings.HasPrefix(b, "wss://") {
			return fmt.Errorf("invalid bridge URL %q (use ws:// or wss://)", b)
		}
		bridges = append(bridges, b)
	}
	c.Bridges = bridges
	return nil
}
