// Package config provides configuration for the bridge process: a yaml
// file with defaults, validation, and environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evshary/go-carla-bridge/pkg/bus"
)

// Environment variables recognized as overrides.
const (
	EnvBroker      = "BRIDGE_BROKER"
	EnvSimEndpoint = "BRIDGE_SIM_ENDPOINT"
	EnvLogLevel    = "BRIDGE_LOG_LEVEL"
	EnvWebListen   = "BRIDGE_WEB_LISTEN"
	EnvVehicles    = "BRIDGE_VEHICLES"
)

// BusConfig is the yaml-facing bus section.
type BusConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string `yaml:"broker" json:"broker"`

	// ClientID identifies this session to the broker.
	ClientID string `yaml:"client_id" json:"client_id"`

	// Username and Password are optional broker credentials.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	ConnectTimeout    Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReconnectInterval Duration `yaml:"reconnect_interval" json:"reconnect_interval"`

	// MaxReconnectAttempts is the maximum number of connection attempts.
	// 0 means unlimited.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
}

// MQTT converts the section into the session configuration.
func (c BusConfig) MQTT() bus.MQTTConfig {
	return bus.MQTTConfig{
		Broker:               c.Broker,
		ClientID:             c.ClientID,
		Username:             c.Username,
		Password:             c.Password,
		ConnectTimeout:       c.ConnectTimeout.Std(),
		ReconnectInterval:    c.ReconnectInterval.Std(),
		MaxReconnectAttempts: c.MaxReconnectAttempts,
	}
}

// SimConfig holds simulator gateway settings.
type SimConfig struct {
	// Endpoint is the gateway websocket URL, e.g. "ws://localhost:8080/rpc".
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// DialTimeout bounds the initial connection attempt.
	DialTimeout Duration `yaml:"dial_timeout" json:"dial_timeout"`
}

// WebConfig holds diagnostics server settings.
type WebConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
}

// Config is the top-level bridge configuration.
type Config struct {
	LogLevel string `yaml:"log_level" json:"log_level"`

	// TickInterval is the control loop period.
	TickInterval Duration `yaml:"tick_interval" json:"tick_interval"`

	// Vehicles lists the vehicle names to bridge.
	Vehicles []string `yaml:"vehicles" json:"vehicles"`

	Bus BusConfig `yaml:"bus" json:"bus"`
	Sim SimConfig `yaml:"sim" json:"sim"`
	Web WebConfig `yaml:"web" json:"web"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	mqtt := bus.DefaultMQTTConfig()
	return Config{
		LogLevel:     "info",
		TickInterval: Duration(50 * time.Millisecond),
		Bus: BusConfig{
			Broker:               mqtt.Broker,
			ClientID:             mqtt.ClientID,
			ConnectTimeout:       Duration(mqtt.ConnectTimeout),
			ReconnectInterval:    Duration(mqtt.ReconnectInterval),
			MaxReconnectAttempts: mqtt.MaxReconnectAttempts,
		},
		Sim: SimConfig{
			Endpoint:    "ws://localhost:8080/rpc",
			DialTimeout: Duration(5 * time.Second),
		},
		Web: WebConfig{
			Enabled: true,
			Listen:  ":9090",
		},
	}
}

// Load builds the configuration: defaults, then the yaml file at path
// (when non-empty), then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays recognized environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBroker); v != "" {
		c.Bus.Broker = v
	}
	if v := os.Getenv(EnvSimEndpoint); v != "" {
		c.Sim.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvWebListen); v != "" {
		c.Web.Listen = v
	}
	if v := os.Getenv(EnvVehicles); v != "" {
		c.Vehicles = c.Vehicles[:0]
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Vehicles = append(c.Vehicles, name)
			}
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if len(c.Vehicles) == 0 {
		return fmt.Errorf("at least one vehicle is required")
	}
	if c.Sim.Endpoint == "" {
		return fmt.Errorf("sim endpoint is required")
	}
	mqtt := c.Bus.MQTT()
	if err := mqtt.Validate(); err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	return nil
}
