package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDDashboard string
	MQTTClientIDOrigin    string
	MQTTClientIDConsole   string

	// Topics
	TopicHeartbeat string
	TopicOrigin    string

	// Fleet data files
	FleetConfigCSV string
	SwarmConfigCSV string
	OriginFile     string

	// Web Server
	WebServerPort int
	WebAssetsDir  string

	// Drone HTTP API
	DroneAPIPort       int
	HTTPRequestTimeout int // milliseconds

	// Timing
	GitPollInterval       int // seconds
	HeartbeatPushInterval int // milliseconds

	// Origin GPS receiver
	OriginSerialPort string
	OriginBaudRate   int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//     Has package-level scope (visible to all functions in this package, persists for program lifetime).
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DASHBOARD":
		c.MQTTClientIDDashboard = value
	case "MQTT_CLIENT_ID_ORIGIN":
		c.MQTTClientIDOrigin = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_HEARTBEAT":
		c.TopicHeartbeat = value
	case "TOPIC_ORIGIN":
		c.TopicOrigin = value

	// Fleet data files
	case "FLEET_CONFIG_CSV":
		c.FleetConfigCSV = value
	case "SWARM_CONFIG_CSV":
		c.SwarmConfigCSV = value
	case "ORIGIN_FILE":
		c.OriginFile = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_ASSETS_DIR":
		c.WebAssetsDir = value

	// Drone HTTP API
	case "DRONE_API_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DRONE_API_PORT %q: %w", value, err)
		}
		c.DroneAPIPort = port
	case "HTTP_REQUEST_TIMEOUT":
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HTTP_REQUEST_TIMEOUT %q: %w", value, err)
		}
		c.HTTPRequestTimeout = timeout

	// Timing
	case "GIT_POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GIT_POLL_INTERVAL %q: %w", value, err)
		}
		c.GitPollInterval = interval
	case "HEARTBEAT_PUSH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HEARTBEAT_PUSH_INTERVAL %q: %w", value, err)
		}
		c.HeartbeatPushInterval = interval

	// Origin GPS receiver
	case "ORIGIN_SERIAL_PORT":
		c.OriginSerialPort = value
	case "ORIGIN_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ORIGIN_BAUD_RATE %q: %w", value, err)
		}
		c.OriginBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicHeartbeat == "" {
		return fmt.Errorf("TOPIC_HEARTBEAT is required")
	}
	if c.FleetConfigCSV == "" {
		return fmt.Errorf("FLEET_CONFIG_CSV is required")
	}
	if c.WebServerPort == 0 {
		return fmt.Errorf("WEB_SERVER_PORT is required")
	}
	if c.DroneAPIPort == 0 {
		return fmt.Errorf("DRONE_API_PORT is required")
	}
	if c.GitPollInterval == 0 {
		return fmt.Errorf("GIT_POLL_INTERVAL is required")
	}
	return nil
}

// RequestTimeout returns the drone HTTP timeout as a duration, falling back
// to 5 seconds when the key is absent.
func (c *Config) RequestTimeout() time.Duration {
	if c.HTTPRequestTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.HTTPRequestTimeout) * time.Millisecond
}

// PushInterval returns the websocket push cadence, defaulting to 1 second.
func (c *Config) PushInterval() time.Duration {
	if c.HeartbeatPushInterval <= 0 {
		return time.Second
	}
	return time.Duration(c.HeartbeatPushInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
