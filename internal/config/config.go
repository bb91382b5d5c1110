package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config defines taskboard configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	MCP       MCPConfig       `yaml:"mcp"`
	Security  SecurityConfig  `yaml:"security"`
	Log       LogConfig       `yaml:"log"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	UsersPath  string `yaml:"users_path"`
	DataPath   string `yaml:"data_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MCPConfig names the acting user when requests carry no credentials.
type MCPConfig struct {
	User string `yaml:"user"`
}

type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver:     DriverJSON,
			UsersPath:  "users.json",
			DataPath:   "data.json",
			SQLitePath: "taskboard.db",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{Mode: TransportStdio},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TASKBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and required fields.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverJSON:
		if c.Store.UsersPath == "" || c.Store.DataPath == "" {
			return fmt.Errorf("store.users_path and store.data_path are required for the json driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	switch c.Transport.Mode {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport.mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	// Zero selects bcrypt.DefaultCost.
	if cost := c.Security.BcryptCost; cost != 0 && (cost < bcrypt.MinCost || cost > bcrypt.MaxCost) {
		return fmt.Errorf("invalid security.bcrypt_cost %d: must be between %d and %d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"TASKBOARD_STORE_DRIVER":   &cfg.Store.Driver,
		"TASKBOARD_USERS_PATH":     &cfg.Store.UsersPath,
		"TASKBOARD_DATA_PATH":      &cfg.Store.DataPath,
		"TASKBOARD_SQLITE_PATH":    &cfg.Store.SQLitePath,
		"TASKBOARD_SERVER_HOST":    &cfg.Server.Host,
		"TASKBOARD_TRANSPORT_MODE": &cfg.Transport.Mode,
		"TASKBOARD_MCP_USER":       &cfg.MCP.User,
		"TASKBOARD_LOG_LEVEL":      &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TASKBOARD_SERVER_PORT": &cfg.Server.Port,
		"TASKBOARD_BCRYPT_COST": &cfg.Security.BcryptCost,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("TASKBOARD_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
