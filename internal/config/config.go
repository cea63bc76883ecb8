// Package config provides YAML-based configuration for the configurator server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Cart backends.
const (
	CartBackendDuckDB = "duckdb"
	CartBackendMemory = "memory"
)

// AppConfig represents the root configuration document.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Sessions SessionsConfig `yaml:"sessions"`
	Palette  PaletteConfig  `yaml:"palette"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCORS"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// StorageConfig contains data locations. Empty exports directory and cart
// database default to paths under the data directory.
type StorageConfig struct {
	DataDirectory    string `yaml:"dataDirectory"`
	ExportsDirectory string `yaml:"exportsDirectory"`
	CartDatabase     string `yaml:"cartDatabase"`
	CartBackend      string `yaml:"cartBackend"`
}

// SessionsConfig contains customizer session limits
type SessionsConfig struct {
	MaxSessions            int `yaml:"maxSessions"`
	TimeoutMinutes         int `yaml:"timeoutMinutes"`
	KeepAliveMinutes       int `yaml:"keepAliveMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// PaletteConfig contains the font list source
type PaletteConfig struct {
	FontsURL            string `yaml:"fontsURL"`
	FontsAPIKey         string `yaml:"fontsAPIKey"`
	FetchTimeoutSeconds int    `yaml:"fetchTimeoutSeconds"`
	CacheMinutes        int    `yaml:"cacheMinutes"`
}

// CatalogConfig optionally replaces the built-in layout and icon tables.
type CatalogConfig struct {
	LayoutsFile string `yaml:"layoutsFile"`
	IconsFile   string `yaml:"iconsFile"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `yaml:"logLevel"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
	EnableCompression    bool   `yaml:"enableCompression"`
	CompressionLevel     int    `yaml:"compressionLevel"`
	DuckDBThreads        int    `yaml:"duckDBThreads"`
	DuckDBMemoryLimit    string `yaml:"duckDBMemoryLimit"`
	WebSocketMaxMessage  int    `yaml:"webSocketMaxMessageKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "4M",
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
			CartBackend:   CartBackendDuckDB,
		},
		Sessions: SessionsConfig{
			MaxSessions:            200,
			TimeoutMinutes:         60,
			KeepAliveMinutes:       5,
			CleanupIntervalMinutes: 5,
		},
		Palette: PaletteConfig{
			FontsURL:            "https://www.googleapis.com/webfonts/v1/webfonts",
			FetchTimeoutSeconds: 3,
			CacheMinutes:        60,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
			DuckDBThreads:        2,
			DuckDBMemoryLimit:    "256MB",
			WebSocketMaxMessage:  64,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is created
// with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Panel Configurator server configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *AppConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.CartBackend {
	case CartBackendDuckDB, CartBackendMemory:
	case "":
		c.Storage.CartBackend = CartBackendDuckDB
	default:
		return fmt.Errorf("unknown cart backend %q", c.Storage.CartBackend)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}
	if key := os.Getenv("GOOGLE_FONTS_API_KEY"); key != "" {
		c.Palette.FontsAPIKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(configDir, p)
	}

	c.Storage.DataDirectory = resolve(c.Storage.DataDirectory)
	if c.Storage.ExportsDirectory == "" {
		c.Storage.ExportsDirectory = filepath.Join(c.Storage.DataDirectory, "exports")
	}
	if c.Storage.CartDatabase == "" {
		c.Storage.CartDatabase = filepath.Join(c.Storage.DataDirectory, "cart.duckdb")
	}
	c.Storage.ExportsDirectory = resolve(c.Storage.ExportsDirectory)
	c.Storage.CartDatabase = resolve(c.Storage.CartDatabase)
	c.Catalog.LayoutsFile = resolve(c.Catalog.LayoutsFile)
	c.Catalog.IconsFile = resolve(c.Catalog.IconsFile)
}

// GetDataDir returns the data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// SetDataDir moves the data directory along with the exports directory and
// cart database kept inside it.
func (c *AppConfig) SetDataDir(dir string) {
	c.Storage.DataDirectory = dir
	c.Storage.ExportsDirectory = filepath.Join(dir, "exports")
	c.Storage.CartDatabase = filepath.Join(dir, "cart.duckdb")
}

// GetExportsDir returns the exports directory path
func (c *AppConfig) GetExportsDir() string {
	return c.Storage.ExportsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTimeout returns how long an idle session is kept.
func (c *AppConfig) SessionTimeout() time.Duration {
	if c.Sessions.TimeoutMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.Sessions.TimeoutMinutes) * time.Minute
}

// CleanupInterval returns the session cleanup period.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Sessions.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Sessions.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.ExportsDirectory,
		filepath.Dir(c.Storage.CartDatabase),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
