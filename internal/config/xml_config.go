// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// FileName is the config file looked up next to the executable.
const FileName = "BeaconBay.config.xml"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"BeaconBay"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Chart rendering
	Chart ChartConfig `xml:"Chart"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage and mapping backend settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	// MappingBackend is one of file, sqlite, redis.
	MappingBackend string `xml:"MappingBackend"`
	MappingFile    string `xml:"MappingFile"`
	SQLitePath     string `xml:"SQLitePath"`
	RedisAddr      string `xml:"RedisAddress"`
	RedisKey       string `xml:"RedisKey"`
	RecentFiles    int    `xml:"RecentFilesLimit"`
}

// ProcessingConfig contains analysis and session settings
type ProcessingConfig struct {
	PageSize               int  `xml:"PageSize"`
	MaxSessions            int  `xml:"MaxSessions"`
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	DefaultTopN            int  `xml:"DefaultTopN"`
	MaxTopN                int  `xml:"MaxTopN"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
}

// ChartConfig controls label formatting and export colors
type ChartConfig struct {
	// TimeZone is an IANA name used for time-of-day axis labels; empty means UTC.
	TimeZone string      `xml:"TimeZone"`
	Theme    ThemeConfig `xml:"Theme"`
}

// ThemeConfig holds the colors embedded into standalone SVG exports
type ThemeConfig struct {
	Text       string `xml:"Text"`
	Border     string `xml:"Border"`
	Foreground string `xml:"Foreground"`
	Accent     string `xml:"Accent"`
	FontFamily string `xml:"FontFamily"`
}

// SecurityConfig contains upload restrictions
type SecurityConfig struct {
	AllowFileDeletion bool   `xml:"AllowFileDeletion"`
	AllowedImageTypes string `xml:"AllowedImageTypes"`
	MaxLogSize        string `xml:"MaxLogSize"`
	MaxImageSize      string `xml:"MaxImageSize"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	EnableMetrics        bool   `xml:"EnableMetrics"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			MappingBackend:   "file",
			MappingFile:      "./data/mapping.json",
			SQLitePath:       "./data/beaconbay.db",
			RedisAddr:        "localhost:6379",
			RedisKey:         "beaconbay:mapping",
			RecentFiles:      20,
		},
		Processing: ProcessingConfig{
			PageSize:               50,
			MaxSessions:            50,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			DefaultTopN:            6,
			MaxTopN:                20,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Chart: ChartConfig{
			TimeZone: "",
			Theme: ThemeConfig{
				Text:       "#333333",
				Border:     "#cccccc",
				Foreground: "#222222",
				Accent:     "#4e79a7",
				FontFamily: "-apple-system, sans-serif",
			},
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
			AllowedImageTypes: "image/png,image/jpeg,image/gif,image/webp,image/svg+xml",
			MaxLogSize:        "64MB",
			MaxImageSize:      "16MB",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableMetrics:        true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- BeaconBay Analyzer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
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
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.MappingFile = filepath.Join(dataDir, "mapping.json")
		c.Storage.SQLitePath = filepath.Join(dataDir, "beaconbay.db")
	}

	if backend := os.Getenv("BEACONBAY_MAPPING_BACKEND"); backend != "" {
		c.Storage.MappingBackend = backend
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Storage.RedisAddr = addr
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.MappingFile,
		&c.Storage.SQLitePath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// Location returns the time zone for chart labels.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Chart.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Chart.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid chart time zone %q: %w", c.Chart.TimeZone, err)
	}
	return loc, nil
}

// SessionTimeout returns the idle time after which sessions are dropped.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Processing.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// ImageTypeAllowed reports whether contentType is an accepted floor-plan type.
// Only image/* types are ever accepted.
func (c *AppConfig) ImageTypeAllowed(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !strings.HasPrefix(ct, "image/") {
		return false
	}
	if c.Security.AllowedImageTypes == "" {
		return true
	}
	for _, allowed := range strings.Split(c.Security.AllowedImageTypes, ",") {
		if strings.TrimSpace(strings.ToLower(allowed)) == ct {
			return true
		}
	}
	return false
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ParseSize parses sizes like "64MB", "16M" or "1024" into bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	s = strings.TrimSuffix(s, "B")
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1<<10, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1<<20, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1<<30, strings.TrimSuffix(s, "G")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
