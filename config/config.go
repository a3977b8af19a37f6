// Package config handles service configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	DataDir string        `yaml:"data_dir"`
	DBPath  string        `yaml:"db_path"`
	Browser BrowserConfig `yaml:"browser"`
	Observe ObserveConfig `yaml:"observe"`
	Nav     NavConfig     `yaml:"nav"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	ViewportWidth    int           `yaml:"viewport_width"`
	ViewportHeight   int           `yaml:"viewport_height"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// ObserveConfig controls the observation pass.
type ObserveConfig struct {
	MaxIframes        int `yaml:"max_iframes"`
	MinIframeSize     int `yaml:"min_iframe_size"`
	ScreenshotQuality int `yaml:"screenshot_quality"`
}

// NavConfig controls navigation target validation.
type NavConfig struct {
	AllowPrivate  bool `yaml:"allow_private"`
	AllowLoopback bool `yaml:"allow_loopback"`
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero fields with the service defaults.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8086"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DBPath == "" {
		c.DBPath = "db/observations.db"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1280
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 720
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Observe.MaxIframes <= 0 {
		c.Observe.MaxIframes = 10
	}
	if c.Observe.MinIframeSize <= 0 {
		c.Observe.MinIframeSize = 50
	}
	if c.Observe.ScreenshotQuality <= 0 {
		c.Observe.ScreenshotQuality = 70
	}
}
