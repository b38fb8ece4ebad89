// Package config provides runtime configuration values for the property
// service and the admin console.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration knobs for the HTTP service, the API client and
// the notification dispatcher.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string
	SeedFile        string
	MaxUploadBytes  int64

	APIBaseURL     string
	RequestTimeout time.Duration
	// APIRateLimit caps client requests per second. Zero disables the limit.
	APIRateLimit int

	NotifyWorkers       int
	NotifyBuffer        int
	NotifyHighWatermark int

	RecentCommentsLimit int
	CommentStatus       string
}

// fileConfig mirrors Config in the optional YAML overlay. Zero values leave
// the default in place.
type fileConfig struct {
	HTTPAddr            string `yaml:"http_addr"`
	ShutdownTimeoutSec  int    `yaml:"shutdown_timeout_sec"`
	LogLevel            string `yaml:"log_level"`
	SeedFile            string `yaml:"seed_file"`
	MaxUploadBytes      int64  `yaml:"max_upload_bytes"`
	APIBaseURL          string `yaml:"api_base_url"`
	RequestTimeoutMs    int    `yaml:"request_timeout_ms"`
	APIRateLimit        int    `yaml:"api_rate_limit"`
	NotifyWorkers       int    `yaml:"notify_workers"`
	NotifyBuffer        int    `yaml:"notify_buffer"`
	NotifyHighWatermark int    `yaml:"notify_high_watermark"`
	RecentCommentsLimit int    `yaml:"recent_comments_limit"`
	CommentStatus       string `yaml:"comment_status"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, def time.Duration) time.Duration {
	ms := atoienv(key, -1)
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, def time.Duration) time.Duration {
	sec := atoienv(key, -1)
	if sec < 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPAddr:            ":8080",
		ShutdownTimeout:     15 * time.Second,
		LogLevel:            "info",
		MaxUploadBytes:      32 << 20,
		APIBaseURL:          "http://localhost:8080",
		RequestTimeout:      10 * time.Second,
		NotifyWorkers:       2,
		NotifyBuffer:        64,
		NotifyHighWatermark: 1000,
		RecentCommentsLimit: 4,
		CommentStatus:       "APPROVED",
	}
}

// Load collects configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and finally the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := getenv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.overlayEnv()
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.HTTPAddr != "" {
		c.HTTPAddr = fc.HTTPAddr
	}
	if fc.ShutdownTimeoutSec > 0 {
		c.ShutdownTimeout = time.Duration(fc.ShutdownTimeoutSec) * time.Second
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.SeedFile != "" {
		c.SeedFile = fc.SeedFile
	}
	if fc.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.APIBaseURL != "" {
		c.APIBaseURL = fc.APIBaseURL
	}
	if fc.RequestTimeoutMs > 0 {
		c.RequestTimeout = time.Duration(fc.RequestTimeoutMs) * time.Millisecond
	}
	if fc.APIRateLimit > 0 {
		c.APIRateLimit = fc.APIRateLimit
	}
	if fc.NotifyWorkers > 0 {
		c.NotifyWorkers = fc.NotifyWorkers
	}
	if fc.NotifyBuffer > 0 {
		c.NotifyBuffer = fc.NotifyBuffer
	}
	if fc.NotifyHighWatermark > 0 {
		c.NotifyHighWatermark = fc.NotifyHighWatermark
	}
	if fc.RecentCommentsLimit > 0 {
		c.RecentCommentsLimit = fc.RecentCommentsLimit
	}
	if fc.CommentStatus != "" {
		c.CommentStatus = fc.CommentStatus
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.ShutdownTimeout = durenvs("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.SeedFile = getenv("SEED_FILE", c.SeedFile)
	c.MaxUploadBytes = int64(atoienv("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.APIBaseURL = getenv("API_BASE_URL", c.APIBaseURL)
	c.RequestTimeout = durenvms("REQUEST_TIMEOUT_MS", c.RequestTimeout)
	c.APIRateLimit = atoienv("API_RATE_LIMIT", c.APIRateLimit)
	c.NotifyWorkers = atoienv("NOTIFY_WORKERS", c.NotifyWorkers)
	c.NotifyBuffer = atoienv("NOTIFY_BUFFER", c.NotifyBuffer)
	c.NotifyHighWatermark = atoienv("NOTIFY_HIGH_WATERMARK", c.NotifyHighWatermark)
	c.RecentCommentsLimit = atoienv("RECENT_COMMENTS_LIMIT", c.RecentCommentsLimit)
	c.CommentStatus = getenv("COMMENT_STATUS", c.CommentStatus)
}
