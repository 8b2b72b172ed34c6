package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// AppName names the config and data directories under the XDG base dirs
	AppName = "wsfetch"

	DefaultBaseURL     = "https://webshare.cz/api"
	DefaultShareDomain = "webshare.cz"
)

// Config holds application configuration
type Config struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	ShareDomain    string `yaml:"share_domain,omitempty"`
	DefaultTimeout int    `yaml:"timeout,omitempty"` // seconds, applied to every API call
	ProxyURL       string `yaml:"proxy,omitempty"`
	UserAgent      string `yaml:"user_agent,omitempty"`
	Concurrency    int    `yaml:"concurrency,omitempty"`
	StorePath      string `yaml:"store_path,omitempty"`

	// Logging configuration
	LogLevel    string `yaml:"log_level,omitempty"`
	EnableDebug bool   `yaml:"debug,omitempty"`
	QuietMode   bool   `yaml:"quiet,omitempty"`
	LogFile     string `yaml:"log_file,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		ShareDomain:    DefaultShareDomain,
		DefaultTimeout: 10,
		UserAgent:      "wsfetch/1.0",
		Concurrency:    4,
		StorePath:      filepath.Join(xdg.DataHome, AppName, "session.db"),

		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // Empty means stderr
	}
}

// DefaultConfigPath returns the location of the YAML config file
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// LoadFromFile overlays non-zero values from a YAML file onto c.
// A missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(b) == 0 {
		return nil
	}

	var fileCfg Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return NewValidationErrorWithValue("config_file", fmt.Sprintf("invalid YAML: %v", err), path).
			WithSuggestion("Check the file against the documented keys (base_url, timeout, proxy, ...)")
	}

	c.BaseURL = zeroOr(fileCfg.BaseURL, c.BaseURL)
	c.ShareDomain = zeroOr(fileCfg.ShareDomain, c.ShareDomain)
	c.DefaultTimeout = zeroOr(fileCfg.DefaultTimeout, c.DefaultTimeout)
	c.ProxyURL = zeroOr(fileCfg.ProxyURL, c.ProxyURL)
	c.UserAgent = zeroOr(fileCfg.UserAgent, c.UserAgent)
	c.Concurrency = zeroOr(fileCfg.Concurrency, c.Concurrency)
	c.StorePath = zeroOr(fileCfg.StorePath, c.StorePath)
	c.LogLevel = zeroOr(fileCfg.LogLevel, c.LogLevel)
	c.EnableDebug = zeroOr(fileCfg.EnableDebug, c.EnableDebug)
	c.QuietMode = zeroOr(fileCfg.QuietMode, c.QuietMode)
	c.LogFile = zeroOr(fileCfg.LogFile, c.LogFile)

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if baseURL := os.Getenv("WEBSHARE_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}

	if domain := os.Getenv("WEBSHARE_SHARE_DOMAIN"); domain != "" {
		c.ShareDomain = domain
	}

	if timeout := os.Getenv("WEBSHARE_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.DefaultTimeout = t
		}
	}

	if proxyURL := os.Getenv("WEBSHARE_PROXY"); proxyURL != "" {
		c.ProxyURL = proxyURL
	}

	if concurrency := os.Getenv("WEBSHARE_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil && n > 0 {
			c.Concurrency = n
		}
	}

	if storePath := os.Getenv("WEBSHARE_STORE"); storePath != "" {
		c.StorePath = storePath
	}

	if logLevel := os.Getenv("WEBSHARE_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("WEBSHARE_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("WEBSHARE_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("WEBSHARE_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// GetEnvWithDefault returns environment variable value or default
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return NewValidationErrorWithValue("base_url", "must be an absolute http(s) URL", c.BaseURL)
	}

	if strings.TrimSpace(c.ShareDomain) == "" {
		return NewValidationError("share_domain", "cannot be empty")
	}

	if c.DefaultTimeout < 1 {
		return NewValidationErrorWithValue("timeout", "must be > 0", c.DefaultTimeout)
	}

	if c.Concurrency < 1 || c.Concurrency > 32 {
		return NewValidationErrorWithValue("concurrency", "must be between 1 and 32", c.Concurrency)
	}

	if c.ProxyURL != "" {
		if !strings.HasPrefix(c.ProxyURL, "http://") &&
			!strings.HasPrefix(c.ProxyURL, "https://") &&
			!strings.HasPrefix(c.ProxyURL, "socks5://") {
			return NewValidationErrorWithValue("proxy", "unsupported proxy scheme", c.ProxyURL).
				WithSuggestion("Use formats like http://proxy:8080 or socks5://proxy:1080")
		}
	}

	if c.UserAgent == "" {
		return NewValidationError("user_agent", "cannot be empty")
	}

	return nil
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
