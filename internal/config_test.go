package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.ValidateConfig())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultShareDomain, cfg.ShareDomain)
	assert.Equal(t, 10, cfg.DefaultTimeout)
	assert.NotEmpty(t, cfg.StorePath)
}

func TestConfig_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `base_url: http://127.0.0.1:9000/api
timeout: 3
proxy: socks5://127.0.0.1:1080
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "http://127.0.0.1:9000/api", cfg.BaseURL)
	assert.Equal(t, 3, cfg.DefaultTimeout)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.ProxyURL)
	assert.True(t, cfg.EnableDebug)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultShareDomain, cfg.ShareDomain)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestConfig_LoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestConfig_LoadFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [not a number"), 0644))

	err := DefaultConfig().LoadFromFile(path)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "config_file", validationErr.Field)
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("WEBSHARE_BASE_URL", "https://mirror.example/api")
	t.Setenv("WEBSHARE_TIMEOUT", "7")
	t.Setenv("WEBSHARE_CONCURRENCY", "not-a-number")
	t.Setenv("WEBSHARE_QUIET", "1")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "https://mirror.example/api", cfg.BaseURL)
	assert.Equal(t, 7, cfg.DefaultTimeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.QuietMode)
}

func TestConfig_ValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative base url", func(c *Config) { c.BaseURL = "/api" }, "base_url"},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://webshare.cz/api" }, "base_url"},
		{"empty share domain", func(c *Config) { c.ShareDomain = " " }, "share_domain"},
		{"zero timeout", func(c *Config) { c.DefaultTimeout = 0 }, "timeout"},
		{"too much concurrency", func(c *Config) { c.Concurrency = 64 }, "concurrency"},
		{"bad proxy scheme", func(c *Config) { c.ProxyURL = "ftp://proxy:21" }, "proxy"},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }, "user_agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.ValidateConfig()

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}
