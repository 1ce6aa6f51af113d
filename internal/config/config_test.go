package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Backend.BaseURL = "http://localhost:9090"
	cfg.Backend.TimeoutSeconds = 30
	cfg.Upload.AllowedKinds = []string{"text/plain", "application/pdf"}
	cfg.Upload.MaxFileBytes = 25 << 20
	cfg.Progress.TickMs = 500
	cfg.Progress.Increment = 10
	cfg.Progress.Ceiling = 90
	cfg.Origin.Path = "muninn-origin.db"
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateAllowsEmptyWorkspace(t *testing.T) {
	cfg := validConfig()
	cfg.Workspace.ID = ""
	assert.NoError(t, cfg.Validate(), "missing workspace fails per submission, not at startup")
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSeconds = 0 }},
		{"empty allow list", func(c *Config) { c.Upload.AllowedKinds = nil }},
		{"blank kind in allow list", func(c *Config) { c.Upload.AllowedKinds = []string{"text/plain", ""} }},
		{"zero max file bytes", func(c *Config) { c.Upload.MaxFileBytes = 0 }},
		{"zero tick", func(c *Config) { c.Progress.TickMs = 0 }},
		{"zero increment", func(c *Config) { c.Progress.Increment = 0 }},
		{"ceiling at 100", func(c *Config) { c.Progress.Ceiling = 100 }},
		{"missing origin path", func(c *Config) { c.Origin.Path = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090", cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.TimeoutSeconds)
	assert.Contains(t, cfg.Upload.AllowedKinds, "application/pdf")
	assert.Equal(t, 90, cfg.Progress.Ceiling)
	assert.NoError(t, cfg.Validate())
}
