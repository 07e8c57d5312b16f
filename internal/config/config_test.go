// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Run("should populate the documented mission defaults", func(t *testing.T) {
		assert.Equal(t, schemas.ModeStealth, cfg.Mission.Mode)
		assert.Equal(t, 25, cfg.Mission.MaxTargets)
		assert.Equal(t, 1, cfg.Mission.MinSubdomains)
		assert.Equal(t, 40, cfg.Mission.RiskThreshold)
		assert.Equal(t, 10, cfg.Mission.WorkerConcurrency)
		assert.Equal(t, 10*time.Second, cfg.Mission.RequestTimeout)
		assert.False(t, cfg.Mission.ContinueOnLowSurface)
	})

	t.Run("should populate logger defaults", func(t *testing.T) {
		assert.Equal(t, "info", cfg.Logger.Level)
		assert.Equal(t, "console", cfg.Logger.Format)
		assert.Equal(t, "cartograph", cfg.Logger.ServiceName)
	})
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("should fail without a target domain", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		_, err := NewConfigFromViper(v)
		assert.Error(t, err)
	})

	t.Run("should accept a complete configuration", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("mission.target_domain", "tahiti-infos.com")
		v.Set("mission.mode", "aggressive")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "tahiti-infos.com", cfg.Mission.TargetDomain)
		assert.Equal(t, schemas.ModeAggressive, cfg.Mission.Mode)
	})

	t.Run("should expand home relative directories", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("mission.target_domain", "tahiti-infos.com")
		v.Set("mission.output_dir", "~/missions")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.NotContains(t, cfg.Mission.OutputDir, "~")
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Mission.TargetDomain = "tahiti-infos.com"
		return cfg
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"should reject an unknown mode", func(c *Config) { c.Mission.Mode = "reckless" }},
		{"should reject a non positive target budget", func(c *Config) { c.Mission.MaxTargets = 0 }},
		{"should reject a non positive concurrency", func(c *Config) { c.Mission.WorkerConcurrency = -1 }},
		{"should reject a non positive timeout", func(c *Config) { c.Mission.RequestTimeout = 0 }},
		{"should reject a risk threshold above one hundred", func(c *Config) { c.Mission.RiskThreshold = 101 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("should accept the defaults with a target", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
}
