// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// Config holds the entire application configuration for one mission run.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Mission MissionConfig `mapstructure:"mission" yaml:"mission"`
	Policy  PolicyConfig  `mapstructure:"policy" yaml:"policy"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// MissionConfig owns mission-level budgets and thresholds. Invalid values are
// fatal at mission start, before any phase runs.
type MissionConfig struct {
	TargetDomain string              `mapstructure:"target_domain" yaml:"target_domain"`
	Mode         schemas.MissionMode `mapstructure:"mode" yaml:"mode"`
	OutputDir    string              `mapstructure:"output_dir" yaml:"output_dir"`
	KnowledgeDir string              `mapstructure:"knowledge_dir" yaml:"knowledge_dir"`
	FactsDir     string              `mapstructure:"facts_dir" yaml:"facts_dir"`

	MaxTargets           int           `mapstructure:"max_targets" yaml:"max_targets"`
	MinSubdomains        int           `mapstructure:"min_subdomains" yaml:"min_subdomains"`
	RiskThreshold        int           `mapstructure:"risk_threshold" yaml:"risk_threshold"`
	WorkerConcurrency    int           `mapstructure:"worker_concurrency" yaml:"worker_concurrency"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ContinueOnLowSurface bool          `mapstructure:"continue_on_low_surface" yaml:"continue_on_low_surface"`
	MemoryBoost          int           `mapstructure:"memory_boost" yaml:"memory_boost"`
}

// PolicyConfig points at the optional risk-weight policy file for the
// endpoint heuristics engine. Weights merge over documented defaults and are
// loaded exactly once at startup.
type PolicyConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "cartograph")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Mission --
	v.SetDefault("mission.mode", string(schemas.ModeStealth))
	v.SetDefault("mission.output_dir", "./missions")
	v.SetDefault("mission.knowledge_dir", "./knowledge")
	v.SetDefault("mission.max_targets", 25)
	v.SetDefault("mission.min_subdomains", 1)
	v.SetDefault("mission.risk_threshold", 40)
	v.SetDefault("mission.worker_concurrency", 10)
	v.SetDefault("mission.request_timeout", "10s")
	v.SetDefault("mission.continue_on_low_surface", false)
	v.SetDefault("mission.memory_boost", 0)
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with our own defaults, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object,
// expanding user paths and validating the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	for _, dir := range []*string{&cfg.Mission.OutputDir, &cfg.Mission.KnowledgeDir, &cfg.Mission.FactsDir} {
		if *dir == "" {
			continue
		}
		expanded, err := homedir.Expand(*dir)
		if err != nil {
			return nil, fmt.Errorf("failed to expand path %q: %w", *dir, err)
		}
		*dir = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Mission.TargetDomain == "" {
		return fmt.Errorf("mission.target_domain is a required configuration field")
	}
	if c.Mission.Mode != schemas.ModeStealth && c.Mission.Mode != schemas.ModeAggressive {
		return fmt.Errorf("mission.mode must be %q or %q", schemas.ModeStealth, schemas.ModeAggressive)
	}
	if c.Mission.MaxTargets <= 0 {
		return fmt.Errorf("mission.max_targets must be a positive integer")
	}
	if c.Mission.WorkerConcurrency <= 0 {
		return fmt.Errorf("mission.worker_concurrency must be a positive integer")
	}
	if c.Mission.RequestTimeout <= 0 {
		return fmt.Errorf("mission.request_timeout must be a positive duration")
	}
	if c.Mission.RiskThreshold < 0 || c.Mission.RiskThreshold > 100 {
		return fmt.Errorf("mission.risk_threshold must be within [0,100]")
	}
	return nil
}
