// File: internal/heuristics/policy.go
package heuristics

import (
	"fmt"

	"github.com/spf13/viper"
)

// RiskPolicy is the weight table driving endpoint pre-scoring. It is an
// explicit value object with documented defaults: loaded once at startup,
// passed by value into the engine, never re-read per call.
type RiskPolicy struct {
	// Per-category contributions to likelihood and impact.
	AdminLikelihood  int `mapstructure:"admin_likelihood"`
	AdminImpact      int `mapstructure:"admin_impact"`
	AuthLikelihood   int `mapstructure:"auth_likelihood"`
	AuthImpact       int `mapstructure:"auth_impact"`
	APILikelihood    int `mapstructure:"api_likelihood"`
	APIImpact        int `mapstructure:"api_impact"`
	LegacyLikelihood int `mapstructure:"legacy_likelihood"`
	LegacyImpact     int `mapstructure:"legacy_impact"`

	// Per-parameter impact contributions.
	HighParamImpact     int `mapstructure:"high_param_impact"`
	MediumParamImpact   int `mapstructure:"medium_param_impact"`
	CriticalParamImpact int `mapstructure:"critical_param_impact"`

	// Behavior contributions.
	StateChangingLikelihood int `mapstructure:"state_changing_likelihood"`
	StateChangingImpact     int `mapstructure:"state_changing_impact"`
	IDAccessLikelihood      int `mapstructure:"id_access_likelihood"`

	// Discovery-source contribution.
	HistoricalSourceLikelihood int `mapstructure:"historical_source_likelihood"`
}

// DefaultRiskPolicy returns the documented default weights.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		AdminLikelihood:  3,
		AdminImpact:      4,
		AuthLikelihood:   3,
		AuthImpact:       4,
		APILikelihood:    2,
		APIImpact:        2,
		LegacyLikelihood: 2,
		LegacyImpact:     3,

		HighParamImpact:     2,
		MediumParamImpact:   1,
		CriticalParamImpact: 1,

		StateChangingLikelihood: 2,
		StateChangingImpact:     2,
		IDAccessLikelihood:      2,

		HistoricalSourceLikelihood: 1,
	}
}

// LoadRiskPolicy reads an optional YAML weights file and merges it over the
// defaults. An empty path returns the defaults unchanged.
func LoadRiskPolicy(path string) (RiskPolicy, error) {
	policy := DefaultRiskPolicy()
	if path == "" {
		return policy, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return policy, fmt.Errorf("failed to read risk policy file %q: %w", path, err)
	}
	if err := v.Unmarshal(&policy); err != nil {
		return policy, fmt.Errorf("failed to parse risk policy file %q: %w", path, err)
	}
	return policy, nil
}
