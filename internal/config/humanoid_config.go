// File: internal/config/humanoid_config.go
// This file defines the HumanoidConfig struct, which tunes how the pointer
// travels to an approved target before clicking. Movement follows an eased
// Bezier path whose duration is derived from Fitts's law, and the button hold
// time is drawn from a uniform range.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// HumanoidConfig controls pointer motion for the click executor.
type HumanoidConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Fitts's law constants (milliseconds): MT = A + B * log2(1 + D/W).
	FittsA float64 `mapstructure:"fitts_a" yaml:"fitts_a"`
	FittsB float64 `mapstructure:"fitts_b" yaml:"fitts_b"`
	// StepsPerSecond is the pointer sampling rate along the path.
	StepsPerSecond int `mapstructure:"steps_per_second" yaml:"steps_per_second"`
	// Curvature scales the perpendicular offset of the Bezier control points
	// as a fraction of the travel distance.
	Curvature      float64 `mapstructure:"curvature" yaml:"curvature"`
	ClickHoldMinMs int     `mapstructure:"click_hold_min_ms" yaml:"click_hold_min_ms"`
	ClickHoldMaxMs int     `mapstructure:"click_hold_max_ms" yaml:"click_hold_max_ms"`
}

func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("executor.humanoid.enabled", true)
	v.SetDefault("executor.humanoid.fitts_a", 80.0)
	v.SetDefault("executor.humanoid.fitts_b", 120.0)
	v.SetDefault("executor.humanoid.steps_per_second", 100)
	v.SetDefault("executor.humanoid.curvature", 0.15)
	v.SetDefault("executor.humanoid.click_hold_min_ms", 50)
	v.SetDefault("executor.humanoid.click_hold_max_ms", 120)
}

// Validate checks the humanoid timings.
func (h *HumanoidConfig) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.FittsA < 0 || h.FittsB < 0 {
		return fmt.Errorf("fitts_a and fitts_b must not be negative")
	}
	if h.StepsPerSecond <= 0 {
		return fmt.Errorf("steps_per_second must be positive")
	}
	if h.ClickHoldMinMs < 0 || h.ClickHoldMaxMs < h.ClickHoldMinMs {
		return fmt.Errorf("click hold range is invalid (%d..%d ms)", h.ClickHoldMinMs, h.ClickHoldMaxMs)
	}
	return nil
}
