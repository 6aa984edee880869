package forceatlas2

import (
	"github.com/matzehuels/stagegraph/pkg/errors"
)

// MaxForce is the force ceiling applied with AdjustSizes.
const MaxForce = 10

// DefaultSteps is the iteration count of [Apply] when none is given.
const DefaultSteps = 50

// ErrDiverged reports a layout whose coordinates overflowed.
var ErrDiverged = errors.New(errors.ErrCodeInvalidSetting, "layout diverged; try lin_log_mode or a larger slow_down")

// Settings tune the forces.
type Settings struct {
	AdjustSizes                    bool    `toml:"adjust_sizes" json:"adjust_sizes"`
	EdgeWeightInfluence            float64 `toml:"edge_weight_influence" json:"edge_weight_influence"`
	Gravity                        float64 `toml:"gravity" json:"gravity"`
	LinLogMode                     bool    `toml:"lin_log_mode" json:"lin_log_mode"`
	OutboundAttractionDistribution bool    `toml:"outbound_attraction_distribution" json:"outbound_attraction_distribution"`
	ScalingRatio                   float64 `toml:"scaling_ratio" json:"scaling_ratio"`
	SlowDown                       float64 `toml:"slow_down" json:"slow_down"`
	StrongGravityMode              bool    `toml:"strong_gravity_mode" json:"strong_gravity_mode"`
	// DegreeMass adds the weights of incident edges to the unit node mass.
	DegreeMass bool `toml:"degree_mass" json:"degree_mass"`
}

// DefaultSettings returns the standard ForceAtlas2 parameters.
func DefaultSettings() Settings {
	return Settings{
		EdgeWeightInfluence: 1,
		Gravity:             1,
		ScalingRatio:        1,
		SlowDown:            1,
	}
}

// Validate checks that the ratios can be divided by.
func (s Settings) Validate() error {
	if err := errors.ValidatePositive("scaling_ratio", s.ScalingRatio); err != nil {
		return err
	}
	if err := errors.ValidatePositive("slow_down", s.SlowDown); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("gravity", s.Gravity); err != nil {
		return err
	}
	return errors.ValidateFinite("edge_weight_influence", s.EdgeWeightInfluence)
}
