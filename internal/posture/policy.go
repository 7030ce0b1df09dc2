package posture

import "fmt"

// Policy holds every threshold, scale and cap used by the scoring engine.
// The elbow band is a coaching choice; some teachers prefer 70-110.
type Policy struct {
	MinScore float64 `yaml:"min_score"`
	MaxScore float64 `yaml:"max_score"`

	ScoringConfidence float64 `yaml:"scoring_confidence"`
	DisplayConfidence float64 `yaml:"display_confidence"`

	// Torso gate
	TorsoPenalty float64 `yaml:"torso_penalty"`

	// Shoulder levelness
	ShoulderSlopeTolerance float64 `yaml:"shoulder_slope_tolerance"`
	ShoulderSlopeScale     float64 `yaml:"shoulder_slope_scale"`
	ShoulderPenaltyCap     float64 `yaml:"shoulder_penalty_cap"`

	// Spine lean (degrees)
	SpineLeanTolerance float64 `yaml:"spine_lean_tolerance"`
	SpineLeanScale     float64 `yaml:"spine_lean_scale"` // whole lean angle divided by this
	SpinePenaltyCap    float64 `yaml:"spine_penalty_cap"`

	// Forward head (pixels)
	HeadForwardTolerance float64 `yaml:"head_forward_tolerance"`
	HeadForwardScale     float64 `yaml:"head_forward_scale"`
	HeadPenaltyCap       float64 `yaml:"head_penalty_cap"`

	// Elbows (degrees)
	ElbowMin          float64 `yaml:"elbow_min"`
	ElbowMax          float64 `yaml:"elbow_max"`
	ElbowScale        float64 `yaml:"elbow_scale"`
	ElbowPenaltyCap   float64 `yaml:"elbow_penalty_cap"`
	ArmUnclearPenalty float64 `yaml:"arm_unclear_penalty"`

	// Legs (shoulder-hip-knee, degrees)
	CheckLegs     bool    `yaml:"check_legs"`
	LegConfidence float64 `yaml:"leg_confidence"`
	HipMin        float64 `yaml:"hip_min"`
	HipMax        float64 `yaml:"hip_max"`
	LegPenalty    float64 `yaml:"leg_penalty"`
}

// DefaultPolicy returns the canonical drummer scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		MinScore:          1,
		MaxScore:          10,
		ScoringConfidence: ScoringConfidence,
		DisplayConfidence: DisplayConfidence,

		TorsoPenalty: 3,

		ShoulderSlopeTolerance: 0.12,
		ShoulderSlopeScale:     15,
		ShoulderPenaltyCap:     2,

		SpineLeanTolerance: 15,
		SpineLeanScale:     12,
		SpinePenaltyCap:    2,

		HeadForwardTolerance: 30,
		HeadForwardScale:     40,
		HeadPenaltyCap:       1.5,

		ElbowMin:          60,
		ElbowMax:          120,
		ElbowScale:        20,
		ElbowPenaltyCap:   1.5,
		ArmUnclearPenalty: 1,

		CheckLegs:     true,
		LegConfidence: CalibrationConfidence,
		HipMin:        80,
		HipMax:        110,
		LegPenalty:    0.75,
	}
}

// Validate checks that the policy cannot produce an inverted or undefined score.
func (p Policy) Validate() error {
	if p.MinScore >= p.MaxScore {
		return fmt.Errorf("min_score (%g) must be below max_score (%g)", p.MinScore, p.MaxScore)
	}
	for name, v := range map[string]float64{
		"scoring_confidence": p.ScoringConfidence,
		"display_confidence": p.DisplayConfidence,
		"leg_confidence":     p.LegConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", name, v)
		}
	}
	for name, v := range map[string]float64{
		"shoulder_slope_scale": p.ShoulderSlopeScale,
		"spine_lean_scale":     p.SpineLeanScale,
		"head_forward_scale":   p.HeadForwardScale,
		"elbow_scale":          p.ElbowScale,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", name, v)
		}
	}
	if p.ElbowMin >= p.ElbowMax {
		return fmt.Errorf("elbow band is empty: %g-%g", p.ElbowMin, p.ElbowMax)
	}
	if p.CheckLegs && p.HipMin >= p.HipMax {
		return fmt.Errorf("hip band is empty: %g-%g", p.HipMin, p.HipMax)
	}
	return nil
}
