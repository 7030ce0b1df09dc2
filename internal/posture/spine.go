package posture

import (
	"math"

	"github.com/andresmejia3/backbeat/internal/geometry"
	"github.com/andresmejia3/backbeat/internal/types"
)

// Spine thresholds in degrees.
const (
	LumbarLimit   = 15.0
	CervicalLimit = 20.0
)

// SpineMetrics holds the deviation of the torso and neck from vertical.
type SpineMetrics struct {
	Lumbar      float64 `json:"lumbar"`
	Cervical    float64 `json:"cervical"`
	HasCervical bool    `json:"has_cervical"`
}

// ComputeSpine derives lumbar and cervical angles from the shoulder and hip
// midpoints. ok is false when any torso keypoint is missing. The cervical angle
// is only filled in when the nose is visible too.
func ComputeSpine(keypoints []types.Keypoint, minConfidence float64) (SpineMetrics, bool) {
	pts, ok := findPoints(keypoints, minConfidence,
		types.LeftShoulder, types.RightShoulder, types.LeftHip, types.RightHip)
	if !ok {
		return SpineMetrics{}, false
	}

	shoulderMid := geometry.Midpoint(pts[0], pts[1])
	hipMid := geometry.Midpoint(pts[2], pts[3])

	m := SpineMetrics{
		Lumbar: math.Abs(geometry.VerticalDeviation(shoulderMid, hipMid)),
	}
	if nose, ok := Find(keypoints, types.Nose, minConfidence); ok {
		m.Cervical = math.Abs(geometry.VerticalDeviation(point(nose), shoulderMid))
		m.HasCervical = true
	}
	return m, true
}

// ExcessiveLumbar reports whether the torso leans past LumbarLimit.
func (m SpineMetrics) ExcessiveLumbar() bool {
	return m.Lumbar > LumbarLimit
}

// ForwardHead reports whether the head sits past CervicalLimit. It is false
// when the cervical angle could not be measured.
func (m SpineMetrics) ForwardHead() bool {
	return m.HasCervical && m.Cervical > CervicalLimit
}
