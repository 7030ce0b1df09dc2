package posture

import (
	"math"

	"github.com/andresmejia3/backbeat/internal/geometry"
	"github.com/andresmejia3/backbeat/internal/types"
)

// Metric names used in an AngleSet, in advice lookups, and in reports.
const (
	MetricLeftElbow         = "leftElbow"
	MetricRightElbow        = "rightElbow"
	MetricLeftKnee          = "leftKnee"
	MetricRightKnee         = "rightKnee"
	MetricLumbar            = "lumbar"
	MetricCervical          = "cervical"
	MetricShoulderAlignment = "shoulderAlignment"
	MetricHeadAlignment     = "headAlignment"
	MetricSpineAlignment    = "spineAlignment"
)

// AngleSet is the per-frame set of raw joint angles (degrees) and alignment
// percentages shown to the user.
type AngleSet struct {
	LeftElbow         float64 `json:"leftElbow"`
	RightElbow        float64 `json:"rightElbow"`
	LeftKnee          float64 `json:"leftKnee"`
	RightKnee         float64 `json:"rightKnee"`
	Lumbar            float64 `json:"lumbar"`
	Cervical          float64 `json:"cervical"`
	ShoulderAlignment float64 `json:"shoulderAlignment"`
	HeadAlignment     float64 `json:"headAlignment"`
	SpineAlignment    float64 `json:"spineAlignment"`
}

// DefaultAngleSet is the neutral baseline used before anything was measured.
func DefaultAngleSet() AngleSet {
	return AngleSet{
		LeftElbow:         90,
		RightElbow:        90,
		LeftKnee:          90,
		RightKnee:         90,
		ShoulderAlignment: 100,
		HeadAlignment:     100,
		SpineAlignment:    100,
	}
}

// Metric is a single named AngleSet entry.
type Metric struct {
	Name  string
	Value float64
	Unit  string
}

// Metrics returns the entries in display order.
func (a AngleSet) Metrics() []Metric {
	return []Metric{
		{MetricLeftElbow, a.LeftElbow, "°"},
		{MetricRightElbow, a.RightElbow, "°"},
		{MetricLeftKnee, a.LeftKnee, "°"},
		{MetricRightKnee, a.RightKnee, "°"},
		{MetricLumbar, a.Lumbar, "°"},
		{MetricCervical, a.Cervical, "°"},
		{MetricShoulderAlignment, a.ShoulderAlignment, "%"},
		{MetricHeadAlignment, a.HeadAlignment, "%"},
		{MetricSpineAlignment, a.SpineAlignment, "%"},
	}
}

// alignmentPercent maps a deviation onto 0-100% where 0 deviation is 100%
// and fullScale or more is 0%.
func alignmentPercent(deviation, fullScale float64) float64 {
	return 100 * (1 - geometry.Clamp(math.Abs(deviation)/fullScale, 0, 1))
}

// measureAngles refreshes every entry it has enough keypoints for and keeps
// the previous value for the rest.
func measureAngles(keypoints []types.Keypoint, prev AngleSet, minConfidence float64) AngleSet {
	out := prev

	joint := func(dst *float64, a, b, c types.BodyPart) {
		pts, ok := findPoints(keypoints, minConfidence, a, b, c)
		if !ok {
			return
		}
		if deg, ok := geometry.InteriorAngle(pts[0], pts[1], pts[2]); ok {
			*dst = deg
		}
	}
	joint(&out.LeftElbow, types.LeftShoulder, types.LeftElbow, types.LeftWrist)
	joint(&out.RightElbow, types.RightShoulder, types.RightElbow, types.RightWrist)
	joint(&out.LeftKnee, types.LeftHip, types.LeftKnee, types.LeftAnkle)
	joint(&out.RightKnee, types.RightHip, types.RightKnee, types.RightAnkle)

	if spine, ok := ComputeSpine(keypoints, minConfidence); ok {
		out.Lumbar = spine.Lumbar
		out.SpineAlignment = alignmentPercent(spine.Lumbar, 90)
		if spine.HasCervical {
			out.Cervical = spine.Cervical
			out.HeadAlignment = alignmentPercent(spine.Cervical, 90)
		}
	}

	if pts, ok := findPoints(keypoints, minConfidence, types.LeftShoulder, types.RightShoulder); ok {
		out.ShoulderAlignment = alignmentPercent(shoulderSlope(pts[0], pts[1]), 1)
	}
	return out
}

// shoulderSlope is |dy| / max(1, |dx|) so that stacked shoulders never divide by zero.
func shoulderSlope(left, right geometry.Point) float64 {
	return math.Abs(right.Y-left.Y) / math.Max(1, math.Abs(right.X-left.X))
}
