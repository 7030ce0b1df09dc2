package posture

import (
	"math"

	"github.com/andresmejia3/backbeat/internal/geometry"
	"github.com/andresmejia3/backbeat/internal/types"
)

// Confidence floors per call site. Scoring is the most forgiving so a score is
// produced even from a noisy detection; calibration is the strictest.
const (
	ScoringConfidence     = 0.3
	DisplayConfidence     = 0.4
	DrawConfidence        = 0.5
	CalibrationConfidence = 0.6
)

// Find returns the keypoint for part if it was detected with at least minConfidence.
// A keypoint with a non-finite coordinate counts as absent.
func Find(keypoints []types.Keypoint, part types.BodyPart, minConfidence float64) (types.Keypoint, bool) {
	for _, kp := range keypoints {
		if kp.Part != part {
			continue
		}
		if kp.Confidence >= minConfidence && finite(kp.Position.X) && finite(kp.Position.Y) {
			return kp, true
		}
		return types.Keypoint{}, false
	}
	return types.Keypoint{}, false
}

// point is a shorthand for converting a keypoint into a geometry point.
func point(kp types.Keypoint) geometry.Point {
	return geometry.Point{X: kp.Position.X, Y: kp.Position.Y}
}

// findPoints looks up several parts at once. ok is false if any is absent.
func findPoints(keypoints []types.Keypoint, minConfidence float64, parts ...types.BodyPart) ([]geometry.Point, bool) {
	pts := make([]geometry.Point, len(parts))
	for i, part := range parts {
		kp, ok := Find(keypoints, part, minConfidence)
		if !ok {
			return nil, false
		}
		pts[i] = point(kp)
	}
	return pts, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
