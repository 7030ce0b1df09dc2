package posture

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/andresmejia3/backbeat/internal/types"
)

// ErrCalibrationIncomplete is returned when a reference torso keypoint is
// missing or below CalibrationConfidence.
var ErrCalibrationIncomplete = errors.New("calibration needs both shoulders and both hips clearly visible")

// CalibrationReference records the user's preferred seated position.
// It is informational: the scoring engine does not read it.
type CalibrationReference struct {
	ShoulderLevelY float64   `json:"shoulder_level_y"`
	SeatLevelY     float64   `json:"seat_level_y"`
	ShoulderWidth  float64   `json:"shoulder_width"`
	HipWidth       float64   `json:"hip_width"`
	CapturedAt     time.Time `json:"captured_at"`
}

// Calibrate builds a reference from one frame of keypoints.
func Calibrate(keypoints []types.Keypoint, now time.Time) (CalibrationReference, error) {
	required := []types.BodyPart{types.LeftShoulder, types.RightShoulder, types.LeftHip, types.RightHip}
	found := make(map[types.BodyPart]types.Keypoint, len(required))
	var missing []string
	for _, part := range required {
		kp, ok := Find(keypoints, part, CalibrationConfidence)
		if !ok {
			missing = append(missing, string(part))
			continue
		}
		found[part] = kp
	}
	if len(missing) > 0 {
		return CalibrationReference{}, fmt.Errorf("%w (missing: %s)", ErrCalibrationIncomplete, strings.Join(missing, ", "))
	}

	ls, rs := found[types.LeftShoulder].Position, found[types.RightShoulder].Position
	lh, rh := found[types.LeftHip].Position, found[types.RightHip].Position
	return CalibrationReference{
		ShoulderLevelY: (ls.Y + rs.Y) / 2,
		SeatLevelY:     (lh.Y + rh.Y) / 2,
		ShoulderWidth:  math.Abs(rs.X - ls.X),
		HipWidth:       math.Abs(rh.X - lh.X),
		CapturedAt:     now,
	}, nil
}

// Drift is how far the current torso sits from the calibrated reference, in pixels.
// Positive levels mean lower in the frame than the reference.
type Drift struct {
	ShoulderLevel float64 `json:"shoulder_level"`
	SeatLevel     float64 `json:"seat_level"`
}

// Calibrator holds the current reference. A failed capture keeps the previous one.
type Calibrator struct {
	ref *CalibrationReference
}

// NewCalibrator returns a Calibrator, optionally seeded with a stored reference.
func NewCalibrator(ref *CalibrationReference) *Calibrator {
	return &Calibrator{ref: ref}
}

// Capture tries to replace the reference from the given keypoints.
func (c *Calibrator) Capture(keypoints []types.Keypoint, now time.Time) (CalibrationReference, error) {
	ref, err := Calibrate(keypoints, now)
	if err != nil {
		return CalibrationReference{}, err
	}
	c.ref = &ref
	return ref, nil
}

// Reference returns the current reference, if any.
func (c *Calibrator) Reference() (CalibrationReference, bool) {
	if c.ref == nil {
		return CalibrationReference{}, false
	}
	return *c.ref, true
}

// Drift compares the live torso to the reference. ok is false without a
// reference or without a visible torso.
func (c *Calibrator) Drift(keypoints []types.Keypoint) (Drift, bool) {
	if c.ref == nil {
		return Drift{}, false
	}
	pts, ok := findPoints(keypoints, DisplayConfidence,
		types.LeftShoulder, types.RightShoulder, types.LeftHip, types.RightHip)
	if !ok {
		return Drift{}, false
	}
	return Drift{
		ShoulderLevel: (pts[0].Y+pts[1].Y)/2 - c.ref.ShoulderLevelY,
		SeatLevel:     (pts[2].Y+pts[3].Y)/2 - c.ref.SeatLevelY,
	}, true
}
