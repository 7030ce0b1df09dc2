package posture

import (
	"fmt"
	"math"
	"strings"

	"github.com/andresmejia3/backbeat/internal/geometry"
	"github.com/andresmejia3/backbeat/internal/types"
)

// Feedback lines emitted by the individual checks.
const (
	FeedbackPartialBody     = "Partial body detection - ensure you're fully visible"
	FeedbackUnevenShoulders = "Uneven shoulders - affects stick control"
	FeedbackLeaningForward  = "Leaning forward too much"
	FeedbackLeaningBack     = "Leaning back too much"
	FeedbackHeadPosition    = "Head position needs adjustment"
	FeedbackArmUnclear      = "Arm positioning unclear - adjust camera angle"
)

// ScoreResult is the outcome of scoring one frame. Feedback always starts with
// the tier summary, followed by one line per failed check in evaluation order.
type ScoreResult struct {
	Score    float64  `json:"score"`
	Feedback []string `json:"feedback"`
}

// Summary returns the tier line.
func (r ScoreResult) Summary() string {
	if len(r.Feedback) == 0 {
		return ""
	}
	return r.Feedback[0]
}

// Issues returns the feedback lines after the summary.
func (r ScoreResult) Issues() []string {
	if len(r.Feedback) < 2 {
		return nil
	}
	return r.Feedback[1:]
}

// String joins the feedback into a single sentence list.
func (r ScoreResult) String() string {
	return strings.Join(r.Feedback, ". ")
}

// Engine scores frames one at a time and remembers the last AngleSet so that
// angles hold steady across frames where a joint drops out.
type Engine struct {
	policy Policy
	angles AngleSet
}

// NewEngine creates an engine with the given policy and a neutral AngleSet.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy, angles: DefaultAngleSet()}
}

// Policy returns the policy the engine scores with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Score evaluates one frame and updates the engine's AngleSet.
func (e *Engine) Score(keypoints []types.Keypoint) ScoreResult {
	res, angles := Evaluate(keypoints, e.angles, e.policy)
	e.angles = angles
	return res
}

// Angles returns the AngleSet produced by the most recent Score call.
func (e *Engine) Angles() AngleSet {
	return e.angles
}

// Reset restores the neutral AngleSet.
func (e *Engine) Reset() {
	e.angles = DefaultAngleSet()
}

// Evaluate applies the additive penalty model to one frame of keypoints.
// Missing keypoints are penalised, never treated as errors, and the result is
// always inside [MinScore, MaxScore].
func Evaluate(keypoints []types.Keypoint, prev AngleSet, p Policy) (ScoreResult, AngleSet) {
	score := p.MaxScore
	var issues []string
	penalize := func(amount float64, line string) {
		score -= amount
		issues = append(issues, line)
	}

	conf := p.ScoringConfidence
	torso, torsoOK := findPoints(keypoints, conf,
		types.LeftShoulder, types.RightShoulder, types.LeftHip, types.RightHip)

	// 1. Torso presence gate
	if !torsoOK {
		penalize(p.TorsoPenalty, FeedbackPartialBody)
	} else {
		leftShoulder, rightShoulder := torso[0], torso[1]
		shoulderMid := geometry.Midpoint(leftShoulder, rightShoulder)
		hipMid := geometry.Midpoint(torso[2], torso[3])

		// 2. Shoulder levelness
		if slope := shoulderSlope(leftShoulder, rightShoulder); slope > p.ShoulderSlopeTolerance {
			penalize(math.Min(p.ShoulderPenaltyCap, slope*p.ShoulderSlopeScale), FeedbackUnevenShoulders)
		}

		// 3. Spine lean
		lean := geometry.VerticalDeviation(shoulderMid, hipMid)
		if math.Abs(lean) > p.SpineLeanTolerance {
			line := FeedbackLeaningForward
			if lean < 0 {
				line = FeedbackLeaningBack
			}
			penalize(math.Min(p.SpinePenaltyCap, math.Abs(lean)/p.SpineLeanScale), line)
		}

		// 4. Forward head
		if nose, ok := Find(keypoints, types.Nose, conf); ok {
			if d := math.Abs(nose.Position.X - shoulderMid.X); d > p.HeadForwardTolerance {
				penalize(math.Min(p.HeadPenaltyCap, d/p.HeadForwardScale), FeedbackHeadPosition)
			}
		}
	}

	// 5. Elbows, each side on its own
	measured := 0
	for _, side := range []struct {
		label                  string
		shoulder, elbow, wrist types.BodyPart
	}{
		{"Left", types.LeftShoulder, types.LeftElbow, types.LeftWrist},
		{"Right", types.RightShoulder, types.RightElbow, types.RightWrist},
	} {
		pts, ok := findPoints(keypoints, conf, side.shoulder, side.elbow, side.wrist)
		if !ok {
			continue
		}
		angle, ok := geometry.InteriorAngle(pts[0], pts[1], pts[2])
		if !ok {
			continue
		}
		measured++
		if angle < p.ElbowMin || angle > p.ElbowMax {
			mid := (p.ElbowMin + p.ElbowMax) / 2
			penalize(math.Min(p.ElbowPenaltyCap, math.Abs(angle-mid)/p.ElbowScale),
				fmt.Sprintf("%s elbow: %.0f° (optimal: %.0f-%.0f°)", side.label, angle, p.ElbowMin, p.ElbowMax))
		}
	}
	if measured == 0 {
		penalize(p.ArmUnclearPenalty, FeedbackArmUnclear)
	}

	// 6. Legs, for pedal control
	if p.CheckLegs {
		legs, ok := findPoints(keypoints, p.LegConfidence,
			types.LeftShoulder, types.LeftHip, types.LeftKnee,
			types.RightShoulder, types.RightHip, types.RightKnee)
		if ok {
			for i, label := range []string{"Left", "Right"} {
				hip, ok := geometry.InteriorAngle(legs[i*3], legs[i*3+1], legs[i*3+2])
				if ok && (hip < p.HipMin || hip > p.HipMax) {
					penalize(p.LegPenalty, label+" leg position may affect pedal control")
				}
			}
		}
	}

	score = geometry.Clamp(score, p.MinScore, p.MaxScore)

	feedback := make([]string, 0, len(issues)+1)
	feedback = append(feedback, Summary(score))
	feedback = append(feedback, issues...)

	return ScoreResult{Score: score, Feedback: feedback}, measureAngles(keypoints, prev, p.DisplayConfidence)
}
