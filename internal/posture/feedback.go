package posture

// Tier summaries, best first.
const (
	SummaryExcellent   = "Excellent drumming posture!"
	SummaryGood        = "Good posture with minor adjustments needed"
	SummaryModerate    = "Moderate posture issues detected"
	SummarySignificant = "Significant posture problems"
	SummaryPoor        = "Poor posture - major adjustments needed"
)

// Summary returns the tier line for a final score.
func Summary(score float64) string {
	switch {
	case score >= 8.5:
		return SummaryExcellent
	case score >= 7:
		return SummaryGood
	case score >= 5:
		return SummaryModerate
	case score >= 3:
		return SummarySignificant
	default:
		return SummaryPoor
	}
}

// Advice is the coaching text for a metric that is out of its comfortable range.
type Advice struct {
	Title     string
	Issue     string
	Solutions []string
}

// AdviceFor returns coaching advice when value falls outside the good range for
// metric. The advice ranges are tighter than the scoring bands on purpose: they
// coach toward the ideal rather than flag a fault.
func AdviceFor(metric string, value float64) (Advice, bool) {
	switch metric {
	case MetricLeftElbow, MetricRightElbow:
		if value >= 80 && value <= 110 {
			return Advice{}, false
		}
		title := "Left Arm Position"
		if metric == MetricRightElbow {
			title = "Right Arm Position"
		}
		issue := "Arm too extended - reduces control"
		if value < 80 {
			issue = "Arm too tight - limits power and speed"
		}
		return Advice{
			Title: title,
			Issue: issue,
			Solutions: []string{
				"Adjust throne height for optimal elbow angle",
				"Position snare drum at comfortable reach",
				"Adjust cymbal heights for natural arm swing",
				"Check stick grip - avoid excessive tension",
			},
		}, true

	case MetricLumbar:
		if value <= LumbarLimit {
			return Advice{}, false
		}
		return Advice{
			Title: "Spine Alignment",
			Issue: "Excessive lumbar curve - stress on lower back",
			Solutions: []string{
				"Adjust throne height for a natural slight forward lean",
				"Strengthen core muscles for better support",
				"Check drum setup height to avoid over-reaching",
				"Use back support cushion if needed",
			},
		}, true

	case MetricCervical:
		if value <= CervicalLimit {
			return Advice{}, false
		}
		return Advice{
			Title: "Neck Alignment",
			Issue: "Head too forward - bring chin back",
			Solutions: []string{
				"Raise music stand or screen to eye level",
				"Keep eyes on the kit rather than your hands",
				"Practice chin tucks between sets",
			},
		}, true

	case MetricShoulderAlignment:
		if value >= 90 {
			return Advice{}, false
		}
		return Advice{
			Title: "Shoulder Alignment",
			Issue: "Uneven shoulders affect stick balance and timing consistency",
			Solutions: []string{
				"Check for uneven throne or floor surface",
				"Ensure cymbal setup is symmetrical",
				"Strengthen weaker side with targeted exercises",
				"Practice playing with focus on shoulder awareness",
			},
		}, true
	}
	return Advice{}, false
}
