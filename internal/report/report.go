// Package report renders a session as a standalone HTML page of charts.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/session"
	"github.com/andresmejia3/backbeat/internal/store"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Data is everything a report can show. Only Snapshot is required.
type Data struct {
	Snapshot    session.Snapshot
	Checks      []store.PostureCheck
	Practice    []store.PracticeSession
	GeneratedAt time.Time
}

// tiers lists the summary tiers with their lower bounds, best first.
var tiers = []struct {
	label string
	min   float64
}{
	{"Excellent", 8.5},
	{"Good", 7},
	{"Moderate", 5},
	{"Significant", 3},
	{"Poor", 0},
}

// Write renders the report page to w.
func Write(w io.Writer, d Data) error {
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}

	page := components.NewPage()
	page.AddCharts(scoreLine(d), tierBar(d.Snapshot.ScoreHistory))
	if len(d.Checks) > 0 {
		page.AddCharts(checksLine(d.Checks))
	}
	if len(d.Practice) > 0 {
		page.AddCharts(practiceBar(d.Practice))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func scoreAxis() charts.GlobalOpts {
	return charts.WithYAxisOpts(opts.YAxis{Name: "score", Min: 0, Max: 10})
}

func scoreLine(d Data) *charts.Line {
	s := d.Snapshot
	x := make([]string, len(s.ScoreHistory))
	y := make([]opts.LineData, len(s.ScoreHistory))
	for i, v := range s.ScoreHistory {
		x[i] = strconv.Itoa(i + 1)
		y[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Backbeat posture report", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title: "Posture score, last " + strconv.Itoa(len(s.ScoreHistory)) + " samples",
			Subtitle: fmt.Sprintf("average %.1f · peak %.1f · %.0f%% good · generated %s",
				s.Stats.Average, s.Stats.Peak, s.Stats.GoodPercent, d.GeneratedAt.Format(time.RFC3339)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		scoreAxis(),
	)
	line.SetXAxis(x).AddSeries("score", y,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "good", YAxis: session.GoodScore}),
	)
	return line
}

// tierCounts buckets scores by summary tier, best first.
func tierCounts(scores []float64) []int {
	counts := make([]int, len(tiers))
	for _, v := range scores {
		for i, t := range tiers {
			if v >= t.min {
				counts[i]++
				break
			}
		}
	}
	return counts
}

func tierBar(scores []float64) *charts.Bar {
	counts := tierCounts(scores)
	x := make([]string, len(tiers))
	y := make([]opts.BarData, len(tiers))
	for i, t := range tiers {
		x[i] = t.label
		y[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Samples per tier", Subtitle: posture.SummaryExcellent + " starts at 8.5"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("samples", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

func checksLine(checks []store.PostureCheck) *charts.Line {
	// stored newest first; plot oldest first
	x := make([]string, len(checks))
	y := make([]opts.LineData, len(checks))
	for i := range checks {
		c := checks[len(checks)-1-i]
		x[i] = c.CheckedAt.Local().Format("01-02 15:04:05")
		y[i] = opts.LineData{Value: c.Score, Name: c.Feedback}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Posture checks", Subtitle: "one per second of detection"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		scoreAxis(),
	)
	line.SetXAxis(x).AddSeries("check", y)
	return line
}

func practiceBar(sessions []store.PracticeSession) *charts.Bar {
	x := make([]string, len(sessions))
	minutes := make([]opts.BarData, len(sessions))
	tempo := make([]opts.BarData, len(sessions))
	for i := range sessions {
		p := sessions[len(sessions)-1-i]
		x[i] = p.CreatedAt.Local().Format("2006-01-02")
		minutes[i] = opts.BarData{Value: p.DurationMinutes, Name: p.Notes}
		tempo[i] = opts.BarData{Value: p.TempoBPM}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Practice log"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("minutes", minutes).
		AddSeries("tempo (bpm)", tempo)
	return bar
}
