package ui

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/andresmejia3/backbeat/internal/monitor"
	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/session"
	"golang.org/x/term"
)

const barWidth = 10

// IsTTY reports whether f is connected to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ScoreBar draws a fixed-width bar for a 0-10 score.
func ScoreBar(score float64) string {
	filled := int(math.Round(math.Max(0, math.Min(10, score)) / 10 * barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// Clock formats whole seconds as mm:ss, or h:mm:ss past an hour.
func Clock(seconds int) string {
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Renderer prints detection cycles. On a terminal the status line is redrawn
// in place; otherwise a line is printed only when the feedback changes.
type Renderer struct {
	w    io.Writer
	tty  bool
	last []string
}

// NewRenderer creates a renderer for f.
func NewRenderer(f *os.File) *Renderer {
	return &Renderer{w: f, tty: IsTTY(f)}
}

// NewPlainRenderer creates a renderer that never redraws in place.
func NewPlainRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render draws one cycle.
func (r *Renderer) Render(c monitor.Cycle) {
	line := StatusLine(c)
	if r.tty {
		fmt.Fprintf(r.w, "\r\033[K%s", line)
		if !slices.Equal(c.Result.Feedback, r.last) && len(c.Result.Issues()) > 0 {
			fmt.Fprintf(r.w, "\n%s\n", WarningStyle.Render("  ⚠ "+strings.Join(c.Result.Issues(), "\n  ⚠ ")))
		}
	} else if !slices.Equal(c.Result.Feedback, r.last) {
		fmt.Fprintf(r.w, "[%s] %.1f/10 %s\n", Clock(c.Elapsed), c.Result.Score, c.Result.String())
	}
	r.last = c.Result.Feedback
}

// Finish ends the in-place status line.
func (r *Renderer) Finish() {
	if r.tty {
		fmt.Fprintln(r.w)
	}
}

// StatusLine is the one-line summary of a cycle.
func StatusLine(c monitor.Cycle) string {
	score := ScoreStyle(c.Result.Score)
	parts := []string{
		score.Render(fmt.Sprintf("%4.1f/10 %s", c.Result.Score, ScoreBar(c.Result.Score))),
		c.Result.Summary(),
		DimStyle.Render(fmt.Sprintf("avg %.1f · peak %.1f · %s", c.Stats.Average, c.Stats.Peak, Clock(c.Elapsed))),
	}
	if c.HasDrift && (math.Abs(c.Drift.ShoulderLevel) > 15 || math.Abs(c.Drift.SeatLevel) > 15) {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("drift %+.0fpx", c.Drift.ShoulderLevel)))
	}
	return strings.Join(parts, "  ")
}

// RenderScore describes a single scored frame with its metrics and any advice.
func RenderScore(res posture.ScoreResult, angles posture.AngleSet) string {
	var b strings.Builder
	b.WriteString(ScoreStyle(res.Score).Render(fmt.Sprintf("Posture score: %.1f/10  %s", res.Score, ScoreBar(res.Score))))
	b.WriteString("\n" + res.Summary() + "\n")
	for _, issue := range res.Issues() {
		b.WriteString(WarningStyle.Render("  ⚠ "+issue) + "\n")
	}

	b.WriteString("\n" + TitleStyle.Render("Metrics") + "\n")
	var advice []posture.Advice
	for _, m := range angles.Metrics() {
		fmt.Fprintf(&b, "  %-18s %6.1f%s\n", m.Name, m.Value, m.Unit)
		if a, ok := posture.AdviceFor(m.Name, m.Value); ok {
			advice = append(advice, a)
		}
	}

	for _, a := range advice {
		var body strings.Builder
		body.WriteString(TitleStyle.Render(a.Title) + "\n" + a.Issue)
		for _, s := range a.Solutions {
			body.WriteString("\n • " + s)
		}
		b.WriteString("\n" + BoxStyle.Render(body.String()) + "\n")
	}
	return b.String()
}

// RenderStats summarizes a stored session snapshot.
func RenderStats(s session.Snapshot) string {
	if s.Stats.SampleCount == 0 {
		return DimStyle.Render("No scores recorded yet.")
	}
	rows := [][2]string{
		{"Session", s.SessionID},
		{"Started", s.StartTime.Local().Format("2006-01-02 15:04")},
		{"Duration", Clock(s.DurationSeconds)},
		{"Average", ScoreStyle(s.Stats.Average).Render(fmt.Sprintf("%.1f", s.Stats.Average))},
		{"Peak", ScoreStyle(s.Stats.Peak).Render(fmt.Sprintf("%.1f", s.Stats.Peak))},
		{"Good posture", fmt.Sprintf("%.0f%%", s.Stats.GoodPercent)},
		{"Samples", fmt.Sprintf("%d", s.Stats.SampleCount)},
		{"Sessions", fmt.Sprintf("%d", s.TotalSessions)},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%-13s %s\n", r[0]+":", r[1])
	}
	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
