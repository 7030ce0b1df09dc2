package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotKey is the key-value slot the rolling snapshot is stored under.
const SnapshotKey = "drummerPostureSession"

// Stats summarizes the scores currently in the window.
type Stats struct {
	Average     float64 `json:"average"`
	Peak        float64 `json:"peak"`
	SampleCount int     `json:"sampleCount"`
	// GoodPercent is the share of windowed scores at or above GoodScore.
	GoodPercent float64 `json:"goodPercent"`
}

// Snapshot is the persisted state of a practice session.
type Snapshot struct {
	SessionID       string    `json:"sessionId"`
	StartTime       time.Time `json:"startTime"`
	DurationSeconds int       `json:"duration"`
	ScoreHistory    []float64 `json:"scoreHistory"`
	Stats           Stats     `json:"stats"`
	TotalSessions   int       `json:"totalSessions"`
}

// Encode serializes the snapshot for the key-value slot.
func Encode(s Snapshot) ([]byte, error) {
	if s.ScoreHistory == nil {
		s.ScoreHistory = []float64{}
	}
	return json.Marshal(s)
}

// Decode parses a stored snapshot. A history longer than the window is
// trimmed to its newest entries.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	if n := len(s.ScoreHistory); n > Capacity {
		s.ScoreHistory = append([]float64(nil), s.ScoreHistory[n-Capacity:]...)
	}
	return s, nil
}
