package posture

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/andresmejia3/backbeat/internal/types"
)

func TestFind(t *testing.T) {
	kps := []types.Keypoint{
		kp(types.Nose, 10, 20, 0.3),
		kp(types.LeftEye, 11, 21, 0.29),
		kp(types.RightEye, math.NaN(), 21, 0.9),
		kp(types.LeftEar, 5, 5, 0.1),
		kp(types.LeftEar, 6, 6, 0.9), // duplicates: the first one decides
	}

	tests := []struct {
		name    string
		part    types.BodyPart
		minConf float64
		wantOK  bool
	}{
		{"At threshold", types.Nose, 0.3, true},
		{"Above threshold", types.Nose, 0.4, false},
		{"Below threshold", types.LeftEye, ScoringConfidence, false},
		{"Non-finite position", types.RightEye, 0, false},
		{"Not detected", types.LeftAnkle, 0, false},
		{"First duplicate wins", types.LeftEar, 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Find(kps, tt.part, tt.minConf)
			if ok != tt.wantOK {
				t.Fatalf("Find(%s, %v) ok = %v, want %v", tt.part, tt.minConf, ok, tt.wantOK)
			}
			if ok && got.Part != tt.part {
				t.Errorf("Find returned %s", got.Part)
			}
		})
	}
}

func TestComputeSpine(t *testing.T) {
	upright := seatedDrummer()

	t.Run("Upright without nose", func(t *testing.T) {
		m, ok := ComputeSpine(upright, ScoringConfidence)
		if !ok {
			t.Fatal("expected spine metrics")
		}
		if m.Lumbar != 0 || m.HasCervical || m.ExcessiveLumbar() || m.ForwardHead() {
			t.Errorf("got %+v", m)
		}
	})

	t.Run("Head forward", func(t *testing.T) {
		m, ok := ComputeSpine(append(seatedDrummer(), kp(types.Nose, 200, 50, 0.9)), ScoringConfidence)
		if !ok || !m.HasCervical {
			t.Fatalf("got %+v, %v", m, ok)
		}
		if math.Abs(m.Cervical-45) > 1e-9 {
			t.Errorf("Cervical = %v, want 45", m.Cervical)
		}
		if !m.ForwardHead() {
			t.Error("ForwardHead() = false")
		}
	})

	t.Run("Leaning torso", func(t *testing.T) {
		kps := []types.Keypoint{
			kp(types.LeftShoulder, 200, 100, 0.9),
			kp(types.RightShoulder, 300, 100, 0.9),
			kp(types.LeftHip, 100, 200, 0.9),
			kp(types.RightHip, 200, 200, 0.9),
		}
		m, ok := ComputeSpine(kps, ScoringConfidence)
		if !ok {
			t.Fatal("expected spine metrics")
		}
		if math.Abs(m.Lumbar-45) > 1e-9 || !m.ExcessiveLumbar() {
			t.Errorf("Lumbar = %v", m.Lumbar)
		}
	})

	t.Run("Missing hip", func(t *testing.T) {
		if _, ok := ComputeSpine(upright[:3], ScoringConfidence); ok {
			t.Error("expected ok = false")
		}
	})
}

func TestCalibrate(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

	ref, err := Calibrate(seatedDrummer(), now)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	want := CalibrationReference{
		ShoulderLevelY: 100,
		SeatLevelY:     200,
		ShoulderWidth:  100,
		HipWidth:       100,
		CapturedAt:     now,
	}
	if ref != want {
		t.Errorf("Calibrate() = %+v, want %+v", ref, want)
	}

	// 0.5 is enough to score but not to calibrate
	weak := replace(seatedDrummer(), kp(types.RightHip, 200, 200, 0.5))
	_, err = Calibrate(weak, now)
	if !errors.Is(err, ErrCalibrationIncomplete) {
		t.Fatalf("error = %v, want ErrCalibrationIncomplete", err)
	}
	if !strings.Contains(err.Error(), string(types.RightHip)) {
		t.Errorf("error %q does not name the missing part", err)
	}
}

func TestCalibrator(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	c := NewCalibrator(nil)

	if _, ok := c.Reference(); ok {
		t.Fatal("new calibrator should have no reference")
	}
	if _, ok := c.Drift(seatedDrummer()); ok {
		t.Fatal("Drift without reference should not be ok")
	}

	if _, err := c.Capture(seatedDrummer(), now); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	// failed capture keeps the previous reference
	if _, err := c.Capture(nil, now.Add(time.Minute)); err == nil {
		t.Fatal("Capture(nil) should fail")
	}
	ref, ok := c.Reference()
	if !ok || !ref.CapturedAt.Equal(now) {
		t.Errorf("Reference() = %+v, %v", ref, ok)
	}

	slumped := []types.Keypoint{
		kp(types.LeftShoulder, 100, 130, 0.9),
		kp(types.RightShoulder, 200, 130, 0.9),
		kp(types.LeftHip, 100, 205, 0.9),
		kp(types.RightHip, 200, 205, 0.9),
	}
	d, ok := c.Drift(slumped)
	if !ok {
		t.Fatal("Drift() not ok")
	}
	if d.ShoulderLevel != 30 || d.SeatLevel != 5 {
		t.Errorf("Drift() = %+v, want {30 5}", d)
	}
}

func TestAdviceFor(t *testing.T) {
	tests := []struct {
		metric    string
		value     float64
		wantOK    bool
		wantIssue string
	}{
		{MetricLeftElbow, 95, false, ""},
		{MetricLeftElbow, 70, true, "Arm too tight - limits power and speed"},
		{MetricRightElbow, 130, true, "Arm too extended - reduces control"},
		{MetricLumbar, 15, false, ""},
		{MetricLumbar, 22, true, "Excessive lumbar curve - stress on lower back"},
		{MetricCervical, 25, true, "Head too forward - bring chin back"},
		{MetricShoulderAlignment, 90, false, ""},
		{MetricShoulderAlignment, 60, true, "Uneven shoulders affect stick balance and timing consistency"},
		{MetricSpineAlignment, 0, false, ""},
	}
	for _, tt := range tests {
		adv, ok := AdviceFor(tt.metric, tt.value)
		if ok != tt.wantOK {
			t.Errorf("AdviceFor(%s, %v) ok = %v, want %v", tt.metric, tt.value, ok, tt.wantOK)
			continue
		}
		if ok && (adv.Issue != tt.wantIssue || len(adv.Solutions) == 0) {
			t.Errorf("AdviceFor(%s, %v) = %+v", tt.metric, tt.value, adv)
		}
	}

	adv, _ := AdviceFor(MetricRightElbow, 30)
	if adv.Title != "Right Arm Position" {
		t.Errorf("Title = %q", adv.Title)
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("DefaultPolicy().Validate() = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"Inverted score range", func(p *Policy) { p.MinScore = 10; p.MaxScore = 1 }},
		{"Confidence above one", func(p *Policy) { p.ScoringConfidence = 1.5 }},
		{"Zero elbow scale", func(p *Policy) { p.ElbowScale = 0 }},
		{"Empty elbow band", func(p *Policy) { p.ElbowMin = 120; p.ElbowMax = 60 }},
		{"Empty hip band", func(p *Policy) { p.HipMin = 110; p.HipMax = 110 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestAngleSet_Metrics(t *testing.T) {
	m := DefaultAngleSet().Metrics()
	if len(m) != 9 {
		t.Fatalf("len(Metrics()) = %d, want 9", len(m))
	}
	if m[0].Name != MetricLeftElbow || m[0].Value != 90 || m[0].Unit != "°" {
		t.Errorf("first metric = %+v", m[0])
	}
	if m[6].Name != MetricShoulderAlignment || m[6].Unit != "%" {
		t.Errorf("shoulder metric = %+v", m[6])
	}
}
