package geometry

import (
	"math"
	"math/rand"
	"testing"
)

const epsilon = 1e-9

func TestInteriorAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Point
		want    float64
		wantOK  bool
	}{
		{
			name:   "Right angle",
			a:      Point{100, 100},
			b:      Point{100, 150},
			c:      Point{150, 150},
			want:   90,
			wantOK: true,
		},
		{
			name:   "Collinear with vertex between",
			a:      Point{0, 0},
			b:      Point{5, 5},
			c:      Point{10, 10},
			want:   180,
			wantOK: true,
		},
		{
			name:   "Folded back (A equals C)",
			a:      Point{3, 4},
			b:      Point{0, 0},
			c:      Point{3, 4},
			want:   0,
			wantOK: true,
		},
		{
			name:   "45 degrees",
			a:      Point{1, 0},
			b:      Point{0, 0},
			c:      Point{1, 1},
			want:   45,
			wantOK: true,
		},
		{
			name:   "Degenerate: A on vertex",
			a:      Point{2, 2},
			b:      Point{2, 2},
			c:      Point{5, 2},
			wantOK: false,
		},
		{
			name:   "Degenerate: C on vertex",
			a:      Point{0, 7},
			b:      Point{1, 1},
			c:      Point{1, 1},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InteriorAngle(tt.a, tt.b, tt.c)
			if ok != tt.wantOK {
				t.Fatalf("InteriorAngle() ok = %v, want %v", ok, tt.wantOK)
			}
			if math.IsNaN(got) {
				t.Fatal("InteriorAngle() returned NaN")
			}
			if ok && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("InteriorAngle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInteriorAngle_SymmetryAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		a := Point{rng.Float64()*640 - 320, rng.Float64()*480 - 240}
		b := Point{rng.Float64()*640 - 320, rng.Float64()*480 - 240}
		c := Point{rng.Float64()*640 - 320, rng.Float64()*480 - 240}

		abc, ok1 := InteriorAngle(a, b, c)
		cba, ok2 := InteriorAngle(c, b, a)
		if !ok1 || !ok2 {
			continue
		}
		if abc < 0 || abc > 180 {
			t.Fatalf("angle %v out of [0,180] for %v %v %v", abc, a, b, c)
		}
		if math.Abs(abc-cba) > epsilon {
			t.Fatalf("asymmetric angle: %v vs %v for %v %v %v", abc, cba, a, b, c)
		}
	}
}

func TestInteriorAngleAtan2_MatchesDotProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		a := Point{rng.Float64() * 640, rng.Float64() * 480}
		b := Point{rng.Float64() * 640, rng.Float64() * 480}
		c := Point{rng.Float64() * 640, rng.Float64() * 480}

		dot, ok1 := InteriorAngle(a, b, c)
		fold, ok2 := InteriorAngleAtan2(a, b, c)
		if ok1 != ok2 {
			t.Fatalf("degeneracy disagrees for %v %v %v", a, b, c)
		}
		if !ok1 {
			continue
		}
		// acos loses precision near 0 and 180, so allow a slightly looser bound
		if math.Abs(dot-fold) > 1e-5 {
			t.Fatalf("formulations disagree: dot=%v atan2=%v for %v %v %v", dot, fold, a, b, c)
		}
	}
}

func TestVerticalDeviation(t *testing.T) {
	tests := []struct {
		name        string
		top, bottom Point
		want        float64
	}{
		{"Upright", Point{150, 100}, Point{150, 200}, 0},
		{"Shifted right 45", Point{250, 100}, Point{150, 200}, 45},
		{"Shifted left 45", Point{50, 100}, Point{150, 200}, -45},
		{"Coincident points", Point{10, 10}, Point{10, 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerticalDeviation(tt.top, tt.bottom)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("VerticalDeviation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(math.NaN(), 1, 10); got != 1 {
		t.Errorf("Clamp(NaN) = %v, want 1", got)
	}
	if got := Clamp(-4, 1, 10); got != 1 {
		t.Errorf("Clamp(-4) = %v, want 1", got)
	}
	if got := Clamp(12, 1, 10); got != 10 {
		t.Errorf("Clamp(12) = %v, want 10", got)
	}
	if got := Clamp(7.5, 1, 10); got != 7.5 {
		t.Errorf("Clamp(7.5) = %v, want 7.5", got)
	}
}
