package voice

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// TestNormalizePitch は境界値とクランプの挙動を検証する。
func TestNormalizePitch(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "0は下限60Hzに切り上げられる", raw: 0, want: 60.0 / 450.0},
		{name: "負値は下限に切り上げられる", raw: -30, want: 60.0 / 450.0},
		{name: "60Hzはそのまま", raw: 60, want: 60.0 / 450.0},
		{name: "225Hzは0.5", raw: 225, want: 0.5},
		{name: "450Hzは1.0", raw: 450, want: 1.0},
		{name: "500Hzは450に切り下げられる", raw: 500, want: 1.0},
		{name: "極端な値も1.0に収まる", raw: 1e9, want: 1.0},
		{name: "NaNは0として扱う", raw: math.NaN(), want: 60.0 / 450.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePitch(tt.raw)
			if !almostEqual(got, tt.want) {
				t.Errorf("NormalizePitch(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizePitch_Range は0以上の入力が常に[60/450, 1.0]に収まることを検証する。
func TestNormalizePitch_Range(t *testing.T) {
	lo := 60.0 / 450.0
	for p := 0.0; p <= 1000; p += 0.5 {
		got := NormalizePitch(p)
		if got < lo-epsilon || got > 1.0+epsilon {
			t.Fatalf("NormalizePitch(%v) = %v, out of range", p, got)
		}
	}
}

// TestNormalizeLoudness は境界値とクランプの挙動を検証する。
func TestNormalizeLoudness(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "0は0", raw: 0, want: 0},
		{name: "負値は0", raw: -1, want: 0},
		{name: "0.1は0.5", raw: 0.1, want: 0.5},
		{name: "0.2は1.0", raw: 0.2, want: 1.0},
		{name: "0.25は上限1.25", raw: 0.25, want: 1.25},
		{name: "0.25を超えると飽和する", raw: 3, want: 1.25},
		{name: "NaNは0として扱う", raw: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLoudness(tt.raw)
			if !almostEqual(got, tt.want) {
				t.Errorf("NormalizeLoudness(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeLoudness_Monotonic は値域と単調非減少性を検証する。
func TestNormalizeLoudness_Monotonic(t *testing.T) {
	prev := NormalizeLoudness(-0.5)
	for r := -0.5; r <= 0.5; r += 0.001 {
		got := NormalizeLoudness(r)
		if got < 0 || got > 1.25+epsilon {
			t.Fatalf("NormalizeLoudness(%v) = %v, out of range", r, got)
		}
		if got < prev {
			t.Fatalf("NormalizeLoudness(%v) = %v, decreased from %v", r, got, prev)
		}
		prev = got
	}
}

// TestNormalize_Deterministic は同一入力に対して常に同一出力を返すことを検証する。
func TestNormalize_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if NormalizePitch(187.3) != NormalizePitch(187.3) {
			t.Fatal("NormalizePitch is not deterministic")
		}
		if NormalizeLoudness(0.042) != NormalizeLoudness(0.042) {
			t.Fatal("NormalizeLoudness is not deterministic")
		}
	}
}
