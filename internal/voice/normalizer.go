// Package voice は音声特徴量による本人照合と状態推定を提供する。
// すべての関数は純粋関数で、エラーを返さない。
package voice

import "math"

// ピッチ正規化の定数（Hz）
const (
	pitchCeiling  = 500.0 // 入力として受け付ける上限
	pitchFloor    = 60.0  // 正規化前に切り上げる下限
	pitchClampMax = 450.0 // 正規化前に切り下げる上限
	pitchScale    = 450.0
)

// 音量（RMS）正規化の定数
const (
	loudnessCeiling = 0.25
	loudnessScale   = 0.20
)

// NormalizePitch は生のピッチ（Hz）を照合用のスケールに変換する。
// [0,500]にクランプした後[60,450]にクランプし、450で割る。値域は(0.133…, 1.0]。
func NormalizePitch(raw float64) float64 {
	p := clamp(sanitize(raw), 0, pitchCeiling)
	p = clamp(p, pitchFloor, pitchClampMax)
	return p / pitchScale
}

// NormalizeLoudness は生のRMSを照合用のスケールに変換する。
// [0,0.25]にクランプし、0.20で割る。値域は[0,1.25]。
func NormalizeLoudness(raw float64) float64 {
	r := clamp(sanitize(raw), 0, loudnessCeiling)
	return r / loudnessScale
}

// sanitize はNaNを0として扱う。
// math.Max/MinはNaNを伝播させるため、クランプ前に置き換える。
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
