package voice

import "math"

// maxDistance は正規化空間で想定する最大距離（√2）。
const maxDistance = math.Sqrt2

// Point は正規化済みの(ピッチ, 音量)座標。
type Point struct {
	Pitch    float64
	Loudness float64
}

// NewPoint は生の特徴量から正規化済み座標を生成する。
func NewPoint(pitchHz, rms float64) Point {
	return Point{
		Pitch:    NormalizePitch(pitchHz),
		Loudness: NormalizeLoudness(rms),
	}
}

// Distance は2点間のユークリッド距離を返す。
func Distance(a, b Point) float64 {
	return math.Hypot(a.Pitch-b.Pitch, a.Loudness-b.Loudness)
}

// Similarity は距離を[0,1]の類似度に変換する。
// 1 - distance/√2 を[0,1]にクランプする。距離0で1.0、距離√2以上で0.0。
func Similarity(distance float64) float64 {
	return clamp(1-sanitize(distance)/maxDistance, 0, 1)
}
