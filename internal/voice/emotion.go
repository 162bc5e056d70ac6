package voice

// Emotion は発話から推定した感情ラベル。
type Emotion string

// 感情ラベル
const (
	EmotionNoisy Emotion = "noisy/uncertain"
	EmotionSad   Emotion = "sad/tired"
	EmotionAngry Emotion = "angry/excited"
	EmotionHappy Emotion = "happy/bright"
	EmotionCalm  Emotion = "calm"
)

// minReliableSNR はSNR（dB）がこれ未満の場合に観測を信頼しない。
const minReliableSNR = 8.0

// ClassifyEmotion は生のピッチとRMSから感情ラベルを推定する。
// 規則は上から順に評価し、最初に一致したものを返す。
func ClassifyEmotion(pitchHz, rms float64, snrDB *float64) Emotion {
	switch {
	case isNoisy(snrDB):
		return EmotionNoisy
	case rms < 0.025 && pitchHz < 140:
		return EmotionSad
	case rms > 0.08 && pitchHz > 180:
		return EmotionAngry
	case rms > 0.05 && pitchHz > 170:
		return EmotionHappy
	default:
		return EmotionCalm
	}
}

func isNoisy(snrDB *float64) bool {
	return snrDB != nil && *snrDB < minReliableSNR
}
