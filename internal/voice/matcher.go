package voice

import "github.com/hitoshi/elora/internal/model"

// OwnerThreshold は本人と判定する類似度の下限（以上で本人）。
const OwnerThreshold = 0.55

// BestMatch はサンプルに最も近い声紋プロファイルとその類似度を返す。
// プロファイルが空の場合は(nil, 0)を返す。
// 同じ類似度のプロファイルが複数ある場合は先に現れたものを選ぶ。
// ConditionTagによる絞り込みは行わず、すべてのプロファイルを候補とする。
func BestMatch(pitchHz, rms float64, profiles []model.VoiceProfile) (*model.VoiceProfile, float64) {
	if len(profiles) == 0 {
		return nil, 0
	}

	sample := NewPoint(pitchHz, rms)
	var best *model.VoiceProfile
	bestSim := -1.0
	for i := range profiles {
		sim := Similarity(Distance(sample, NewPoint(profiles[i].AvgPitchHz, profiles[i].AvgRMS)))
		if sim > bestSim {
			best = &profiles[i]
			bestSim = sim
		}
	}

	return best, bestSim
}

// IsOwner は類似度が本人判定の閾値以上かを返す。
func IsOwner(similarity float64) bool {
	return similarity >= OwnerThreshold
}
