package voice

// FlagHealth は体調不良の兆候（声の張りの低下）を検出する。
// basePitchはベースラインのピッチ（Hz）。nilまたは0以下は未設定として扱う。
// baseRMSは受け取るが判定には使用しない。
// SNRが低い場合は他の条件に関わらずfalseを返す。
func FlagHealth(pitchHz, rms float64, basePitch, baseRMS, snrDB *float64) bool {
	if isNoisy(snrDB) {
		return false
	}

	if basePitch != nil && *basePitch > 0 {
		return pitchHz > 0 && pitchHz < 0.8*(*basePitch) && rms < 0.035
	}

	return rms < 0.03 && pitchHz < 140
}
