// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultProfileVersion は声紋プロファイルと顔シグネチャの既定バージョン。
const DefaultProfileVersion = "v1"

// VoiceProfile はユーザーが登録した声の基準点を表す。
// ConditionTag（"neutral"、"fever"、"quiet-room"など）で体調や環境ごとに複数登録できる。
type VoiceProfile struct {
	ID           string
	UserID       string
	Version      string
	AvgPitchHz   float64
	AvgRMS       float64
	ConditionTag *string // nilはタグなし。タグなしはupsertキーにならない
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VoiceSession はpingを受け付ける時間区間を表す。
// EndedAtがnilならOPEN、設定済みならCLOSED。
type VoiceSession struct {
	ID          string
	UserID      string
	Origin      *string
	DeviceLabel *string
	StartedAt   time.Time
	EndedAt     *time.Time
}

// IsClosed はセッションが停止済みかを返す。
func (s *VoiceSession) IsClosed() bool {
	return s.EndedAt != nil
}

// OwnedBy はセッションが指定ユーザーの所有かを返す。
func (s *VoiceSession) OwnedBy(userID string) bool {
	return s.UserID == userID
}

// VoicePing はセッション内の1回の観測と判定結果を表す。作成後は不変。
type VoicePing struct {
	ID                string
	SessionID         string
	Timestamp         time.Time
	PitchHz           float64
	RMS               float64
	ZCR               *float64 // 記録のみ。判定には使用しない
	SNRDB             *float64
	Emotion           string
	Similarity        float64
	IsOwner           bool
	MatchedProfileTag *string
	HealthFlag        bool
}

// FaceSignature は正方形にダウンサンプルした顔画像の輝度ベクトル。
// len(Data) == Size*Size。
type FaceSignature struct {
	Size int       `json:"size"`
	Data []float64 `json:"data"`
}

// BiometricFace はユーザーごとに1件保持する顔シグネチャ。
type BiometricFace struct {
	ID        string
	UserID    string
	Version   string
	Signature FaceSignature
	CreatedAt time.Time
	UpdatedAt time.Time
}
