// Package model はドメインモデルを定義する。
package model

import "time"

// User はアシスタント利用ユーザーを表す。
// PasswordHashが空のユーザーはGoogleサインイン専用アカウント。
type User struct {
	ID       string // UUID
	Username string
	FullName string
	Email    string

	PasswordHash string

	AgentName    string
	WorkSchedule string

	// 危機エスカレーション
	CrisisOptIn         bool
	TrustedContactName  string
	TrustedContactPhone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName は通知文面に使う表示名を返す。氏名が未設定ならユーザー名を返す。
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
