// Package crisis は危機的な発言の検出とユーザーごとのカウンターを提供する。
package crisis

import (
	"context"
	"strings"
)

// DefaultThreshold は信頼できる連絡先へ通知するまでの検出回数。
const DefaultThreshold = 3

// keywords は危機的な発言とみなす語句。小文字で保持する。
var keywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"harm myself",
	"murder",
	"kill someone",
	"rape",
}

// Detect はテキストに危機語句が含まれるかを大文字小文字を区別せずに判定する。
func Detect(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// CounterStore はユーザーごとの検出回数を保持する。
type CounterStore interface {
	// Increment は回数を1増やし、増加後の値を返す。
	Increment(ctx context.Context, userID string) (int64, error)

	// Get は現在の回数を返す。未記録の場合は0。
	Get(ctx context.Context, userID string) (int64, error)

	// Reset は回数を0に戻す。
	Reset(ctx context.Context, userID string) error
}

// Tracker はテキストを記録し、危機語句を含む場合のみカウンターを進める。
type Tracker struct {
	store     CounterStore
	threshold int64
}

// NewTracker はTrackerを生成する。threshold が0以下の場合はDefaultThresholdを使用する。
func NewTracker(store CounterStore, threshold int) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{store: store, threshold: int64(threshold)}
}

// Record はテキストを記録し、記録後の回数を返す。
func (t *Tracker) Record(ctx context.Context, userID, text string) (int64, error) {
	if Detect(text) {
		return t.store.Increment(ctx, userID)
	}
	return t.store.Get(ctx, userID)
}

// ShouldAlert は回数が閾値に達しているかを返す。
func (t *Tracker) ShouldAlert(count int64) bool {
	return count >= t.threshold
}

// Reset はユーザーの回数を0に戻す。
func (t *Tracker) Reset(ctx context.Context, userID string) error {
	return t.store.Reset(ctx, userID)
}
