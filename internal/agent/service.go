// Package agent はアシスタントのアクティベートとメッセージ送信（危機エスカレーションを含む）を提供する。
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/elora/internal/crisis"
	"github.com/hitoshi/elora/internal/messaging"
	"github.com/hitoshi/elora/internal/metrics"
	"github.com/hitoshi/elora/internal/model"
	"github.com/hitoshi/elora/internal/repository"
	"github.com/hitoshi/elora/internal/security"
)

// alertExcerptLength は通知文面に引用する本文の最大文字数。
const alertExcerptLength = 160

// MessageInput はメッセージ送信の入力。
type MessageInput struct {
	Text    string
	Channel string
	To      string
}

// MessageSender はチャネルを指定して送信するインターフェース。
type MessageSender interface {
	Send(ctx context.Context, ch messaging.Channel, to, text string) error
}

// Service はアシスタントの操作に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tracker  *crisis.Tracker
	sender   MessageSender
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(userRepo repository.UserRepository, tracker *crisis.Tracker, sender MessageSender, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo: userRepo,
		tracker:  tracker,
		sender:   sender,
		metrics:  collector,
	}
}

// Activate は危機カウンターをリセットする。
func (s *Service) Activate(ctx context.Context, userID string) error {
	if err := s.tracker.Reset(ctx, userID); err != nil {
		return fmt.Errorf("危機カウンターのリセットに失敗しました: %w", err)
	}
	slog.Info("agent activated", slog.String("user_id", userID))
	return nil
}

// SendMessage はテキストを危機カウンターに記録したうえで、指定チャネルへ送信する。
// 回数が閾値に達し、ユーザーが同意済みで連絡先電話番号がある場合は、
// 送信前に信頼できる連絡先へWhatsAppで通知する。通知の失敗は送信を妨げない。
func (s *Service) SendMessage(ctx context.Context, userID string, in MessageInput) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	if user != nil {
		s.checkCrisis(ctx, user, in.Text)
	}

	ch, ok := messaging.ParseChannel(in.Channel)
	if !ok {
		return model.NewUnknownChannelError(in.Channel)
	}
	if strings.TrimSpace(in.To) == "" {
		return model.NewValidationError("to is required")
	}

	err = s.sender.Send(ctx, ch, in.To, in.Text)
	s.metrics.RecordMessage(ch.String(), err == nil)
	if errors.Is(err, messaging.ErrNotConfigured) {
		return model.NewChannelNotConfiguredError(ch.String())
	}
	if err != nil {
		return fmt.Errorf("メッセージの送信に失敗しました: %w", err)
	}

	slog.Info("message sent",
		slog.String("user_id", userID),
		slog.String("channel", ch.String()),
	)
	return nil
}

// checkCrisis はテキストを記録し、必要なら通知する。エラーはログに残して握りつぶす。
func (s *Service) checkCrisis(ctx context.Context, user *model.User, text string) {
	count, err := s.tracker.Record(ctx, user.ID, text)
	if err != nil {
		slog.Error("failed to record crisis counter",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if !s.tracker.ShouldAlert(count) || !user.CrisisOptIn || user.TrustedContactPhone == "" {
		return
	}

	err = s.sender.Send(ctx, messaging.ChannelWhatsApp, user.TrustedContactPhone, AlertText(user, text))
	s.metrics.RecordCrisisAlert(err == nil)
	if err != nil {
		slog.Warn("failed to send crisis alert",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	slog.Info("crisis alert sent", slog.String("user_id", user.ID), slog.Int64("count", count))
}

// AlertText は信頼できる連絡先への通知文面を生成する。
func AlertText(user *model.User, text string) string {
	return fmt.Sprintf("%s may need support. Message: '%s'", user.DisplayName(), security.Truncate(text, alertExcerptLength))
}
