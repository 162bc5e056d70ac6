// Package qa は質問への短い事実回答を提供する。
// OpenAIを優先し、未設定または失敗した場合はWikipediaの要約にフォールバックする。
package qa

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/elora/internal/metrics"
	"github.com/hitoshi/elora/internal/model"
	"github.com/hitoshi/elora/internal/security"
)

const (
	// MaxAnswerLength は回答の最大文字数。
	MaxAnswerLength = 1200

	// DefaultAnswer はどの回答元からも回答が得られなかった場合の回答。
	DefaultAnswer = "Sorry, I couldn’t find a reliable answer."
)

// Answerer は質問に回答する。回答が見つからない場合は空文字列を返す。
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Source は名前付きの回答元。
type Source struct {
	Name     string
	Answerer Answerer
}

// Service は回答元を順に試し、最初の空でない回答を返す。
type Service struct {
	sources   []Source
	sanitizer *security.TextSanitizer
	metrics   metrics.MetricsCollector
}

// NewService はServiceを生成する。sourcesは優先順に並べる。
func NewService(sanitizer *security.TextSanitizer, collector metrics.MetricsCollector, sources ...Source) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{sources: sources, sanitizer: sanitizer, metrics: collector}
}

// Ask は質問に回答する。空の質問はEmptyQuestionエラーを返す。
// 回答元のエラーはログに残して次の回答元へ進む。
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", model.NewEmptyQuestionError()
	}

	for _, src := range s.sources {
		answer, err := src.Answerer.Answer(ctx, q)
		if err != nil {
			slog.Warn("answer source failed",
				slog.String("source", src.Name),
				slog.String("error", err.Error()),
			)
			continue
		}

		answer = s.sanitizer.Strip(answer)
		if answer == "" {
			continue
		}

		s.metrics.RecordAnswer(src.Name)
		return security.Truncate(answer, MaxAnswerLength), nil
	}

	s.metrics.RecordAnswer("default")
	return DefaultAnswer, nil
}
