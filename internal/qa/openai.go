package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	systemPrompt       = "Answer concisely and factually."
)

// OpenAIAnswerer はChat Completions APIで回答する。
type OpenAIAnswerer struct {
	client openai.Client
	model  string
}

// NewOpenAIAnswerer はOpenAIAnswererを生成する。modelが空の場合はDefaultOpenAIModelを使用する。
func NewOpenAIAnswerer(apiKey, model string, opts ...option.RequestOption) *OpenAIAnswerer {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIAnswerer{client: openai.NewClient(opts...), model: model}
}

func (a *OpenAIAnswerer) Answer(ctx context.Context, question string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(question),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(256),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// compile-time interface check
var _ Answerer = (*OpenAIAnswerer)(nil)
