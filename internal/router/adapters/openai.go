package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

const (
	defaultOpenAIMaxTokens = 1000
	// Models in this family reject max_tokens and return empty completions
	// unless reasoning effort is pinned low.
	reasoningModelPrefix = "gpt-5"
)

type openaiCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIAdapter talks to the OpenAI Chat Completions API.
type OpenAIAdapter struct {
	cfg         config.ProviderConfig
	completions openaiCompletions
}

func NewOpenAIAdapter(cfg config.ProviderConfig, httpClient *http.Client) *OpenAIAdapter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	for k, v := range cfg.Headers {
		if v != "" {
			opts = append(opts, option.WithHeader(k, v))
		}
	}
	client := openai.NewClient(opts...)
	return &OpenAIAdapter{cfg: cfg, completions: &client.Chat.Completions}
}

func (a *OpenAIAdapter) ID() string { return config.ProviderOpenAI }

func (a *OpenAIAdapter) DisplayName() string { return a.cfg.BotName }

func (a *OpenAIAdapter) DefaultModel() string { return a.cfg.Model }

func (a *OpenAIAdapter) IsAvailable() bool {
	return a.cfg.APIKey != "" && a.completions != nil
}

func (a *OpenAIAdapter) maxTokens() int {
	if a.cfg.MaxTokens > 0 {
		return a.cfg.MaxTokens
	}
	return defaultOpenAIMaxTokens
}

// IsReasoningModel reports whether model needs max_completion_tokens and a
// minimal reasoning effort.
func IsReasoningModel(model string) bool {
	return strings.HasPrefix(model, reasoningModelPrefix)
}

func (a *OpenAIAdapter) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (*types.AIResponse, error) {
	model := selectModel(opts.Model, a.cfg.Model)
	maxTokens := int64(selectMaxTokens(opts.MaxTokens, a.maxTokens()))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	}
	if IsReasoningModel(model) {
		params.MaxCompletionTokens = openai.Int(maxTokens)
		params.ReasoningEffort = shared.ReasoningEffort("minimal")
	} else {
		params.MaxTokens = openai.Int(maxTokens)
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}

	completion, err := a.completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content string
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}

	return &types.AIResponse{
		Content:      content,
		Provider:     a.ID(),
		ProviderName: a.DisplayName(),
		Model:        model,
		Usage: types.NewUsage(
			int(completion.Usage.PromptTokens),
			int(completion.Usage.CompletionTokens),
			int(completion.Usage.TotalTokens),
		),
	}, nil
}

func toOpenAIMessages(messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
