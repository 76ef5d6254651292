package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

const defaultAnthropicMaxTokens = 1000

type anthropicMessages interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicAdapter talks to the Anthropic Messages API.
type AnthropicAdapter struct {
	cfg  config.ProviderConfig
	msgs anthropicMessages
}

func NewAnthropicAdapter(cfg config.ProviderConfig, httpClient *http.Client) *AnthropicAdapter {
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
	client := anthropic.NewClient(opts...)
	return &AnthropicAdapter{cfg: cfg, msgs: &client.Messages}
}

func (a *AnthropicAdapter) ID() string { return config.ProviderClaude }

func (a *AnthropicAdapter) DisplayName() string { return a.cfg.BotName }

func (a *AnthropicAdapter) DefaultModel() string { return a.cfg.Model }

func (a *AnthropicAdapter) IsAvailable() bool {
	return a.cfg.APIKey != "" && a.msgs != nil
}

func (a *AnthropicAdapter) maxTokens() int {
	if a.cfg.MaxTokens > 0 {
		return a.cfg.MaxTokens
	}
	return defaultAnthropicMaxTokens
}

func (a *AnthropicAdapter) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (*types.AIResponse, error) {
	model := selectModel(opts.Model, a.cfg.Model)

	var system []anthropic.TextBlockParam
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(selectMaxTokens(opts.MaxTokens, a.maxTokens())),
	}
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case types.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = system
	}
	if opts.Temperature != nil {
		params.Temperature = param.NewOpt(*opts.Temperature)
	}

	msg, err := a.msgs.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &types.AIResponse{
		Content:      text.String(),
		Provider:     a.ID(),
		ProviderName: a.DisplayName(),
		Model:        model,
		Usage:        types.NewUsage(int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens), 0),
	}, nil
}
