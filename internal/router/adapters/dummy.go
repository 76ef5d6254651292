package adapters

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// DummyAdapter returns canned replies without calling any backend. Token
// counts are word counts.
type DummyAdapter struct {
	cfg  config.DummyConfig
	pick func(n int) int
}

func NewDummyAdapter(cfg config.DummyConfig) *DummyAdapter {
	return &DummyAdapter{cfg: cfg, pick: rand.IntN}
}

func (a *DummyAdapter) ID() string { return config.ProviderDummy }

func (a *DummyAdapter) DisplayName() string {
	if a.cfg.BotName != "" {
		return a.cfg.BotName
	}
	return "Dummy Assistant"
}

func (a *DummyAdapter) DefaultModel() string { return a.cfg.Model }

func (a *DummyAdapter) IsAvailable() bool { return true }

func (a *DummyAdapter) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (*types.AIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var last string
	input := 0
	for _, m := range messages {
		input += len(strings.Fields(m.Content))
		if m.Role == types.RoleUser {
			last = m.Content
		}
	}

	candidates := DummyReplies(last)
	content := candidates[a.pick(len(candidates))]
	output := len(strings.Fields(content))

	return &types.AIResponse{
		Content:      content,
		Provider:     a.ID(),
		ProviderName: a.DisplayName(),
		Model:        selectModel(opts.Model, a.cfg.Model),
		Usage:        types.NewUsage(input, output, 0),
	}, nil
}

// DummyReplies returns the canned replies that fit message.
func DummyReplies(message string) []string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return []string{
			"Hello! I'm a dummy AI assistant. How can I help you today?",
			"Hi there! This is a dummy response for testing purposes.",
			"Greetings! I'm simulating an AI response.",
		}
	case strings.Contains(lower, "how are you"):
		return []string{
			"I'm just a dummy AI, but I'm functioning perfectly!",
			"As a dummy provider, I'm always operational!",
		}
	case strings.Contains(message, "?"):
		return []string{
			fmt.Sprintf("That's an interesting question about '%s...'. Here's a dummy answer: The solution involves multiple factors.", prefix(message, 50)),
			"Based on your query, here's a simulated response: Consider checking the documentation.",
			"Dummy AI response: I would recommend exploring different approaches to solve this.",
		}
	default:
		return []string{
			fmt.Sprintf("I received your message: '%s...'. This is a dummy response for development/testing.", prefix(message, 50)),
			"This is a simulated AI response. In production, real AI would process this request.",
			fmt.Sprintf("Dummy AI acknowledges: %s... Processing complete.", prefix(message, 30)),
			"Mock response generated successfully. Replace with real AI provider for production use.",
		}
	}
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
