package adapters

import (
	"context"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// ProviderAdapter is one AI backend behind the uniform generate contract.
// Implementations make exactly one backend call per Generate and return
// backend errors unchanged.
type ProviderAdapter interface {
	// ID is the stable provider id ("claude", "openai", "dummy").
	ID() string
	// DisplayName is the bot name reported as providerName.
	DisplayName() string
	DefaultModel() string
	IsAvailable() bool
	Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (*types.AIResponse, error)
}

// selectModel returns the override when non-empty, else the default.
func selectModel(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

// selectMaxTokens returns the caller's cap when set, else the adapter default.
func selectMaxTokens(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}
