package auth

import (
	"context"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

type contextKey string

const clientContextKey contextKey = "chatbot_client"

func ContextWithClient(ctx context.Context, client *types.Client) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

func ClientFromContext(ctx context.Context) (*types.Client, bool) {
	client, ok := ctx.Value(clientContextKey).(*types.Client)
	return client, ok && client != nil
}
