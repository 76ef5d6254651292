package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// BudgetStatus reports a client's token usage for the current UTC day.
type BudgetStatus struct {
	Allowed bool
	Used    int64
	Limit   int64
}

// TokenBudget is satisfied by *BudgetTracker.
type TokenBudget interface {
	Check(ctx context.Context, clientID string, limit int64) BudgetStatus
	Record(ctx context.Context, clientID string, tokens int64) error
}

// BudgetTracker counts provider tokens per client per UTC day in Redis.
// Without Redis nothing is counted and every check passes.
type BudgetTracker struct {
	rdb *redis.Client
	now func() time.Time
}

func NewBudgetTracker(rdb *redis.Client) *BudgetTracker {
	return &BudgetTracker{rdb: rdb, now: time.Now}
}

func (b *BudgetTracker) key(clientID string) string {
	return fmt.Sprintf("chatbot:tokens:daily:%s:%s", clientID, b.now().UTC().Format("2006-01-02"))
}

// Check reports whether the client is still under limit. A limit of zero
// or less means unlimited.
func (b *BudgetTracker) Check(ctx context.Context, clientID string, limit int64) BudgetStatus {
	if b.rdb == nil || limit <= 0 {
		return BudgetStatus{Allowed: true, Limit: limit}
	}
	used, err := b.rdb.Get(ctx, b.key(clientID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("token budget check failed, allowing request", "client_id", clientID, "error", err)
		return BudgetStatus{Allowed: true, Limit: limit}
	}
	return BudgetStatus{Allowed: used < limit, Used: used, Limit: limit}
}

// Record adds tokens to today's counter. The key expires an hour after
// the UTC day ends.
func (b *BudgetTracker) Record(ctx context.Context, clientID string, tokens int64) error {
	if b.rdb == nil || tokens <= 0 {
		return nil
	}
	now := b.now().UTC()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)

	key := b.key(clientID)
	pipe := b.rdb.Pipeline()
	pipe.IncrBy(ctx, key, tokens)
	pipe.Expire(ctx, key, endOfDay.Sub(now)+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record token usage: %w", err)
	}
	return nil
}
