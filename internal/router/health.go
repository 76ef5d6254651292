package router

import (
	"sort"
	"sync"
	"time"
)

// ProviderHealth is the observed outcome history of one provider.
type ProviderHealth struct {
	Provider    string    `json:"provider"`
	Successes   int64     `json:"successes"`
	Failures    int64     `json:"failures"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// HealthTracker records provider call outcomes for reporting. It never
// blocks or reroutes requests.
type HealthTracker struct {
	mu        sync.RWMutex
	providers map[string]*ProviderHealth
	now       func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		providers: make(map[string]*ProviderHealth),
		now:       time.Now,
	}
}

func (ht *HealthTracker) entry(provider string) *ProviderHealth {
	h, ok := ht.providers[provider]
	if !ok {
		h = &ProviderHealth{Provider: provider}
		ht.providers[provider] = h
	}
	return h
}

func (ht *HealthTracker) RecordSuccess(provider string) {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	h := ht.entry(provider)
	h.Successes++
	h.LastSuccess = ht.now()
}

func (ht *HealthTracker) RecordFailure(provider string, err error) {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	h := ht.entry(provider)
	h.Failures++
	h.LastFailure = ht.now()
	if err != nil {
		h.LastError = err.Error()
	}
}

// Snapshot returns a copy of every provider's record, sorted by provider id.
func (ht *HealthTracker) Snapshot() []ProviderHealth {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	out := make([]ProviderHealth, 0, len(ht.providers))
	for _, h := range ht.providers {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
