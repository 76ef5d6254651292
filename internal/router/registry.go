package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/router/adapters"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// ProviderUnavailableError is returned when the requested (or default)
// provider id has no registered adapter.
type ProviderUnavailableError struct {
	Name      string
	Available []string
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("AI provider '%s' is not available. Check your API keys. Available providers: [%s]",
		e.Name, strings.Join(e.Available, ", "))
}

// Registry maps provider ids to adapters. It is populated once at startup
// and read-only afterwards.
type Registry struct {
	mu              sync.RWMutex
	adapters        map[string]adapters.ProviderAdapter
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	return &Registry{
		adapters:        make(map[string]adapters.ProviderAdapter),
		defaultProvider: defaultProvider,
	}
}

func (r *Registry) Register(adapter adapters.ProviderAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.ID()] = adapter
}

func (r *Registry) DefaultProvider() string {
	return r.defaultProvider
}

// Resolve returns the adapter for name, or for the default provider when
// name is empty.
func (r *Registry) Resolve(name string) (adapters.ProviderAdapter, error) {
	if name == "" {
		name = r.defaultProvider
	}
	r.mu.RLock()
	a, ok := r.adapters[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ProviderUnavailableError{Name: name, Available: r.ListAvailable()}
	}
	return a, nil
}

// ListAvailable returns the registered provider ids, sorted.
func (r *Registry) ListAvailable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) IsAvailable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[name]
	return ok
}

// Generate resolves name and delegates to the adapter. Adapter errors are
// returned unchanged.
func (r *Registry) Generate(ctx context.Context, name string, messages []types.Message, opts types.GenerateOptions) (*types.AIResponse, error) {
	adapter, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return adapter.Generate(ctx, messages, opts)
}

// BuildFromConfig registers an adapter for each provider whose API key is
// set, plus the dummy provider when it is enabled.
func BuildFromConfig(provCfg *config.ProvidersConfig) *Registry {
	registry := NewRegistry(provCfg.DefaultProvider)

	if provCfg.Anthropic.APIKey != "" {
		registry.Register(adapters.NewAnthropicAdapter(provCfg.Anthropic, newHTTPClient(provCfg.Anthropic)))
	}
	if provCfg.OpenAI.APIKey != "" {
		registry.Register(adapters.NewOpenAIAdapter(provCfg.OpenAI, newHTTPClient(provCfg.OpenAI)))
	}
	if provCfg.Dummy.Enabled {
		registry.Register(adapters.NewDummyAdapter(provCfg.Dummy))
	}
	return registry
}

func newHTTPClient(cfg config.ProviderConfig) *http.Client {
	maxIdle := cfg.MaxConcurrent
	if maxIdle <= 0 {
		maxIdle = 16
	}
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        maxIdle,
			MaxIdleConnsPerHost: maxIdle,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

var (
	sharedMu   sync.Mutex
	sharedOnce = new(sync.Once)
	shared     *Registry
)

// Init builds the process-wide registry on first call. Later calls return
// the same registry and ignore cfg.
func Init(cfg *config.ProvidersConfig) *Registry {
	sharedMu.Lock()
	once := sharedOnce
	sharedMu.Unlock()

	once.Do(func() {
		r := BuildFromConfig(cfg)
		sharedMu.Lock()
		shared = r
		sharedMu.Unlock()
		slog.Info("provider registry initialized",
			"providers", r.ListAvailable(),
			"default_provider", r.DefaultProvider(),
		)
	})

	sharedMu.Lock()
	defer sharedMu.Unlock()
	return shared
}

// ResetForTesting discards the process-wide registry so the next Init
// builds a new one.
func ResetForTesting() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedOnce = new(sync.Once)
	shared = nil
}
