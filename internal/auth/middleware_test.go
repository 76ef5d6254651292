package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// mockClientStore implements ClientStore for testing.
type mockClientStore struct {
	clients map[string]*types.Client
	err     error
}

func (m *mockClientStore) Lookup(ctx context.Context, keyHash string) (*types.Client, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.clients[keyHash], nil
}

func serve(t *testing.T, clients ClientStore, setup func(*http.Request)) (*httptest.ResponseRecorder, *types.Client) {
	t.Helper()
	var got *types.Client
	handler := Middleware(clients)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClientFromContext(r.Context())
		if !ok {
			t.Error("expected client in context")
		}
		got = c
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/chat/sessions/x", nil)
	setup(req)
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-ID", "test-req")
	handler.ServeHTTP(w, req)
	return w, got
}

func TestMiddleware(t *testing.T) {
	rawKey := "cb-prod-testkey12345678901234567890ab"
	inactiveKey := "cb-prod-inactive000000000000000000000"
	clients := &mockClientStore{clients: map[string]*types.Client{
		HashKey(rawKey):      {ID: "client-1", Name: "Acme", IsActive: true},
		HashKey(inactiveKey): {ID: "client-2", Name: "Gone", IsActive: false},
	}}

	tests := []struct {
		name       string
		setup      func(*http.Request)
		wantStatus int
		wantClient string
	}{
		{"missing key", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"basic auth ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }, http.StatusUnauthorized, ""},
		{"unknown key", func(r *http.Request) { r.Header.Set(HeaderAPIKey, "cb-prod-invalidkey123") }, http.StatusUnauthorized, ""},
		{"inactive client", func(r *http.Request) { r.Header.Set(HeaderAPIKey, inactiveKey) }, http.StatusUnauthorized, ""},
		{"x-api-key", func(r *http.Request) { r.Header.Set(HeaderAPIKey, rawKey) }, http.StatusOK, "client-1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+rawKey) }, http.StatusOK, "client-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, got := serve(t, clients, tt.setup)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantClient != "" && (got == nil || got.ID != tt.wantClient) {
				t.Errorf("client = %+v, want %s", got, tt.wantClient)
			}
		})
	}
}

func TestMiddleware_LookupError(t *testing.T) {
	clients := &mockClientStore{err: errors.New("db down")}
	handler := Middleware(clients)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderAPIKey, "cb-prod-x")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestCachedClientStore_WithoutRedis(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	hash := HashKey("cb-dev-key")
	if err := mem.CreateClient(ctx, &types.Client{Name: "Acme", APIKeyHash: hash, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	cs := NewCachedClientStore(mem, nil, time.Minute)

	c, err := cs.Lookup(ctx, hash)
	if err != nil || c == nil || c.Name != "Acme" {
		t.Fatalf("Lookup = %+v, %v", c, err)
	}

	missing, err := cs.Lookup(ctx, HashKey("cb-dev-other"))
	if err != nil || missing != nil {
		t.Errorf("unknown key = %+v, %v; want nil, nil", missing, err)
	}
	if err := cs.Invalidate(ctx, hash); err != nil {
		t.Errorf("Invalidate without redis: %v", err)
	}
}

func TestCachedClientStore_Revoke(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	hash := HashKey("cb-live-revoked")
	if err := mem.CreateClient(ctx, &types.Client{Name: "Acme", APIKeyHash: hash, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	cs := NewCachedClientStore(mem, nil, time.Minute)
	if c, _ := cs.Lookup(ctx, hash); c == nil {
		t.Fatal("client should resolve before revoke")
	}

	if err := cs.Revoke(ctx, hash); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	c, err := cs.Lookup(ctx, hash)
	if err != nil || c != nil {
		t.Errorf("Lookup after revoke = %+v, %v; want nil, nil", c, err)
	}

	if err := cs.Revoke(ctx, hash); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Revoke = %v, want ErrNotFound", err)
	}

	w, _ := serve(t, cs, func(r *http.Request) { r.Header.Set(HeaderAPIKey, "cb-live-revoked") })
	if w.Code != http.StatusUnauthorized {
		t.Errorf("revoked key status = %d, want 401", w.Code)
	}
}
