package auth

import (
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("prod")
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if !strings.HasPrefix(key, "cb-prod-") {
		t.Errorf("key should start with 'cb-prod-', got: %s", key)
	}

	// cb-prod- is 8 chars, plus 32 random = 40 total
	if len(key) != 40 {
		t.Errorf("expected key length 40, got %d: %s", len(key), key)
	}

	key2, _ := GenerateKey("prod")
	if key == key2 {
		t.Error("two generated keys should not be identical")
	}
}

func TestGenerateKey_DifferentEnv(t *testing.T) {
	key, err := GenerateKey("dev")
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if !strings.HasPrefix(key, "cb-dev-") {
		t.Errorf("key should start with 'cb-dev-', got: %s", key)
	}
}

func TestHashKey(t *testing.T) {
	key := "cb-prod-abcdefghijklmnopqrstuvwxyz012345"
	hash := HashKey(key)

	if len(hash) != 64 {
		t.Errorf("expected hash length 64, got %d", len(hash))
	}
	if hash != HashKey(key) {
		t.Error("same key should produce same hash")
	}
	if hash == HashKey("cb-prod-different") {
		t.Error("different keys should produce different hashes")
	}
}

func TestKeyPrefix(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"cb-prod-abcdefghijklmnopqrstuvwxyz012345", "cb-prod-abcdefgh"},
		{"cb-dev-12345678901234567890123456789012", "cb-dev-12345678"},
		{"cb-dev-abc", "cb-dev-abc"},
		{"short", "short"},
		{"nodashesatallinthiskey", "nodashesatal"},
	}

	for _, tt := range tests {
		got := KeyPrefix(tt.key)
		if got != tt.expected {
			t.Errorf("KeyPrefix(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestSafePrefix(t *testing.T) {
	if got := safePrefix("cb-prod-abcdefghijklmnop"); got != "cb-prod-abcdef..." {
		t.Errorf("safePrefix = %q", got)
	}
	if got := safePrefix("short"); got != "short" {
		t.Errorf("safePrefix = %q", got)
	}
}
