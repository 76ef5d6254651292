package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
	keyPrefix    = "cb"
)

// GenerateKey creates a new client API key: cb-{env}-{32 random alphanumeric chars}
func GenerateKey(env string) (string, error) {
	random, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate random: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", keyPrefix, env, random), nil
}

// HashKey returns the SHA-256 hex digest of an API key.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// KeyPrefix returns the display-safe part of a key: cb-{env}-{first 8 chars}.
func KeyPrefix(key string) string {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) < 3 {
		if len(key) > 12 {
			return key[:12]
		}
		return key
	}
	random := parts[2]
	if len(random) > 8 {
		random = random[:8]
	}
	return parts[0] + "-" + parts[1] + "-" + random
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}

// safePrefix returns a loggable prefix of an API key, never the full key.
func safePrefix(key string) string {
	if len(key) > 14 {
		return key[:14] + "..."
	}
	return key
}
