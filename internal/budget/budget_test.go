package budget

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
		{"héllo wörld", 3},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 10) + strings.Repeat("b", 10)

	tests := []struct {
		name     string
		text     string
		max      int
		preserve bool
		want     string
	}{
		{"within budget", "short", 10, false, "short"},
		{"keep head", long, 2, false, "aaaaa..."},
		{"keep tail", long, 2, true, "...bbbbb"},
		{"zero budget head", long, 0, false, "..."},
		{"zero budget tail", long, 0, true, "..."},
		{"negative budget", long, -3, true, "..."},
		{"one token", long, 1, false, "a..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.max, tt.preserve); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	text := strings.Repeat("ü", 20)
	got := Truncate(text, 2, false)
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8: %q", got)
	}
	if utf8.RuneCountInString(got) != 8 {
		t.Errorf("rune count = %d, want 8", utf8.RuneCountInString(got))
	}
}

func TestTruncate_Idempotent(t *testing.T) {
	inputs := []string{"", "abc", strings.Repeat("word ", 500), strings.Repeat("日本", 77)}
	for _, text := range inputs {
		for _, n := range []int{0, 1, 2, 5, 100, 3000} {
			for _, preserve := range []bool{false, true} {
				once := Truncate(text, n, preserve)
				twice := Truncate(once, n, preserve)
				if once != twice {
					t.Errorf("Truncate not idempotent for len=%d n=%d preserve=%v", len(text), n, preserve)
				}
			}
		}
	}
}

func TestTruncate_RespectsBudget(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 1000)
	for n := 1; n <= 200; n++ {
		for _, preserve := range []bool{false, true} {
			got := Truncate(text, n, preserve)
			if EstimateTokens(got) > n+1 {
				t.Fatalf("n=%d: estimate %d exceeds budget", n, EstimateTokens(got))
			}
		}
	}
}

func TestWasTruncated(t *testing.T) {
	if WasTruncated("abcd", 1) {
		t.Error("4 chars fit in one token")
	}
	if !WasTruncated("abcde", 1) {
		t.Error("5 chars do not fit in one token")
	}
}
