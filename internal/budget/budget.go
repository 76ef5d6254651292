// Package budget estimates prompt sizes and cuts text down to a token budget.
//
// Token counts are approximations (four characters per token). Every budget
// constant used when assembling prompts is expressed in these units.
package budget

import "unicode/utf8"

const (
	charsPerToken = 4
	ellipsis      = "..."
)

// EstimateTokens returns ceil(characters / 4), counting Unicode code points.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// Truncate shortens text so that it fits maxTokens. Text already within the
// budget is returned unchanged. Otherwise the head is kept and "..." appended,
// or with preserveEnding the tail is kept and "..." prepended.
func Truncate(text string, maxTokens int, preserveEnding bool) string {
	if EstimateTokens(text) <= maxTokens {
		return text
	}
	keep := maxTokens*charsPerToken - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(text)
	if keep > len(runes) {
		keep = len(runes)
	}
	if preserveEnding {
		return ellipsis + string(runes[len(runes)-keep:])
	}
	return string(runes[:keep]) + ellipsis
}

// WasTruncated reports whether Truncate would change text.
func WasTruncated(text string, maxTokens int) bool {
	return EstimateTokens(text) > maxTokens
}
