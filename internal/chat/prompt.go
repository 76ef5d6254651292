package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/af-corp/chatbot-gateway/internal/budget"
	"github.com/af-corp/chatbot-gateway/internal/fileproc"
	"github.com/af-corp/chatbot-gateway/internal/tabular"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// Token budgets for the assembled prompt. MaxTotalTokens is the overall
// target; the other three cap individual sources.
const (
	MaxTotalTokens       = 6000
	MaxUserMessageTokens = 3000
	MaxJSONDataTokens    = 2000
	MaxHistoryTokens     = 1500
)

const (
	DefaultSystemPrompt = "You are a helpful assistant embedded in a website to answer questions about the current page and help users."
	notProvided         = "Not provided"

	csvDataInstructions  = "You have access to structured data in CSV format above, plus additional context. You can analyze this data, compare records, calculate totals, identify trends, and provide insights based on the metrics."
	jsonDataInstructions = "You have access to structured data. You can analyze this data and answer questions about it."
	jsonDiscussionHint   = "When discussing the JSON data, be specific about metrics, campaigns, and performance indicators. You can compare campaigns, calculate totals, identify trends, and provide insights based on the data."
)

// BuildContextPrompt assembles the single user-role prompt sent to the
// provider. Blocks appear in a fixed order and are separated by one blank
// line; blocks without content are left out. cfg is only read.
func BuildContextPrompt(userMessage string, cfg types.SessionConfig, history []types.Message, fileData *types.FileData, systemPrompt string) string {
	opening := systemPrompt
	if opening == "" {
		opening = DefaultSystemPrompt
	}
	blocks := []string{opening, pageInfoBlock(cfg)}

	if instructions := cfg.Value("customInstructions"); types.Truthy(instructions) {
		blocks = append(blocks, "Special Instructions: "+types.Display(instructions))
	}

	jsonData := cfg.Value("jsonData")
	hasJSON := types.Truthy(jsonData)
	if hasJSON {
		blocks = append(blocks, jsonDataBlock(jsonData))
	}

	if fileData != nil {
		blocks = append(blocks, fileproc.FormatForPrompt(fileData))
	}

	if h := historyBlock(history); h != "" {
		blocks = append(blocks, h)
	}

	truncated := budget.Truncate(userMessage, MaxUserMessageTokens, true)
	blocks = append(blocks, "Current user question: "+truncated)
	if truncated != userMessage {
		blocks = append(blocks, fmt.Sprintf("[Note: User message was truncated due to length. Original length: %d characters]",
			utf8.RuneCountInString(userMessage)))
	}

	blocks = append(blocks, closingBlock(hasJSON, fileData != nil))
	return strings.Join(blocks, "\n\n")
}

// pageInfoBlock resolves each field independently, preferring pageContext
// over pageData.
func pageInfoBlock(cfg types.SessionConfig) string {
	pageContext, _ := cfg.Object("pageContext")
	pageData, _ := cfg.Object("pageData")

	lines := []string{
		"Page Information:",
		"- URL: " + firstOf(field(pageContext, "url"), field(pageData, "url")),
		"- Title: " + firstOf(field(pageContext, "title"), field(pageData, "title")),
		"- Content Summary: " + firstOf(field(pageContext, "content"), field(pageContext, "description"), field(pageData, "pageContent")),
		"- Hostname: " + firstOf(field(pageData, "hostname")),
		"- Page Language: " + firstOf(field(pageData, "language")),
	}
	return strings.Join(lines, "\n")
}

func field(obj *types.Object, key string) any {
	v, _ := obj.Get(key)
	return v
}

func firstOf(values ...any) string {
	for _, v := range values {
		if types.Truthy(v) {
			return types.Display(v)
		}
	}
	return notProvided
}

func jsonDataBlock(jsonData any) string {
	if obj, ok := types.AsObject(jsonData); ok {
		rewritten, sections := tabular.Normalize(obj)
		if len(sections) > 0 {
			var csv strings.Builder
			for _, s := range sections {
				fmt.Fprintf(&csv, "\n## %s (%d records):\n%s\n", s.Name, s.OriginalLength, s.CSV)
			}
			body, marker := truncatedJSON(rewritten)
			return fmt.Sprintf("Available Data%s:\n\n=== CSV DATA ===\n%s\n\n=== ADDITIONAL CONTEXT ===\n%s\n\n%s",
				marker, csv.String(), body, csvDataInstructions)
		}
		jsonData = obj
	}
	body, marker := truncatedJSON(jsonData)
	return fmt.Sprintf("Available JSON Data%s:\n%s\n\n%s", marker, body, jsonDataInstructions)
}

// truncatedJSON serializes v with two-space indentation and cuts it to the
// JSON budget. The marker is " (truncated)" when the text was cut.
func truncatedJSON(v any) (string, string) {
	raw, err := types.MarshalIndent(v)
	if err != nil {
		raw = []byte(types.Display(v))
	}
	text := string(raw)
	cut := budget.Truncate(text, MaxJSONDataTokens, false)
	if cut != text {
		return cut, " (truncated)"
	}
	return cut, ""
}

// historyBlock keeps the longest suffix of history that fits the history
// budget, in chronological order.
func historyBlock(history []types.Message) string {
	var lines []string
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		line := history[i].Role + ": " + history[i].Content + "\n"
		cost := budget.EstimateTokens(line)
		if used+cost > MaxHistoryTokens {
			break
		}
		lines = append(lines, line)
		used += cost
	}
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for i := len(lines) - 1; i >= 0; i-- {
		b.WriteString(lines[i])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func closingBlock(hasJSON, hasFile bool) string {
	var b strings.Builder
	b.WriteString("Please provide a helpful, accurate response based on the page context")
	if hasJSON {
		b.WriteString(", the JSON data provided")
	}
	b.WriteString(", conversation history")
	if hasFile {
		b.WriteString(", and the uploaded file data")
	}
	b.WriteString(".\n\n")
	if hasJSON {
		b.WriteString(jsonDiscussionHint + " ")
	}
	b.WriteString("Keep responses concise but informative.")
	return b.String()
}
