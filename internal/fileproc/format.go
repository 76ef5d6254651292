package fileproc

import (
	"fmt"
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

const analysisInvite = "You can answer questions about this data, perform analysis, filter records, calculate statistics, or help with data insights."

// FormatForPrompt describes a processed file for the model: type, size,
// columns or keys, and a short sample. It returns "" for nil.
func FormatForPrompt(fd *types.FileData) string {
	if fd == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("File Data Context:\n")
	fmt.Fprintf(&b, "File Type: %s\n", strings.ToUpper(fd.Type))
	fmt.Fprintf(&b, "File Size: %.2f KB\n", float64(fd.Size)/1024)

	switch fd.Type {
	case types.FileTypeCSV:
		writeCSV(&b, fd)
	case types.FileTypeJSON:
		writeJSON(&b, fd)
	}

	b.WriteString("\n" + analysisInvite)
	return b.String()
}

func writeCSV(b *strings.Builder, fd *types.FileData) {
	table, ok := fd.Data.(*types.CSVTable)
	if !ok {
		return
	}
	fmt.Fprintf(b, "Columns (%d): %s\n", len(table.Headers), strings.Join(table.Headers, ", "))
	fmt.Fprintf(b, "Total Rows: %d\n", table.TotalRows)

	columnTypes := columnTypesOf(fd, table)
	parts := make([]string, 0, columnTypes.Len())
	for _, col := range columnTypes.Keys() {
		t, _ := columnTypes.Get(col)
		parts = append(parts, fmt.Sprintf("%s: %s", col, types.Display(t)))
	}
	fmt.Fprintf(b, "Column Types: %s\n", strings.Join(parts, ", "))

	if len(table.Rows) == 0 {
		return
	}
	b.WriteString("\nSample Data (first 3 rows):\n")
	for i, row := range table.Rows {
		if i == 3 {
			break
		}
		raw, err := types.Marshal(row)
		if err != nil {
			continue
		}
		fmt.Fprintf(b, "Row %d: %s\n", i+1, raw)
	}
}

func columnTypesOf(fd *types.FileData, table *types.CSVTable) *types.Object {
	if fd.Summary != nil && fd.Summary.ColumnTypes != nil {
		return fd.Summary.ColumnTypes
	}
	return csvSummary(table.Headers, table.Rows).ColumnTypes
}

func writeJSON(b *strings.Builder, fd *types.FileData) {
	summary := fd.Summary
	if summary == nil {
		summary = jsonSummary(fd.Data)
	}
	switch summary.Type {
	case "array":
		length := 0
		if summary.Length != nil {
			length = *summary.Length
		}
		fmt.Fprintf(b, "Array Length: %d\n", length)
		if len(summary.FirstItemKeys) > 0 {
			fmt.Fprintf(b, "Object Keys: %s\n", strings.Join(summary.FirstItemKeys, ", "))
		}
	case "object":
		fmt.Fprintf(b, "Object Keys: %s\n", strings.Join(summary.Keys, ", "))
	}

	sample := fd.Data
	if arr, ok := sample.([]any); ok && len(arr) > 3 {
		sample = arr[:3]
	}
	raw, err := types.MarshalIndent(sample)
	if err != nil {
		return
	}
	fmt.Fprintf(b, "\nData Sample:\n%s\n", raw)
}
