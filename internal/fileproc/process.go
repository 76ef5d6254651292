// Package fileproc parses uploaded JSON and CSV files into FileData and
// describes them for prompts.
package fileproc

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// ErrUnsupportedType is returned for uploads that are neither .json nor .csv.
var ErrUnsupportedType = errors.New("only JSON and CSV files are supported")

// FileType maps a file name to its upload type by extension.
func FileType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return types.FileTypeJSON, nil
	case ".csv":
		return types.FileTypeCSV, nil
	default:
		return "", ErrUnsupportedType
	}
}

// Process reads an upload and dispatches on its extension.
func Process(name string, r io.Reader) (*types.FileData, error) {
	fileType, err := FileType(name)
	if err != nil {
		return nil, err
	}
	if fileType == types.FileTypeCSV {
		return ProcessCSV(name, r)
	}
	return ProcessJSON(name, r)
}

// ProcessJSON parses a JSON document, keeping object key order.
func ProcessJSON(name string, r io.Reader) (*types.FileData, error) {
	raw, err := readText(r)
	if err != nil {
		return nil, fmt.Errorf("process json file %s: %w", name, err)
	}
	data, err := types.DecodeValue(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("process json file %s: %w", name, err)
	}
	return &types.FileData{
		Type:    types.FileTypeJSON,
		Size:    int64(len(raw)),
		Data:    data,
		Summary: jsonSummary(data),
	}, nil
}

// ProcessCSV parses a CSV file with a header row. Rows shorter than the
// header only carry the columns they have; extra cells are dropped.
func ProcessCSV(name string, r io.Reader) (*types.FileData, error) {
	raw, err := readText(r)
	if err != nil {
		return nil, fmt.Errorf("process csv file %s: %w", name, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("process csv file %s: CSV file is empty", name)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimSpace(raw)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("process csv file %s: %w", name, err)
	}

	headers := trimAll(records[0])
	rows := make([]*types.Object, 0, len(records)-1)
	for _, rec := range records[1:] {
		rec = trimAll(rec)
		if isBlank(rec) {
			continue
		}
		row := types.NewObject()
		for i, h := range headers {
			if i >= len(rec) {
				break
			}
			row.Set(h, rec[i])
		}
		rows = append(rows, row)
	}

	table := &types.CSVTable{Headers: headers, Rows: rows, TotalRows: len(rows)}
	return &types.FileData{
		Type:    types.FileTypeCSV,
		Size:    int64(len(raw)),
		Data:    table,
		Summary: csvSummary(headers, rows),
	}, nil
}

func readText(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > 0 && !isText(mimetype.Detect(raw)) {
		return nil, errors.New("file content is not text")
	}
	return raw, nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}

func jsonSummary(data any) *types.FileSummary {
	switch v := data.(type) {
	case []any:
		n := len(v)
		s := &types.FileSummary{Type: "array", Length: &n, FirstItemKeys: []string{}}
		if n > 0 {
			if first, ok := v[0].(*types.Object); ok {
				s.FirstItemKeys = first.Keys()
			}
		}
		s.DataTypes = objectFieldTypes(v)
		return s
	case *types.Object:
		return &types.FileSummary{
			Type:      "object",
			Keys:      v.Keys(),
			DataTypes: objectFieldTypes([]any{v}),
		}
	default:
		return &types.FileSummary{Type: kindOf(v), Value: v}
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// objectFieldTypes classifies each key of the first item across all items
// that carry a non-null value for it.
func objectFieldTypes(items []any) *types.Object {
	out := types.NewObject()
	if len(items) == 0 {
		return out
	}
	first, ok := items[0].(*types.Object)
	if !ok {
		return out
	}
	for _, key := range first.Keys() {
		var values []any
		for _, item := range items {
			obj, ok := item.(*types.Object)
			if !ok {
				continue
			}
			if v, ok := obj.Get(key); ok && v != nil {
				values = append(values, v)
			}
		}
		out.Set(key, ColumnType(values))
	}
	return out
}

func csvSummary(headers []string, rows []*types.Object) *types.FileSummary {
	sample := rows
	if len(sample) > 3 {
		sample = sample[:3]
	}
	columnTypes := types.NewObject()
	for _, h := range headers {
		var values []any
		for _, row := range rows {
			if v, ok := row.Get(h); ok && v != "" {
				values = append(values, v)
			}
		}
		columnTypes.Set(h, ColumnType(values))
	}
	return &types.FileSummary{
		ColumnCount: len(headers),
		RowCount:    len(rows),
		Columns:     headers,
		SampleData:  sample,
		ColumnTypes: columnTypes,
	}
}
