// Package tabular rewrites arrays of objects found inside widget JSON data
// into compact CSV sections, which models read more reliably than deeply
// nested JSON.
package tabular

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// Section is one array-of-objects field rendered as CSV.
type Section struct {
	Path           string // dot-separated location in the source document
	Name           string // the field key
	CSV            string
	OriginalLength int
}

// Placeholder is the string left in place of a converted array.
func Placeholder(key string) string {
	return fmt.Sprintf("[See CSV data for %s below]", key)
}

// Normalize returns a rewritten deep copy of data in which every array of
// objects reachable through object fields is replaced by a placeholder, plus
// the CSV sections in discovery order. data itself is never modified.
func Normalize(data *types.Object) (*types.Object, []Section) {
	out := data.Clone()
	if out == nil {
		return types.NewObject(), nil
	}
	var sections []Section
	walk(out, "", &sections)
	return out, sections
}

func walk(obj *types.Object, path string, sections *[]Section) {
	for _, key := range obj.Keys() {
		current := key
		if path != "" {
			current = path + "." + key
		}
		value, _ := obj.Get(key)
		switch v := value.(type) {
		case []any:
			csv, ok := ArrayToCSV(v)
			if !ok {
				continue
			}
			*sections = append(*sections, Section{
				Path:           current,
				Name:           key,
				CSV:            csv,
				OriginalLength: len(v),
			})
			obj.Set(key, Placeholder(key))
		case *types.Object:
			walk(v, current, sections)
		}
	}
}

// ArrayToCSV renders items as CSV when the first element is an object. The
// header is the first element's keys; later elements are written against
// that column set. Missing or null cells become "0" and values are quoted
// only when they contain a comma.
func ArrayToCSV(items []any) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	first, ok := types.AsObject(items[0])
	if !ok {
		return "", false
	}
	columns := first.Keys()

	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteByte('\n')

	row := make([]string, len(columns))
	for _, item := range items {
		obj, _ := types.AsObject(item)
		for i, col := range columns {
			v, _ := obj.Get(col)
			row[i] = cell(v)
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String(), true
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "0"
	case string:
		if strings.Contains(t, ",") {
			return `"` + t + `"`
		}
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		b, err := types.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
