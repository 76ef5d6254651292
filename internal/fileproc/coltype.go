package fileproc

import (
	"encoding/json"
	"strings"
	"time"
)

const typeSampleSize = 100

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
}

var booleanWords = map[string]bool{
	"true": true, "false": true, "1": true, "0": true, "yes": true, "no": true,
}

// ColumnType classifies a column from its first 100 non-empty values as
// number, boolean, date or string. A column without values is "empty".
func ColumnType(values []any) string {
	if len(values) == 0 {
		return "empty"
	}
	sample := values
	if len(sample) > typeSampleSize {
		sample = sample[:typeSampleSize]
	}

	if all(sample, isNumber) {
		return "number"
	}
	if all(sample, isBoolean) {
		return "boolean"
	}
	if all(sample, isDate) {
		return "date"
	}
	return "string"
}

func all(values []any, pred func(any) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch t := v.(type) {
	case json.Number, float64, int, int64:
		return true
	case string:
		return numericString(t)
	}
	return false
}

// numericString accepts digits with at most one '.' and one '-' anywhere.
func numericString(s string) bool {
	s = strings.Replace(s, ".", "", 1)
	s = strings.Replace(s, "-", "", 1)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isBoolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		return booleanWords[strings.ToLower(t)]
	case json.Number:
		return booleanWords[t.String()]
	}
	return false
}

func isDate(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
