package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Postgres JSONB reorders object keys; columns whose key order feeds the
// prompt must be plain JSON.
func TestSchema_OrderedJSONColumns(t *testing.T) {
	tests := []struct {
		file   string
		column string
	}{
		{"000002_create_chat_sessions.up.sql", "config"},
		{"000003_create_file_uploads.up.sql", "processed_data"},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", tt.file))
			if err != nil {
				t.Fatal(err)
			}
			var colType string
			for _, line := range strings.Split(string(raw), "\n") {
				fields := strings.Fields(line)
				if len(fields) >= 2 && fields[0] == tt.column {
					colType = strings.TrimSuffix(fields[1], ",")
					break
				}
			}
			if colType != "JSON" {
				t.Errorf("%s.%s type = %q, want JSON", tt.file, tt.column, colType)
			}
		})
	}
}
