package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSessionConfig_Accessors(t *testing.T) {
	var cfg SessionConfig
	if err := json.Unmarshal([]byte(`{"aiProvider":"claude","maxTokens":"500","pageContext":{"url":"https://x.com"},"model":7}`), &cfg); err != nil {
		t.Fatal(err)
	}

	if got := cfg.String("aiProvider"); got != "claude" {
		t.Errorf("aiProvider = %q", got)
	}
	if got := cfg.String("model"); got != "" {
		t.Errorf("non-string model should read as empty, got %q", got)
	}
	if n, ok := cfg.Int("maxTokens"); !ok || n != 500 {
		t.Errorf("maxTokens = %d, %v", n, ok)
	}
	pc, ok := cfg.Object("pageContext")
	if !ok {
		t.Fatal("pageContext not an object")
	}
	if url, _ := pc.Get("url"); url != "https://x.com" {
		t.Errorf("url = %v", url)
	}
}

func TestSessionConfig_MergeDoesNotMutate(t *testing.T) {
	base := SessionConfigFromMap(map[string]any{"a": "1", "b": "2"})
	overlay := SessionConfigFromMap(map[string]any{"b": "3", "c": "4"})

	merged := base.Merge(overlay)

	if got := strings.Join(merged.Keys(), ","); got != "a,b,c" {
		t.Errorf("merged keys = %s", got)
	}
	if merged.String("b") != "3" {
		t.Errorf("overlay should win, got %q", merged.String("b"))
	}
	if base.String("b") != "2" || base.Len() != 2 {
		t.Error("base config was mutated")
	}
}

func TestSessionConfig_ZeroValue(t *testing.T) {
	var cfg SessionConfig
	if cfg.Value("x") != nil || cfg.Len() != 0 {
		t.Error("zero config should be empty")
	}
	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "{}" {
		t.Errorf("marshal zero config = %s", out)
	}
}

func TestFileData_UnmarshalCSV(t *testing.T) {
	raw := `{"type":"csv","size":42,"data":{"headers":["b","a"],"rows":[{"b":"1","a":"2"}],"totalRows":1},"summary":{"columnCount":2,"rowCount":1,"columns":["b","a"]}}`
	var fd FileData
	if err := json.Unmarshal([]byte(raw), &fd); err != nil {
		t.Fatal(err)
	}
	table, ok := fd.Data.(*CSVTable)
	if !ok {
		t.Fatalf("data = %T, want *CSVTable", fd.Data)
	}
	if got := strings.Join(table.Rows[0].Keys(), ","); got != "b,a" {
		t.Errorf("row keys = %s", got)
	}
	if fd.Summary.ColumnCount != 2 {
		t.Errorf("columnCount = %d", fd.Summary.ColumnCount)
	}
}

func TestFileData_UnmarshalJSONArray(t *testing.T) {
	var fd FileData
	if err := json.Unmarshal([]byte(`{"type":"json","size":10,"data":[{"z":1,"y":2}]}`), &fd); err != nil {
		t.Fatal(err)
	}
	arr, ok := fd.Data.([]any)
	if !ok || len(arr) != 1 {
		t.Fatalf("data = %#v", fd.Data)
	}
	if got := strings.Join(arr[0].(*Object).Keys(), ","); got != "z,y" {
		t.Errorf("keys = %s", got)
	}
}
