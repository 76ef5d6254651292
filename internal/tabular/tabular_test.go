package tabular

import (
	"strings"
	"testing"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

func decode(t *testing.T, raw string) *types.Object {
	t.Helper()
	v, err := types.DecodeValue(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v.(*types.Object)
}

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	b, err := types.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestNormalize_Campaigns(t *testing.T) {
	in := decode(t, `{"campaigns":[{"name":"A","spend":100},{"name":"B","spend":200}]}`)

	out, sections := Normalize(in)

	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	s := sections[0]
	if s.Path != "campaigns" || s.Name != "campaigns" || s.OriginalLength != 2 {
		t.Errorf("section = %+v", s)
	}
	if s.CSV != "name,spend\nA,100\nB,200\n" {
		t.Errorf("csv = %q", s.CSV)
	}
	if got := mustMarshal(t, out); got != `{"campaigns":"[See CSV data for campaigns below]"}` {
		t.Errorf("rewritten = %s", got)
	}
}

func TestNormalize_SingleArrayField(t *testing.T) {
	in := decode(t, `{"items":[{"a":1,"b":2},{"a":3,"b":4}]}`)

	out, sections := Normalize(in)

	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	lines := strings.Split(strings.TrimSuffix(sections[0].CSV, "\n"), "\n")
	if len(lines) != 3 || lines[0] != "a,b" || lines[1] != "1,2" || lines[2] != "3,4" {
		t.Errorf("csv lines = %q", lines)
	}
	if v, _ := out.Get("items"); v != "[See CSV data for items below]" {
		t.Errorf("items = %v", v)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := `{"report":{"rows":[{"x":1}],"meta":{"deep":[{"y":"2"}]}},"tags":["a","b"]}`
	in := decode(t, raw)

	Normalize(in)

	if got := mustMarshal(t, in); got != raw {
		t.Errorf("input mutated:\n got %s\nwant %s", got, raw)
	}
}

func TestNormalize_NestedPathsInDiscoveryOrder(t *testing.T) {
	in := decode(t, `{"z":[{"k":1}],"report":{"rows":[{"x":1}],"meta":{"deep":[{"y":"2"}]}},"tags":["a","b"]}`)

	out, sections := Normalize(in)

	var paths []string
	for _, s := range sections {
		paths = append(paths, s.Path)
	}
	if got := strings.Join(paths, "|"); got != "z|report.rows|report.meta.deep" {
		t.Errorf("paths = %s", got)
	}
	if sections[2].Name != "deep" {
		t.Errorf("name = %q, want deep", sections[2].Name)
	}
	tags, _ := out.Get("tags")
	if arr, ok := tags.([]any); !ok || len(arr) != 2 {
		t.Errorf("array of scalars should be untouched, got %#v", tags)
	}
}

func TestNormalize_DoesNotDescendIntoArrays(t *testing.T) {
	in := decode(t, `{"groups":[[{"a":1}]],"list":[1,{"a":2}]}`)

	_, sections := Normalize(in)

	if len(sections) != 0 {
		t.Errorf("sections = %+v, want none", sections)
	}
}

func TestNormalize_NoArrays(t *testing.T) {
	raw := `{"a":1,"b":{"c":"d"}}`
	out, sections := Normalize(decode(t, raw))
	if len(sections) != 0 {
		t.Errorf("unexpected sections: %+v", sections)
	}
	if got := mustMarshal(t, out); got != raw {
		t.Errorf("rewritten = %s", got)
	}
}

func TestArrayToCSV_Cells(t *testing.T) {
	v, err := types.DecodeValue(strings.NewReader(
		`[{"name":"Smith, J","active":true,"score":null,"nested":{"k":1}},{"name":"Lee","extra":"ignored"}]`))
	if err != nil {
		t.Fatal(err)
	}

	csv, ok := ArrayToCSV(v.([]any))
	if !ok {
		t.Fatal("expected conversion")
	}

	want := "name,active,score,nested\n" +
		`"Smith, J",true,0,{"k":1}` + "\n" +
		"Lee,0,0,0\n"
	if csv != want {
		t.Errorf("csv =\n%q\nwant\n%q", csv, want)
	}
}

func TestArrayToCSV_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		items []any
	}{
		{"empty", []any{}},
		{"scalars", []any{"a", "b"}},
		{"first not object", []any{1, types.NewObject()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ArrayToCSV(tt.items); ok {
				t.Error("expected no conversion")
			}
		})
	}
}
