package fileproc

import (
	"errors"
	"strings"
	"testing"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

const sampleCSV = `name,spend,active,start
"Acme, Inc",100.5,yes,2024-01-02
Beta,200,no,2024-02-03

Gamma,-3,true,03/04/2024
Delta,4,false,2024-05-06
`

func TestProcessCSV(t *testing.T) {
	fd, err := ProcessCSV("report.csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ProcessCSV: %v", err)
	}

	if fd.Type != types.FileTypeCSV {
		t.Errorf("type = %q", fd.Type)
	}
	if fd.Size != int64(len(sampleCSV)) {
		t.Errorf("size = %d, want %d", fd.Size, len(sampleCSV))
	}

	table := fd.Data.(*types.CSVTable)
	if strings.Join(table.Headers, ",") != "name,spend,active,start" {
		t.Errorf("headers = %v", table.Headers)
	}
	if table.TotalRows != 4 {
		t.Errorf("totalRows = %d, want 4 (blank line skipped)", table.TotalRows)
	}
	if v, _ := table.Rows[0].Get("name"); v != "Acme, Inc" {
		t.Errorf("quoted cell = %v", v)
	}

	s := fd.Summary
	if s.ColumnCount != 4 || s.RowCount != 4 || len(s.SampleData) != 3 {
		t.Errorf("summary = %+v", s)
	}
	wantTypes := map[string]string{"name": "string", "spend": "number", "active": "boolean", "start": "date"}
	for col, want := range wantTypes {
		if got, _ := s.ColumnTypes.Get(col); got != want {
			t.Errorf("column %s type = %v, want %s", col, got, want)
		}
	}
}

func TestProcessCSV_Empty(t *testing.T) {
	_, err := ProcessCSV("empty.csv", strings.NewReader("  \n\n"))
	if err == nil || !strings.Contains(err.Error(), "CSV file is empty") {
		t.Errorf("err = %v", err)
	}
}

func TestProcessCSV_ShortRows(t *testing.T) {
	fd, err := ProcessCSV("short.csv", strings.NewReader("a,b,c\n1,2\n4,5,6,7\n"))
	if err != nil {
		t.Fatal(err)
	}
	table := fd.Data.(*types.CSVTable)
	if got := strings.Join(table.Rows[0].Keys(), ","); got != "a,b" {
		t.Errorf("short row keys = %s", got)
	}
	if got := table.Rows[1].Len(); got != 3 {
		t.Errorf("long row len = %d, want 3", got)
	}
}

func TestProcessJSON_ArraySummary(t *testing.T) {
	raw := `[{"id":1,"title":"x","ok":true},{"id":2,"title":"y","ok":false},{"id":3,"title":null,"ok":true}]`
	fd, err := ProcessJSON("data.json", strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	s := fd.Summary
	if s.Type != "array" || s.Length == nil || *s.Length != 3 {
		t.Errorf("summary = %+v", s)
	}
	if strings.Join(s.FirstItemKeys, ",") != "id,title,ok" {
		t.Errorf("firstItemKeys = %v", s.FirstItemKeys)
	}
	for col, want := range map[string]string{"id": "number", "title": "string", "ok": "boolean"} {
		if got, _ := s.DataTypes.Get(col); got != want {
			t.Errorf("%s = %v, want %s", col, got, want)
		}
	}
}

func TestProcessJSON_ObjectAndScalar(t *testing.T) {
	fd, err := ProcessJSON("obj.json", strings.NewReader(`{"b":1,"a":"2"}`))
	if err != nil {
		t.Fatal(err)
	}
	if fd.Summary.Type != "object" || strings.Join(fd.Summary.Keys, ",") != "b,a" {
		t.Errorf("object summary = %+v", fd.Summary)
	}

	fd, err = ProcessJSON("num.json", strings.NewReader(`42`))
	if err != nil {
		t.Fatal(err)
	}
	if fd.Summary.Type != "number" {
		t.Errorf("scalar summary = %+v", fd.Summary)
	}
}

func TestProcessJSON_Invalid(t *testing.T) {
	_, err := ProcessJSON("bad.json", strings.NewReader(`{"a":`))
	if err == nil || !strings.Contains(err.Error(), "process json file") {
		t.Errorf("err = %v", err)
	}
}

func TestProcess_RejectsOtherExtensions(t *testing.T) {
	_, err := Process("notes.txt", strings.NewReader("hello"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestProcess_RejectsBinaryContent(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	if _, err := Process("image.csv", strings.NewReader(png)); err == nil {
		t.Error("expected binary content to be rejected")
	}
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{"empty", nil, "empty"},
		{"ints", []any{"1", "-2", "3.5"}, "number"},
		{"two dots", []any{"1.2.3"}, "string"},
		{"yes no", []any{"Yes", "no", "TRUE"}, "boolean"},
		{"dates", []any{"2024-01-01", "12/31/2024", "2024-01-01 10:00:00"}, "date"},
		{"mixed", []any{"2024-01-01", "hello"}, "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColumnType(tt.values); got != tt.want {
				t.Errorf("ColumnType(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}
