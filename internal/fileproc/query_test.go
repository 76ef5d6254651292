package fileproc

import (
	"fmt"
	"strings"
	"testing"
)

func TestQuery_CSV(t *testing.T) {
	var b strings.Builder
	b.WriteString("city,country\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "Paris %d,France\n", i)
	}
	b.WriteString("Berlin,Germany\n")

	fd, err := ProcessCSV("cities.csv", strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}

	res := Query(fd, "FRANCE")
	if res == nil {
		t.Fatal("nil result")
	}
	if res.TotalMatches != 15 {
		t.Errorf("totalMatches = %d, want 15", res.TotalMatches)
	}
	if len(res.MatchingRows) != 10 {
		t.Errorf("matchingRows = %d, want 10", len(res.MatchingRows))
	}
	if strings.Join(res.SearchedColumns, ",") != "city,country" {
		t.Errorf("searchedColumns = %v", res.SearchedColumns)
	}
}

func TestQuery_JSON(t *testing.T) {
	fd, err := ProcessJSON("items.json", strings.NewReader(`[{"name":"Red Apple"},{"name":"Banana"},{"name":"green apple"}]`))
	if err != nil {
		t.Fatal(err)
	}
	res := Query(fd, "apple")
	if res.TotalMatches != 2 || len(res.MatchingItems) != 2 {
		t.Errorf("result = %+v", res)
	}

	fd, err = ProcessJSON("one.json", strings.NewReader(`{"name":"Solo"}`))
	if err != nil {
		t.Fatal(err)
	}
	if res := Query(fd, "solo"); res.TotalMatches != 1 {
		t.Errorf("object should be searched as a single item, got %+v", res)
	}
}

func TestQuery_EmptyInputs(t *testing.T) {
	if Query(nil, "x") != nil {
		t.Error("nil file should give nil result")
	}
	fd, _ := ProcessJSON("a.json", strings.NewReader(`[]`))
	if Query(fd, "") != nil {
		t.Error("empty query should give nil result")
	}
}
