package fileproc

import (
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

const maxQueryResults = 10

// QueryResult holds matches for a keyword search over file data. CSV
// searches fill MatchingRows and SearchedColumns; JSON searches fill
// MatchingItems.
type QueryResult struct {
	MatchingRows    []*types.Object `json:"matchingRows,omitempty"`
	MatchingItems   []any           `json:"matchingItems,omitempty"`
	TotalMatches    int             `json:"totalMatches"`
	SearchedColumns []string        `json:"searchedColumns,omitempty"`
}

// Query runs a case-insensitive substring search. It returns nil when there
// is no data or no query.
func Query(fd *types.FileData, query string) *QueryResult {
	if fd == nil || query == "" {
		return nil
	}
	q := strings.ToLower(query)

	switch fd.Type {
	case types.FileTypeCSV:
		table, ok := fd.Data.(*types.CSVTable)
		if !ok {
			return nil
		}
		return queryCSV(table, q)
	case types.FileTypeJSON:
		return queryJSON(fd.Data, q)
	}
	return nil
}

func queryCSV(table *types.CSVTable, q string) *QueryResult {
	res := &QueryResult{MatchingRows: []*types.Object{}, SearchedColumns: table.Headers}
	for _, row := range table.Rows {
		if !rowMatches(row, q) {
			continue
		}
		res.TotalMatches++
		if len(res.MatchingRows) < maxQueryResults {
			res.MatchingRows = append(res.MatchingRows, row)
		}
	}
	return res
}

func rowMatches(row *types.Object, q string) bool {
	for _, k := range row.Keys() {
		v, _ := row.Get(k)
		if strings.Contains(strings.ToLower(types.Display(v)), q) {
			return true
		}
	}
	return false
}

func queryJSON(data any, q string) *QueryResult {
	items, ok := data.([]any)
	if !ok {
		items = []any{data}
	}
	res := &QueryResult{MatchingItems: []any{}}
	for _, item := range items {
		raw, err := types.Marshal(item)
		if err != nil || !strings.Contains(strings.ToLower(string(raw)), q) {
			continue
		}
		res.TotalMatches++
		if len(res.MatchingItems) < maxQueryResults {
			res.MatchingItems = append(res.MatchingItems, item)
		}
	}
	return res
}
