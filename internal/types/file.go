package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	FileTypeJSON = "json"
	FileTypeCSV  = "csv"
)

// CSVTable is the parsed form of an uploaded CSV file. Each row keeps the
// header order.
type CSVTable struct {
	Headers   []string  `json:"headers"`
	Rows      []*Object `json:"rows"`
	TotalRows int       `json:"totalRows"`
}

// FileSummary describes an uploaded file. JSON files fill Type and the
// key/length fields; CSV files fill the column fields.
type FileSummary struct {
	Type          string   `json:"type,omitempty"`
	Length        *int     `json:"length,omitempty"`
	FirstItemKeys []string `json:"firstItemKeys,omitempty"`
	Keys          []string `json:"keys,omitempty"`
	DataTypes     *Object  `json:"dataTypes,omitempty"`
	Value         any      `json:"value,omitempty"`

	ColumnCount int       `json:"columnCount,omitempty"`
	RowCount    int       `json:"rowCount,omitempty"`
	Columns     []string  `json:"columns,omitempty"`
	SampleData  []*Object `json:"sampleData,omitempty"`
	ColumnTypes *Object   `json:"columnTypes,omitempty"`
}

// FileData is a processed upload ready to be described to the model.
// Data is a *CSVTable for csv files and a decoded JSON value for json files.
type FileData struct {
	Type    string       `json:"type"`
	Size    int64        `json:"size"`
	Data    any          `json:"data"`
	Summary *FileSummary `json:"summary,omitempty"`
}

func (f *FileData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    string          `json:"type"`
		Size    int64           `json:"size"`
		Data    json.RawMessage `json:"data"`
		Summary *FileSummary    `json:"summary"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode file data: %w", err)
	}
	f.Type = raw.Type
	f.Size = raw.Size
	f.Summary = raw.Summary
	f.Data = nil
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return nil
	}
	if raw.Type == FileTypeCSV {
		var table CSVTable
		if err := json.Unmarshal(raw.Data, &table); err != nil {
			return fmt.Errorf("decode csv table: %w", err)
		}
		f.Data = &table
		return nil
	}
	v, err := DecodeValue(bytes.NewReader(raw.Data))
	if err != nil {
		return err
	}
	f.Data = v
	return nil
}

// FileUpload is the stored record of an uploaded file. Only one file per
// session is active at a time.
type FileUpload struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	OriginalName string    `json:"originalName"`
	FileType     string    `json:"type"`
	FileSize     int64     `json:"size"`
	Data         *FileData `json:"-"`
	IsActive     bool      `json:"isActive"`
	UploadedAt   time.Time `json:"uploadedAt"`
}
