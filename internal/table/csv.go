package table

import (
	"encoding/csv"
	"os"
	"strings"

	"go.uber.org/zap"
)

// LoadCSV reads a CSV file into a Table. Missing files and malformed
// content degrade to an empty table with a warning; a run is never aborted
// because one source is broken. The first record is the header; rows
// shorter than the header are padded with empty cells, longer rows have
// their extra cells dropped.
func LoadCSV(path string, log *zap.Logger) Table {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("CSV source not readable, treating as empty",
			zap.String("path", path), zap.Error(err))
		return Table{}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		log.Warn("CSV source malformed, treating as empty",
			zap.String("path", path), zap.Error(err))
		return Table{}
	}
	if len(records) == 0 {
		log.Warn("CSV source is empty", zap.String("path", path))
		return Table{}
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	t := Table{Columns: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
