// Package fetcher reads spreadsheet rows from CSV and XLSX files for the
// bulk import pipeline.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	SkipRows   int  // number of header rows to skip
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSV reads all rows from r. Rows are returned as string slices with
// variable field counts allowed; the caller validates shape per row.
func ReadCSV(r io.Reader, opts CSVOptions) ([][]string, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	var rows [][]string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read row %d", i+1)
		}

		if opts.TrimSpace {
			for j, field := range record {
				record[j] = strings.TrimSpace(field)
			}
		}

		if i < opts.SkipRows {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadRows opens a spreadsheet file and returns its data rows, dispatching
// on the file extension. CSV and XLSX are supported; one header row is
// skipped for both.
func ReadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close()
		return ReadCSV(f, CSVOptions{SkipRows: 1, TrimSpace: true})
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{SkipRows: 1})
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %s", filepath.Ext(path))
	}
}
