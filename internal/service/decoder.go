package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowDecoder is the row-oriented input collaborator. Columns returns the
// lower-cased, trimmed header; Next returns one row keyed by column name and
// io.EOF at end of data.
type RowDecoder interface {
	Columns() []string
	Next() (map[string]string, error)
	Reset() error
}

// OpenDecoder picks a decoder implementation from the file extension.
func OpenDecoder(path string) (RowDecoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return NewCSVDecoder(path, ',')
	case ".xlsx", ".xls":
		return NewExcelDecoder(path)
	}
	return nil, fmt.Errorf("unsupported import file type %q", filepath.Ext(path))
}

// CSVDecoder streams rows from a delimited text file.
type CSVDecoder struct {
	path      string
	delimiter rune
	file      *os.File
	reader    *csv.Reader
	columns   []string
}

func NewCSVDecoder(path string, delimiter rune) (*CSVDecoder, error) {
	d := &CSVDecoder{path: path, delimiter: delimiter}
	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *CSVDecoder) Columns() []string {
	return d.columns
}

func (d *CSVDecoder) Next() (map[string]string, error) {
	for {
		record, err := d.reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if isBlankRow(record) {
			continue
		}
		return rowToMap(d.columns, record), nil
	}
}

// Reset reopens the file and re-reads the header row.
func (d *CSVDecoder) Reset() error {
	if d.file != nil {
		_ = d.file.Close()
	}
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	d.file = f
	d.reader = csv.NewReader(f)
	d.reader.Comma = d.delimiter
	d.reader.FieldsPerRecord = -1
	d.reader.TrimLeadingSpace = true

	header, err := d.reader.Read()
	if err != nil {
		if err == io.EOF {
			d.columns = nil
			return nil
		}
		return fmt.Errorf("read csv header: %w", err)
	}
	d.columns = normalizeColumns(header)
	return nil
}

func (d *CSVDecoder) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// ExcelDecoder reads the first sheet of a workbook into memory and iterates
// its data rows.
type ExcelDecoder struct {
	columns []string
	rows    [][]string
	pos     int
}

func NewExcelDecoder(path string) (*ExcelDecoder, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	d := &ExcelDecoder{}
	if len(rows) > 0 {
		d.columns = normalizeColumns(rows[0])
		d.rows = rows[1:]
	}
	return d, nil
}

func (d *ExcelDecoder) Columns() []string {
	return d.columns
}

func (d *ExcelDecoder) Next() (map[string]string, error) {
	for d.pos < len(d.rows) {
		record := d.rows[d.pos]
		d.pos++
		if isBlankRow(record) {
			continue
		}
		return rowToMap(d.columns, record), nil
	}
	return nil, io.EOF
}

func (d *ExcelDecoder) Reset() error {
	d.pos = 0
	return nil
}

func normalizeColumns(header []string) []string {
	columns := make([]string, 0, len(header))
	for _, col := range header {
		columns = append(columns, strings.ToLower(strings.TrimSpace(col)))
	}
	return columns
}

func rowToMap(columns, record []string) map[string]string {
	row := make(map[string]string, len(columns))
	for i, col := range columns {
		if col == "" {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row[col] = value
	}
	return row
}

func isBlankRow(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
