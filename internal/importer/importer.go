// Package importer parses bulk item uploads from CSV or XLSX files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bahikhata/backend/internal/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported import format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrTooManyRows       = errors.New("too many rows")
)

// FormatFromFilename picks the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadItems parses an item sheet. The header row must name the columns
// "name", "unit" and "rate"; "category" is optional. Column order and case
// do not matter. Blank rows are skipped. maxRows <= 0 means no limit.
func ReadItems(r io.Reader, format Format, maxRows int) ([]domain.ItemImportRow, error) {
	var records [][]string
	var err error
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file has no header row", ErrMissingColumn)
	}

	cols, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]domain.ItemImportRow, 0, len(records)-1)
	for i, record := range records[1:] {
		lineNo := i + 2
		if blank(record) {
			continue
		}
		if maxRows > 0 && len(rows) == maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}

		row := domain.ItemImportRow{
			Row:      lineNo,
			Name:     cell(record, cols.name),
			Unit:     cell(record, cols.unit),
			Category: cell(record, cols.category),
		}
		rawRate := strings.ReplaceAll(cell(record, cols.rate), ",", "")
		if rawRate == "" {
			rawRate = "0"
		}
		rate, err := decimal.NewFromString(rawRate)
		if err != nil {
			return nil, fmt.Errorf("row %d: could not parse rate %q: %w", lineNo, cell(record, cols.rate), err)
		}
		row.Rate = rate
		rows = append(rows, row)
	}
	return rows, nil
}

type columns struct {
	name     int
	unit     int
	rate     int
	category int
}

func headerIndex(header []string) (columns, error) {
	cols := columns{name: -1, unit: -1, rate: -1, category: -1}
	for i, raw := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))) {
		case "name":
			cols.name = i
		case "unit":
			cols.unit = i
		case "rate":
			cols.rate = i
		case "category":
			cols.category = i
		}
	}

	missing := make([]string, 0, 3)
	if cols.name < 0 {
		missing = append(missing, "name")
	}
	if cols.unit < 0 {
		missing = append(missing, "unit")
	}
	if cols.rate < 0 {
		missing = append(missing, "rate")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumn)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func blank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
