package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ProductRow is one data row of an import sheet. Row is the 1-based line in
// the source file, the header being row 1.
type ProductRow struct {
	Row           int
	Code          string
	Name          string
	Description   string
	Price         string
	Cost          string
	UnitOfMeasure string
	TaxRate       string
	Status        string
}

var ErrMissingColumn = errors.New("missing required column")

// ProductColumns is the header written by product exports and read back by imports.
var ProductColumns = []string{"code", "name", "description", "price", "cost", "unit_of_measure", "tax_rate", "status"}

// ReadProducts parses a CSV or XLSX product sheet. Columns are matched by
// header name, case-insensitive; code and name are required.
func ReadProducts(r io.Reader, format Format) ([]ProductRow, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		records, err = cr.ReadAll()
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", format, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"code", "name"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	rows := make([]ProductRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := ProductRow{
			Row:           n + 2,
			Code:          get("code"),
			Name:          get("name"),
			Description:   get("description"),
			Price:         get("price"),
			Cost:          get("cost"),
			UnitOfMeasure: get("unit_of_measure"),
			TaxRate:       get("tax_rate"),
			Status:        get("status"),
		}
		if row == (ProductRow{Row: row.Row}) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}
