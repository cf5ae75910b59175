// Package export renders tabular data as CSV, Excel or PDF files and reads
// product sheets back for import.
package export

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrUnsupportedFormat = fmt.Errorf("unsupported format")

// ParseFormat accepts csv, xlsx (or excel) and pdf, case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Table is a titled grid of already formatted cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render writes t in format and names the file baseName.<ext>.
func Render(t Table, format Format, baseName string) (*File, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = writeCSV(t)
	case FormatXLSX:
		data, err = writeXLSX(t)
	case FormatPDF:
		data, err = writePDF(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return &File{
		Name:        baseName + "." + string(format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}
