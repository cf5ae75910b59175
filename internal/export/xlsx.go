package export

import (
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

func writeXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := appendRow(f, 1, t.Headers); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := appendRow(f, i+2, row); err != nil {
			return nil, err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil && len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendRow(f *excelize.File, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheetName, cell, &values)
}
