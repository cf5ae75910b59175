package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth  = 277.0 // A4 landscape minus margins, in mm
	rowHeight  = 7.0
	fontFamily = "Helvetica"
)

func writePDF(t Table) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(t.Title, true)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	width := pageWidth
	if n := len(t.Headers); n > 0 {
		width = pageWidth / float64(n)
	}

	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range t.Headers {
		pdf.CellFormat(width, rowHeight, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 9)
	for _, row := range t.Rows {
		for _, cell := range row {
			pdf.CellFormat(width, rowHeight, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
