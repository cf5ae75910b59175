package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleTable() Table {
	return Table{
		Title:   "Products",
		Headers: ProductColumns,
		Rows: [][]string{
			{"P-001", "Widget", "Blue widget", "100.00", "60.00", "unit", "20", "active"},
			{"P-002", "Gadget, large", "", "12.50", "7.00", "box", "5.5", "inactive"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"csv": FormatCSV, "": FormatCSV, "XLSX": FormatXLSX, "excel": FormatXLSX, "pdf": FormatPDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("doc"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	file, err := Render(sampleTable(), FormatCSV, "products")
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "products.csv" {
		t.Fatalf("unexpected name %s", file.Name)
	}
	rows, err := ReadProducts(bytes.NewReader(file.Data), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Name != "Gadget, large" || rows[1].Row != 3 || rows[1].TaxRate != "5.5" {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	file, err := Render(sampleTable(), FormatXLSX, "products")
	if err != nil {
		t.Fatal(err)
	}
	rows, err := ReadProducts(bytes.NewReader(file.Data), FormatXLSX)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Code != "P-001" || rows[0].Price != "100.00" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestRenderPDF(t *testing.T) {
	file, err := Render(sampleTable(), FormatPDF, "products")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(file.Data, []byte("%PDF")) {
		t.Fatal("expected a PDF document")
	}
}

func TestReadProductsRequiresCode(t *testing.T) {
	_, err := ReadProducts(strings.NewReader("name,price\nWidget,1\n"), FormatCSV)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestWriteFEC(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	data := WriteFEC([]FECLine{
		{Journal: JournalSales, EntryNum: "VE1", EntryDate: day, Account: AccountCustomers, AuxAccount: "C001", AuxLabel: "Acme", PieceRef: "INV-2026-00001", PieceDate: day, Label: "Invoice INV-2026-00001", Debit: decimal.RequireFromString("120"), Credit: decimal.Zero},
	})
	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one line, got %d", len(lines))
	}
	if got := len(strings.Split(lines[0], "\t")); got != 18 {
		t.Fatalf("expected 18 columns, got %d", got)
	}
	cells := strings.Split(lines[1], "\t")
	if cells[3] != "20260314" || cells[11] != "120,00" || cells[12] != "0,00" {
		t.Fatalf("unexpected cells %v", cells)
	}
	if name := FECFileName("123456789", day); name != "123456789FEC20260314.txt" {
		t.Fatalf("unexpected file name %s", name)
	}
}
