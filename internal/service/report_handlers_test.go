package service

import (
	"strings"
	"testing"
	"time"

	"erp-backend/internal/export"
	"erp-backend/internal/model"

	"github.com/google/uuid"
)

func TestFECLinesBalancePerEntry(t *testing.T) {
	cust := &model.Customer{Code: "C001", Type: model.CustomerB2B, Name: "Jean", CompanyName: "Acme SAS"}
	cust.ID = uuid.New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	invoices := []model.Invoice{
		{Number: "INV-1", CustomerID: cust.ID, Status: model.InvoiceIssued, IssueDate: day,
			Totals: model.Totals{Subtotal: dec("100"), TaxTotal: dec("20"), Total: dec("120")}},
		{Number: "INV-2", CustomerID: cust.ID, Status: model.InvoiceDraft, IssueDate: day,
			Totals: model.Totals{Subtotal: dec("10"), TaxTotal: dec("2"), Total: dec("12")}},
	}
	payments := []model.Payment{
		{Number: "PAY-1", CustomerID: cust.ID, Amount: dec("120"), PaidAt: day.AddDate(0, 0, 5)},
	}
	lines := fecLines(invoices, payments, map[string]*model.Customer{cust.ID.String(): cust})

	if len(lines) != 5 {
		t.Fatalf("expected 3 sales lines and 2 bank lines, got %d", len(lines))
	}
	debit, credit := map[string]string{}, map[string]string{}
	for _, l := range lines {
		debit[l.EntryNum] = l.Debit.Add(dec(orZero(debit[l.EntryNum]))).String()
		credit[l.EntryNum] = l.Credit.Add(dec(orZero(credit[l.EntryNum]))).String()
	}
	for num := range debit {
		if debit[num] != credit[num] {
			t.Fatalf("entry %s unbalanced: debit %s credit %s", num, debit[num], credit[num])
		}
	}
	if lines[0].Journal != export.JournalSales || lines[0].Account != export.AccountCustomers || lines[0].AuxAccount != "C001" {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[3].Journal != export.JournalBank || lines[3].Account != export.AccountBank || lines[3].EntryNum != "2" {
		t.Fatalf("unexpected bank line %+v", lines[3])
	}

	out := string(export.WriteFEC(lines))
	if !strings.Contains(out, "44571") || !strings.Contains(out, "Acme SAS") {
		t.Fatalf("FEC output misses VAT account or customer label:\n%s", out)
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
