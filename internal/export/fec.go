package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FECColumns are the 18 columns of the French Fichier des Écritures Comptables.
var FECColumns = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate", "CompteNum", "CompteLib",
	"CompAuxNum", "CompAuxLib", "PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}

const (
	JournalSales = "VE"
	JournalBank  = "BQ"

	AccountCustomers = "411"
	AccountRevenue   = "706"
	AccountVAT       = "44571"
	AccountBank      = "512"
)

var journalLabels = map[string]string{
	JournalSales: "Ventes",
	JournalBank:  "Banque",
}

var accountLabels = map[string]string{
	AccountCustomers: "Clients",
	AccountRevenue:   "Prestations de services",
	AccountVAT:       "TVA collectee",
	AccountBank:      "Banque",
}

// FECLine is one debit or credit line of an entry.
type FECLine struct {
	Journal    string
	EntryNum   string
	EntryDate  time.Time
	Account    string
	AuxAccount string
	AuxLabel   string
	PieceRef   string
	PieceDate  time.Time
	Label      string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}

// FECFileName returns <SIREN>FEC<YYYYMMDD>.txt for the closing date.
func FECFileName(siren string, closing time.Time) string {
	return fmt.Sprintf("%sFEC%s.txt", siren, closing.Format("20060102"))
}

// WriteFEC renders lines tab-separated with the mandated header.
// Amounts use a comma decimal separator.
func WriteFEC(lines []FECLine) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(FECColumns, "\t"))
	buf.WriteString("\r\n")
	for _, l := range lines {
		cells := []string{
			l.Journal,
			journalLabels[l.Journal],
			l.EntryNum,
			fecDate(l.EntryDate),
			l.Account,
			accountLabels[l.Account],
			l.AuxAccount,
			clean(l.AuxLabel),
			l.PieceRef,
			fecDate(l.PieceDate),
			clean(l.Label),
			fecAmount(l.Debit),
			fecAmount(l.Credit),
			"",
			"",
			fecDate(l.EntryDate),
			"",
			"",
		}
		buf.WriteString(strings.Join(cells, "\t"))
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

func fecDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

func fecAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func clean(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}
