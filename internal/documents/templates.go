package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/money"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("documents").Funcs(template.FuncMap{
	"money":   money.Format,
	"extenso": money.InWords,
	"date": func(t time.Time) string {
		return t.Format("02/01/2006")
	},
	"liters": func(v float64) string {
		return fmt.Sprintf("%.1f L", v)
	},
	"dataURL": func(s string) template.URL {
		return template.URL(s)
	},
}).ParseFS(templateFS, "templates/*.html.tmpl"))

// InstallmentRow is one plan line on a contract document.
type InstallmentRow struct {
	Sequence int
	DueDate  time.Time
	Amount   decimal.Decimal
}

// ContractData feeds the contract template.
type ContractData struct {
	Number       string
	ClientName   string
	ClientTaxID  string
	IssueDate    time.Time
	TotalValue   decimal.Decimal
	DownPayment  decimal.Decimal
	Installments []InstallmentRow
	Signature    string
}

// ReceiptData feeds the collection receipt template.
type ReceiptData struct {
	Code        string
	ClientName  string
	CollectedAt time.Time
	Liters      float64
	UnitPrice   decimal.Decimal
	TotalValue  decimal.Decimal
	Collector   string
	Signature   string
}

// CertificateData feeds the destination certificate template.
type CertificateData struct {
	ClientName  string
	ClientTaxID string
	PeriodFrom  time.Time
	PeriodTo    time.Time
	Liters      float64
	IssuedAt    time.Time
}

func renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
