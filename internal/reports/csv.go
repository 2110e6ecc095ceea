package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/finance"
)

// WriteClientTotalsCSV serialises per-client collection totals to CSV.
func WriteClientTotalsCSV(w io.Writer, totals []collections.ClientTotal) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Client", "Visits", "Liters", "Total Value"}); err != nil {
		return err
	}
	for _, total := range totals {
		if err := writer.Write([]string{
			total.ClientName,
			fmt.Sprintf("%d", total.Visits),
			fmt.Sprintf("%.1f", total.Liters),
			total.TotalValue.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteLedgerSummaryCSV emits ledger documents as CSV.
func WriteLedgerSummaryCSV(w io.Writer, documents []finance.Document) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Number", "Kind", "Status", "Issue Date", "Total Value", "Down Payment"}); err != nil {
		return err
	}
	for _, doc := range documents {
		if err := writer.Write([]string{
			doc.Number,
			string(doc.Kind),
			string(doc.Status),
			doc.IssueDate.Format("2006-01-02"),
			doc.TotalValue.StringFixed(2),
			doc.DownPayment.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
