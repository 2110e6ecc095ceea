package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/finance"
)

// BuildClientTotalsXLSX renders per-client collection totals as a workbook.
func BuildClientTotalsXLSX(totals []collections.ClientTotal) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Collections"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Client", "Visits", "Liters", "Total Value"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, total := range totals {
		values := []interface{}{
			total.ClientName,
			total.Visits,
			total.Liters,
			total.TotalValue.InexactFloat64(),
		}
		if err := setRow(f, sheet, rowIdx+2, values); err != nil {
			return nil, err
		}
	}
	return workbookBytes(f)
}

// BuildLedgerSummaryXLSX renders ledger documents as a workbook.
func BuildLedgerSummaryXLSX(documents []finance.Document) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Ledger"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Number", "Kind", "Status", "Issue Date", "Total Value", "Down Payment"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, doc := range documents {
		values := []interface{}{
			doc.Number,
			string(doc.Kind),
			string(doc.Status),
			doc.IssueDate.Format("2006-01-02"),
			doc.TotalValue.InexactFloat64(),
			doc.DownPayment.InexactFloat64(),
		}
		if err := setRow(f, sheet, rowIdx+2, values); err != nil {
			return nil, err
		}
	}
	return workbookBytes(f)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for colIdx, value := range values {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
