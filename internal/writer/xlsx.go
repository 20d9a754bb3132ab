package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

const defaultSheet = "Transactions"

// XLSXWriter renders transactions to a single-sheet workbook with the same
// columns as the CSV output. Amounts are stored as numbers.
type XLSXWriter struct {
	Sheet string
}

// WriteToFile writes transactions to an XLSX file at the given path.
func (w *XLSXWriter) WriteToFile(path string, txns []models.Transaction) error {
	f, err := w.build(txns)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	return nil
}

// Write writes the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, txns []models.Transaction) error {
	f, err := w.build(txns)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) build(txns []models.Transaction) (*excelize.File, error) {
	sheet := w.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	header := []interface{}{"Date", "Description", "Amount"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, txn := range txns {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		var amount interface{}
		if txn.Amount.Valid {
			amount = txn.Amount.Decimal.InexactFloat64()
		}
		row := []interface{}{formatDate(txn.Date), txn.Description, amount}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f, nil
}
