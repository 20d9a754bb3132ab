package writer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// DateLayout is the date format of every output column.
const DateLayout = "02/01/2006"

const crlf = "\r\n"

// CSVWriter writes transactions as Date,Description,Amount rows with CRLF
// line endings.
type CSVWriter struct{}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, txns); err != nil {
		return err
	}
	return f.Close()
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, txns []models.Transaction) error {
	bw := bufio.NewWriter(out)
	if _, err := bw.WriteString("Date,Description,Amount" + crlf); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, txn := range txns {
		row := formatDate(txn.Date) + "," + quoteDescription(txn.Description) + "," + formatAmount(txn.Amount) + crlf
		if _, err := bw.WriteString(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// quoteDescription quotes s only when it contains a comma.
func quoteDescription(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func formatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return amount.Decimal.String()
}

type csvRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
}

// ParseCSV reads back a file produced by CSVWriter.
func ParseCSV(in io.Reader) ([]models.Transaction, error) {
	r := csv.NewReader(in)
	r.LazyQuotes = true

	var rows []csvRow
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	txns := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		var txn models.Transaction
		if row.Date != "" {
			d, err := time.Parse(DateLayout, row.Date)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid date %q: %w", i+1, row.Date, err)
			}
			txn.Date = d
		}
		txn.Description = row.Description
		if row.Amount != "" {
			a, err := decimal.NewFromString(row.Amount)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid amount %q: %w", i+1, row.Amount, err)
			}
			txn.Amount = decimal.NewNullDecimal(a)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}
