package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

func txn(date time.Time, description, amount string) models.Transaction {
	t := models.Transaction{Date: date, Description: description}
	if amount != "" {
		t.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	return t
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCSVWriter_Write(t *testing.T) {
	txns := []models.Transaction{
		txn(day(2024, 1, 15), "CARD PAYMENT TESCO", "-25.990"),
		txn(day(2024, 1, 16), "SALARY", "2500.00"),
	}

	var buf bytes.Buffer
	w := &CSVWriter{}
	require.NoError(t, w.Write(&buf, txns))

	want := "Date,Description,Amount\r\n" +
		"15/01/2024,CARD PAYMENT TESCO,-25.99\r\n" +
		"16/01/2024,SALARY,2500\r\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVWriter_Quoting(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"plain", "Coffee", "Coffee"},
		{"comma", "Shop, Nicosia", `"Shop, Nicosia"`},
		{"comma and quote", `Shop "A", Nicosia`, `"Shop ""A"", Nicosia"`},
		{"quote without comma", `Shop "A"`, `Shop "A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&CSVWriter{}).Write(&buf, []models.Transaction{txn(day(2024, 2, 1), tt.description, "1")}))
			assert.Equal(t, "Date,Description,Amount\r\n01/02/2024,"+tt.want+",1\r\n", buf.String())
		})
	}
}

func TestCSVWriter_EmptyFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, []models.Transaction{txn(time.Time{}, "Fee", "")}))
	assert.Equal(t, "Date,Description,Amount\r\n,Fee,\r\n", buf.String())
}

func TestCSVWriter_NoTransactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, nil))
	assert.Equal(t, "Date,Description,Amount\r\n", buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	txns := []models.Transaction{
		txn(day(2024, 1, 5), "Coffee shop, Nicosia", "-5.00"),
		txn(day(2024, 1, 6), `Refund "duplicate", card`, "12.5"),
		txn(day(2024, 1, 7), `Say "hi"`, "0.01"),
		txn(day(2024, 1, 10), "Salary January", "2500"),
	}

	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, txns))

	got, err := ParseCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(txns))
	for i := range txns {
		assert.True(t, txns[i].Date.Equal(got[i].Date), "row %d date", i)
		assert.Equal(t, txns[i].Description, got[i].Description, "row %d description", i)
		assert.True(t, txns[i].Amount.Decimal.Equal(got[i].Amount.Decimal), "row %d amount", i)
	}
}

func TestParseCSV_InvalidAmount(t *testing.T) {
	_, err := ParseCSV(bytes.NewBufferString("Date,Description,Amount\r\n01/01/2024,Fee,abc\r\n"))
	assert.Error(t, err)
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, (&CSVWriter{}).WriteToFile(path, []models.Transaction{txn(day(2024, 1, 5), "Fee", "-1")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Description,Amount\r\n05/01/2024,Fee,-1\r\n", string(data))
}

func TestCSVWriter_WriteToFileBadPath(t *testing.T) {
	err := (&CSVWriter{}).WriteToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}
