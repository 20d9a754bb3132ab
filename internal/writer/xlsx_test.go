package writer

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

func TestXLSXWriter_Write(t *testing.T) {
	txns := []models.Transaction{
		txn(day(2024, 1, 5), "Coffee shop, Nicosia", "-5.5"),
		txn(time.Time{}, "Pending", ""),
	}

	var buf bytes.Buffer
	require.NoError(t, (&XLSXWriter{}).Write(&buf, txns))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(defaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, rows[0])
	assert.Equal(t, []string{"05/01/2024", "Coffee shop, Nicosia", "-5.5"}, rows[1])
	assert.Equal(t, "Pending", rows[2][1])
}

func TestXLSXWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	w := &XLSXWriter{Sheet: "Account 1"}
	require.NoError(t, w.WriteToFile(path, []models.Transaction{txn(day(2024, 1, 5), "Fee", "-1")}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Account 1"}, f.GetSheetList())
	v, err := f.GetCellValue("Account 1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Fee", v)
}
