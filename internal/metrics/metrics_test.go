package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

func TestObserveFile(t *testing.T) {
	m := New()
	statements := []models.Statement{
		{Transactions: make([]models.Transaction, 3)},
		{Transactions: make([]models.Transaction, 2)},
	}

	m.ObserveFile(models.BankRevolut, statements, "")
	m.ObserveFile(models.BankBoC, nil, "balance_mismatch")
	m.ObserveFile("", nil, "internal")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues("revolut", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues("boc", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues("unknown", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statements.WithLabelValues("revolut")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.transactions.WithLabelValues("revolut")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("balance_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("internal")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFile(models.BankBoC, nil, "")
		m.ObserveFailure("bad_request")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveFailure("bad_request")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `statements_failures_total{kind="bad_request"} 1`)
}
