// Package metrics exposes Prometheus counters for statement conversion.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

const namespace = "statements"

// Metrics holds the conversion counters on a private registry, so several
// instances can coexist in tests.
type Metrics struct {
	registry     *prometheus.Registry
	files        *prometheus.CounterVec
	statements   *prometheus.CounterVec
	transactions *prometheus.CounterVec
	failures     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Number of statement files processed, by bank and outcome.",
		}, []string{"bank", "outcome"}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_total",
			Help:      "Number of statements extracted, by bank.",
		}, []string{"bank"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Number of transactions extracted, by bank.",
		}, []string{"bank"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Number of failed files, by error kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.files, m.statements, m.transactions, m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFile records the outcome of converting one file. failure is the
// error kind of a failed conversion, empty on success. A nil receiver is a
// no-op.
func (m *Metrics) ObserveFile(bank models.BankType, statements []models.Statement, failure string) {
	if m == nil {
		return
	}
	label := string(bank)
	if label == "" {
		label = "unknown"
	}
	if failure != "" {
		m.files.WithLabelValues(label, "error").Inc()
		m.failures.WithLabelValues(failure).Inc()
		return
	}
	m.files.WithLabelValues(label, "ok").Inc()
	m.statements.WithLabelValues(label).Add(float64(len(statements)))
	n := 0
	for _, s := range statements {
		n += len(s.Transactions)
	}
	m.transactions.WithLabelValues(label).Add(float64(n))
}

// ObserveFailure records a failure that happened before a bank was known,
// such as a rejected upload.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
