package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// Parser defines the interface for bank statement parsers.
type Parser interface {
	// Parse walks the positioned tokens of a document and returns the
	// statements found in it, in document order.
	Parse(doc *models.Document) ([]models.Statement, error)
	// BankName returns the human-readable bank name.
	BankName() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrace sends per-token and per-transition trace events to l.
func WithTrace(l zerolog.Logger) Option {
	return func(e *Engine) { e.trace = l }
}

// Engine runs the extraction state machine for one configured format.
type Engine struct {
	format func() *Format
	trace  zerolog.Logger
}

func (e *Engine) BankName() string { return e.format().Name }

func (e *Engine) Parse(doc *models.Document) ([]models.Statement, error) {
	f := e.format()
	if f.Bank == models.BankHellenic {
		if t, ok := doc.FirstToken(); ok && strings.TrimSpace(t.Text) == "ACCOUNT ACTIVITY" {
			f = hellenicActivityFormat()
		}
	}
	m := NewMachine(f, doc.Path, e.trace.With().Str("bank", string(f.Bank)).Logger())
	return m.Run(doc)
}

var formats = map[models.BankType]func() *Format{
	models.BankBoC:              bocFormat,
	models.BankEurobank:         eurobankFormat,
	models.BankEurobank3:        eurobank3Format,
	models.BankRevolut:          revolutFormat,
	models.BankFibank:           fibankFormat,
	models.BankUnlimint:         unlimintFormat,
	models.BankHellenic:         hellenicFormat,
	models.BankHellenicActivity: hellenicActivityFormat,
}

// detectOrder lists formats from the most to the least specific signature.
var detectOrder = []models.BankType{
	models.BankHellenicActivity,
	models.BankHellenic,
	models.BankEurobank,
	models.BankEurobank3,
	models.BankRevolut,
	models.BankUnlimint,
	models.BankFibank,
	models.BankBoC,
}

var aliases = map[string]models.BankType{
	"bankofcyprus":     models.BankBoC,
	"bank-of-cyprus":   models.BankBoC,
	"eurobank2023":     models.BankEurobank3,
	"hellenicbank":     models.BankHellenic,
	"hellenicactivity": models.BankHellenicActivity,
	"cardpay":          models.BankUnlimint,
}

// New returns the appropriate parser for the given bank type.
func New(bankType models.BankType, opts ...Option) (Parser, error) {
	f, ok := formats[bankType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBank, bankType)
	}
	e := &Engine{format: f, trace: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ParseBankType resolves a user-supplied bank name, accepting a few common
// aliases. Matching is case-insensitive.
func ParseBankType(s string) (models.BankType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, ok := formats[models.BankType(key)]; ok {
		return models.BankType(key), nil
	}
	if b, ok := aliases[strings.ReplaceAll(key, " ", "")]; ok {
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedBank, s)
}

// Banks returns the configured bank types in sorted order.
func Banks() []models.BankType {
	out := make([]models.BankType, 0, len(formats))
	for b := range formats {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AutoDetect identifies the bank from the signature labels printed in the
// document.
func AutoDetect(doc *models.Document) (models.BankType, error) {
	for _, b := range detectOrder {
		if matchesSignature(doc, formats[b]().Signature) {
			return b, nil
		}
	}
	return "", ErrUnknownBank
}

func matchesSignature(doc *models.Document, sig []Anchor) bool {
	if len(sig) == 0 {
		return false
	}
	for _, a := range sig {
		if !containsAnchor(doc, a) {
			return false
		}
	}
	return true
}

func containsAnchor(doc *models.Document, a Anchor) bool {
	for _, p := range doc.Pages {
		for _, t := range p.Tokens {
			if a.Matches(t, nil) {
				return true
			}
		}
	}
	return false
}
