package parser

import (
	"github.com/aukolov/bank-statement-parser/internal/models"
)

// Fibank prints no running balance. Rows are separated by vertical space in
// the description column and the date is wrapped over several lines.
func fibankFormat() *Format {
	return &Format{
		Bank:           models.BankFibank,
		Name:           "Fibank",
		DateLayout:     "02/01/2006",
		Numbers:        commaDot,
		Account:        Anchor{Text: "Account", Edge: EdgeLeft, At: 65},
		AccountPattern: ibanAccount,
		Period: PeriodSpec{
			Label:   Anchor{Text: "Period:"},
			Span:    1,
			Pattern: periodSlash,
		},
		Opening: &BalanceAnchor{Label: Anchor{Text: "Opening balance:"}, Values: 2},
		Header: &HeaderSpec{Anchors: []HeaderAnchor{
			{Anchor: Anchor{Text: "explanation", Edge: EdgeLeft, At: 454}},
		}},
		Columns: ColumnLayout{
			ColDate:        {Edge: EdgeCenter, At: 85},
			ColDebit:       {Edge: EdgeRight, At: 212},
			ColCredit:      {Edge: EdgeRight, At: 275},
			ColDescription: {Edge: EdgeLeft, At: 284},
		},
		Rows:            func() RowTracker { return &gapTracker{gap: 12} },
		DateFragments:   true,
		SkipZeroAmounts: true,
		TableEnd:        &Anchor{Text: "Total debits and"},
		Closing:         &BalanceAnchor{Label: Anchor{Text: "Closing balance:"}, Values: 2},
		Reconcile:       ReconcileClosing,
		Signature: []Anchor{
			{Text: "Opening balance:"},
			{Text: "Period:"},
		},
	}
}

// gapTracker starts a new row when a description line begins more than gap
// below the previous description line.
type gapTracker struct {
	gap    float64
	bottom float64
	seen   bool
}

func (g *gapTracker) Observe(rc RowContext) bool {
	if rc.FirstOnPage && rc.Page > 0 {
		g.bottom = rc.Token.Bottom
		g.seen = true
	}
	if rc.Cell != CellDescription {
		return false
	}
	split := g.seen && rc.Token.Top-g.bottom > g.gap
	g.bottom = rc.Token.Bottom
	g.seen = true
	return split
}

func (g *gapTracker) Complete(RowContext) bool { return false }
