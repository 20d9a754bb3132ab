package parser

import (
	"github.com/aukolov/bank-statement-parser/internal/models"
)

// activityRowTolerance tells a description line printed on the date line
// apart from the lines directly above and below it.
const activityRowTolerance = 4.9

func hellenicFormat() *Format {
	return &Format{
		Bank:           models.BankHellenic,
		Name:           "Hellenic Bank",
		DateLayout:     "02/01/2006",
		Numbers:        dotComma,
		Account:        Anchor{Text: "ACCOUNT NO", Edge: EdgeLeft, At: 272},
		AccountPattern: dashedAccount,
		Period: PeriodSpec{
			Label:   Anchor{Text: "STATEMENT PERIOD"},
			Span:    1,
			Pattern: periodSlash,
		},
		Opening: &BalanceAnchor{Label: Anchor{Text: "BALANCE B/F"}},
		Header: &HeaderSpec{Anchors: []HeaderAnchor{
			{Anchor: Anchor{Text: "BALANCE"}},
		}},
		HeaderEveryPage: true,
		Columns: ColumnLayout{
			ColDate:        {Edge: EdgeLeft, At: 30},
			ColDescription: {Edge: EdgeLeft, At: 88},
			ColDebit:       {Edge: EdgeRight, At: 328},
			ColCredit:      {Edge: EdgeRight, At: 401},
		},
		RowStart: RowStart{Column: ColDate},
		Row:      []Field{FieldDescription, FieldAmount, FieldValueDate, FieldBalance},
		Markers: []Marker{
			{Anchor: Anchor{Text: "TOTALS:", Edge: EdgeLeft, At: 186}, Action: NextPageHeader},
		},
		Reconcile: ReconcileAscending,
		Signature: []Anchor{
			{Text: "ACCOUNT NO"},
			{Text: "STATEMENT PERIOD"},
		},
	}
}

// The account activity report prints each row's date vertically centred on
// a multi-line description, so rows are delimited by counting description
// lines above and below the date line.
func hellenicActivityFormat() *Format {
	return &Format{
		Bank:           models.BankHellenicActivity,
		Name:           "Hellenic Bank (account activity)",
		DateLayout:     "02/01/2006",
		Numbers:        dotComma,
		Account:        Anchor{Text: "ACCOUNT NO"},
		AccountPattern: dashedAccount,
		Period: PeriodSpec{
			Label:   Anchor{Text: "PERIOD"},
			Span:    3,
			Pattern: periodSlash,
		},
		Header: &HeaderSpec{
			Recalibrate: true,
			Anchors: []HeaderAnchor{
				{Anchor: Anchor{Text: "DATE"}, Column: ColDate, Record: EdgeLeft},
				{Anchor: Anchor{Text: "DESCRIPTION"}, Column: ColDescription, Record: EdgeLeft, Adjacent: true},
				{Anchor: Anchor{Text: "DEBIT"}, Column: ColDebit, Record: EdgeRight, Adjacent: true},
				{Anchor: Anchor{Text: "CREDIT"}, Column: ColCredit, Record: EdgeRight, Adjacent: true},
				{Anchor: Anchor{Text: "VALUE DATE"}, Column: ColValueDate, Record: EdgeLeft, Adjacent: true},
				{Anchor: Anchor{Text: "BALANCE"}, Column: ColBalance, Record: EdgeRight, Optional: true},
			},
		},
		HeaderEveryPage: true,
		Rows:            func() RowTracker { return &activityTracker{} },
		Classify:        classifyActivity,
		SignedAmounts:   true,
		Markers: []Marker{
			{Anchor: Anchor{Text: "TOTALS:"}, Action: NextPageHeader},
		},
		Reconcile: ReconcileNone,
		Signature: []Anchor{{Text: "ACCOUNT ACTIVITY"}},
	}
}

func classifyActivity(t models.Token, layout ColumnLayout) Cell {
	if layout.Aligned(ColDate, t) {
		if _, ok := parseDate("02/01/2006", t.Text); ok {
			return CellDate
		}
	}
	desc, okDesc := layout[ColDescription]
	debit, okDebit := layout[ColDebit]
	if okDesc && okDebit && t.Left > desc.At-5 && t.Right < debit.At-50 {
		return CellDescription
	}
	switch {
	case layout.Aligned(ColDebit, t):
		return CellDebit
	case layout.Aligned(ColCredit, t):
		return CellCredit
	case layout.Aligned(ColBalance, t):
		return CellBalance
	}
	return CellNone
}

type activityTracker struct {
	// expected counts description lines printed above the date line that
	// still need a matching line below it.
	expected   int
	dateBottom float64
}

func (a *activityTracker) Observe(rc RowContext) bool {
	t := rc.Token
	switch rc.Cell {
	case CellDate:
		if rc.Open == nil {
			a.expected = 0
		}
		a.dateBottom = t.Bottom
	case CellDescription:
		if rc.Open == nil {
			a.expected = 1
			a.dateBottom = 0
			return false
		}
		if !rc.Layout.Aligned(ColDescription, t) {
			return false
		}
		if IsApproximately(a.dateBottom, 0, DefaultTolerance) || a.dateBottom-3 > t.Bottom {
			a.expected++
		} else if !IsApproximately(a.dateBottom, t.Bottom, activityRowTolerance) || a.dateBottom+3 < t.Bottom {
			a.expected--
		}
	}
	return false
}

func (a *activityTracker) Complete(rc RowContext) bool {
	t := rc.Token
	_, hasBalance := rc.Layout[ColBalance]
	done := false
	switch rc.Cell {
	case CellDescription:
		done = a.expected == 0 &&
			!IsApproximately(a.dateBottom, t.Bottom, activityRowTolerance) &&
			(rc.Next == nil || rc.Next.Top > t.Bottom) &&
			rc.Open.Amount.Valid
	case CellBalance:
		done = a.expected == 0
	case CellDebit, CellCredit:
		done = !hasBalance && a.expected == 0
	}
	if done {
		a.expected = 0
		a.dateBottom = 0
	}
	return done
}
