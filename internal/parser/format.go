package parser

import (
	"regexp"
	"strings"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// Edge selects which coordinate of a token an anchor or column is measured on.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeLeft
	EdgeRight
	EdgeCenter
)

func (e Edge) of(t models.Token) float64 {
	switch e {
	case EdgeRight:
		return t.Right
	case EdgeCenter:
		return t.HorizontalCenter()
	default:
		return t.Left
	}
}

// Match is the text comparison an Anchor performs.
type Match int

const (
	MatchExact Match = iota
	MatchPrefix
	MatchContains
)

// Anchor is a literal label, optionally gated by the position of one of the
// token's edges or by a calibrated column.
type Anchor struct {
	Text      string
	Match     Match
	Edge      Edge
	At        float64
	Column    string
	Tolerance float64
}

func (a Anchor) matchText(s string) bool {
	switch a.Match {
	case MatchPrefix:
		return strings.HasPrefix(s, a.Text)
	case MatchContains:
		return strings.Contains(s, a.Text)
	default:
		return s == a.Text
	}
}

// Matches reports whether t carries the anchor label at the anchor position.
func (a Anchor) Matches(t models.Token, layout ColumnLayout) bool {
	if !a.matchText(t.Text) {
		return false
	}
	if a.Column != "" {
		return layout.Aligned(a.Column, t)
	}
	if a.Edge == EdgeNone {
		return true
	}
	return IsApproximately(a.Edge.of(t), a.At, tolerance(a.Tolerance))
}

// PeriodSpec describes where the statement period is printed.
type PeriodSpec struct {
	Label Anchor
	// Span is the number of tokens after the label that hold the period,
	// joined by spaces. Zero means the label token itself holds it.
	Span int
	// Pattern extracts the "from" and "to" groups. When To is set the value
	// after Label is the start date alone.
	Pattern *regexp.Regexp
	To      *Anchor
}

// BalanceAnchor is a label followed by a balance. With Values == 2 the label
// is followed by a debit and a credit figure and the balance is their
// difference (credit minus debit).
type BalanceAnchor struct {
	Label       Anchor
	Values      int
	AfterHeader bool
}

// HeaderAnchor is one column label of a table header.
type HeaderAnchor struct {
	Anchor
	// Column names the layout entry recorded from this label; empty for
	// labels that only gate the table start.
	Column   string
	Record   Edge
	Adjacent bool
	Optional bool
}

// HeaderSpec is the ordered list of labels opening the transaction table.
type HeaderSpec struct {
	Anchors []HeaderAnchor
	// Recalibrate requires the header on every page to agree with the
	// positions recorded on the first one.
	Recalibrate bool
}

// RowStart describes the token opening a transaction row.
type RowStart struct {
	Column          string
	RequireNextDate bool
}

// Field is one closed step of a transaction row following the row anchor.
type Field int

const (
	FieldSkip Field = iota
	FieldValueDate
	FieldCode
	FieldDescription
	FieldAmount
	FieldBalance
)

func (f Field) String() string {
	switch f {
	case FieldValueDate:
		return "ValueDate"
	case FieldCode:
		return "TransactionType"
	case FieldDescription:
		return "FirstDescription"
	case FieldAmount:
		return "Amount"
	case FieldBalance:
		return "Balance"
	default:
		return "Skip"
	}
}

// MarkerAction is what a table marker does to the scan.
type MarkerAction int

const (
	// NextPage abandons the rest of the page and keeps scanning transactions.
	NextPage MarkerAction = iota
	// NextPageHeader abandons the rest of the page and waits for the table
	// header again.
	NextPageHeader
	// NewSection commits the open transaction, resets the running balance
	// and searches for the account header again.
	NewSection
)

// Marker is a literal token met while scanning transactions.
type Marker struct {
	Anchor
	Action MarkerAction
}

// PageMarker is a literal token printed as the first token of a page.
type PageMarker struct {
	Text string
	// NewStatement starts a new statement. Otherwise the open transaction is
	// committed and the running balance reset.
	NewStatement bool
}

// Cell is the column a table token was classified into.
type Cell int

const (
	CellNone Cell = iota
	CellDate
	CellDescription
	CellDebit
	CellCredit
	CellBalance
)

// RowContext is what a RowTracker sees of each classified table token.
type RowContext struct {
	Token       models.Token
	Next        *models.Token
	Cell        Cell
	Layout      ColumnLayout
	Open        *models.Transaction
	Page        int
	FirstOnPage bool
}

// RowTracker finds row boundaries for layouts whose rows are not introduced
// by a single anchor token. A tracker is created per extraction run.
type RowTracker interface {
	// Observe runs before the token is applied; true commits the open row.
	Observe(rc RowContext) bool
	// Complete runs after the token is applied; true commits the open row.
	Complete(rc RowContext) bool
}

// Format is the declarative description of one bank's statement layout.
type Format struct {
	Bank models.BankType
	Name string

	DateLayout string
	Numbers    NumberFormat

	Account        Anchor
	AccountPattern *regexp.Regexp
	Period         PeriodSpec
	Opening        *BalanceAnchor
	Header         *HeaderSpec
	Columns        ColumnLayout

	RowStart        RowStart
	Row             []Field
	CodePattern     *regexp.Regexp
	SignedAmounts   bool
	SkipZeroAmounts bool
	// DateFragments concatenates date tokens of a columnar row instead of
	// replacing the date with the latest one.
	DateFragments bool

	// Rows switches the table to columnar mode.
	Rows     func() RowTracker
	Classify func(t models.Token, layout ColumnLayout) Cell

	Markers         []Marker
	PageMarkers     []PageMarker
	TableEnd        *Anchor
	Closing         *BalanceAnchor
	HeaderEveryPage bool

	Reconcile ReconcileMode

	// Signature labels must all be present for AutoDetect to pick the format.
	Signature []Anchor
}

func (f *Format) columnar() bool { return f.Rows != nil }

func (f *Format) classify(t models.Token, layout ColumnLayout) Cell {
	if f.Classify != nil {
		return f.Classify(t, layout)
	}
	return classifyByColumn(t, layout)
}

func classifyByColumn(t models.Token, layout ColumnLayout) Cell {
	switch {
	case layout.Aligned(ColDate, t):
		return CellDate
	case layout.Aligned(ColDebit, t):
		return CellDebit
	case layout.Aligned(ColCredit, t):
		return CellCredit
	case layout.Aligned(ColBalance, t):
		return CellBalance
	case layout.Aligned(ColDescription, t):
		return CellDescription
	default:
		return CellNone
	}
}
