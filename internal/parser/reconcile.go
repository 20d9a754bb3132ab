package parser

import (
	"github.com/shopspring/decimal"
)

// ReconcileMode is the running-balance convention of a format.
type ReconcileMode int

const (
	// ReconcileNone performs no balance checks.
	ReconcileNone ReconcileMode = iota
	// ReconcileAscending checks prior + amount == stated, for statements
	// listed oldest first.
	ReconcileAscending
	// ReconcileDescending checks priorStated - priorAmount == stated, for
	// statements listed newest first.
	ReconcileDescending
	// ReconcileClosing checks opening + sum(amounts) == closing once, at
	// the closing balance marker.
	ReconcileClosing
)

func (m ReconcileMode) String() string {
	switch m {
	case ReconcileAscending:
		return "ascending"
	case ReconcileDescending:
		return "descending"
	case ReconcileClosing:
		return "closing"
	default:
		return "none"
	}
}

// Reconciler holds the running balance of one statement.
type Reconciler struct {
	Mode ReconcileMode

	balance    decimal.NullDecimal
	lastAmount decimal.NullDecimal
	total      decimal.Decimal
}

// Seed sets the balance brought forward.
func (r *Reconciler) Seed(b decimal.Decimal) {
	r.balance = decimal.NewNullDecimal(b)
	r.lastAmount = decimal.NullDecimal{}
	r.total = decimal.Zero
}

// Reset forgets the running balance; the next stated balance is taken as is.
func (r *Reconciler) Reset() {
	r.balance = decimal.NullDecimal{}
	r.lastAmount = decimal.NullDecimal{}
	r.total = decimal.Zero
}

// Add records a transaction amount towards the closing check.
func (r *Reconciler) Add(amount decimal.Decimal) {
	r.total = r.total.Add(amount)
}

// Check validates the balance stated after a transaction of the given amount.
func (r *Reconciler) Check(amount, stated decimal.Decimal) error {
	var expected decimal.NullDecimal
	switch r.Mode {
	case ReconcileAscending:
		if r.balance.Valid {
			expected = decimal.NewNullDecimal(r.balance.Decimal.Add(amount))
		}
	case ReconcileDescending:
		if r.balance.Valid && r.lastAmount.Valid {
			expected = decimal.NewNullDecimal(r.balance.Decimal.Sub(r.lastAmount.Decimal))
		}
	}
	if expected.Valid && !expected.Decimal.Equal(stated) {
		return &BalanceMismatchError{Expected: expected.Decimal, Actual: stated}
	}
	r.balance = decimal.NewNullDecimal(stated)
	r.lastAmount = decimal.NewNullDecimal(amount)
	return nil
}

// Close validates the closing balance against the opening balance plus all
// recorded amounts. Only ReconcileClosing checks anything.
func (r *Reconciler) Close(closing decimal.Decimal) error {
	if r.Mode != ReconcileClosing {
		return nil
	}
	opening := decimal.Zero
	if r.balance.Valid {
		opening = r.balance.Decimal
	}
	expected := opening.Add(r.total)
	if !expected.Equal(closing) {
		return &BalanceMismatchError{Expected: expected, Actual: closing}
	}
	return nil
}
