package parser

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every typed error below matches one of these via errors.Is.
var (
	ErrFormatMismatch           = errors.New("format mismatch")
	ErrMalformedValue           = errors.New("malformed value")
	ErrUnexpectedAmountPosition = errors.New("unexpected amount position")
	ErrInvariantViolation       = errors.New("invariant violation")
	ErrBalanceMismatch          = errors.New("balance mismatch")

	ErrUnsupportedBank = errors.New("unsupported bank type")
	ErrUnknownBank     = errors.New("could not auto-detect bank from statement content; please specify --bank flag")
)

// FormatMismatchError means an expected anchor or header was not found, or
// was found out of order. Usually the wrong bank was selected.
type FormatMismatchError struct {
	State    string
	Expected string
	Found    string
	Page     int
}

func (e *FormatMismatchError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("format mismatch in %s: %q not found", e.State, e.Expected)
	}
	return fmt.Sprintf("format mismatch in %s on page %d: expected %q, found %q", e.State, e.Page+1, e.Expected, e.Found)
}

func (e *FormatMismatchError) Is(target error) bool { return target == ErrFormatMismatch }

// MalformedValueError is raised when a token expected to hold a date, amount
// or account number cannot be parsed.
type MalformedValueError struct {
	State string
	Kind  string
	Text  string
	Page  int
	Left  float64
	Right float64
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed %s %q in %s (page %d, x %.1f-%.1f)", e.Kind, e.Text, e.State, e.Page+1, e.Left, e.Right)
}

func (e *MalformedValueError) Is(target error) bool { return target == ErrMalformedValue }

// UnexpectedAmountPositionError is raised for an amount that is aligned to
// neither the debit nor the credit column.
type UnexpectedAmountPositionError struct {
	State string
	Text  string
	Page  int
	Left  float64
	Right float64
}

func (e *UnexpectedAmountPositionError) Error() string {
	return fmt.Sprintf("unexpected amount position for %q in %s (page %d, x %.1f-%.1f)", e.Text, e.State, e.Page+1, e.Left, e.Right)
}

func (e *UnexpectedAmountPositionError) Is(target error) bool {
	return target == ErrUnexpectedAmountPosition
}

// InvariantViolationError reports a broken engine contract such as an amount
// set twice or a missing open transaction.
type InvariantViolationError struct {
	State  string
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.State, e.Reason)
}

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }

// BalanceMismatchError reports a failed running or closing balance check.
type BalanceMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
	State    string
	Page     int
}

func (e *BalanceMismatchError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("balance mismatch: expected %s, actual %s", e.Expected, e.Actual)
	}
	return fmt.Sprintf("balance mismatch in %s on page %d: expected %s, actual %s", e.State, e.Page+1, e.Expected, e.Actual)
}

func (e *BalanceMismatchError) Is(target error) bool { return target == ErrBalanceMismatch }

// Kind returns a short machine-readable name for the error kind of err, or
// "internal" when err is not one of the parser errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFormatMismatch):
		return "format_mismatch"
	case errors.Is(err, ErrMalformedValue):
		return "malformed_value"
	case errors.Is(err, ErrUnexpectedAmountPosition):
		return "unexpected_amount_position"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrBalanceMismatch):
		return "balance_mismatch"
	case errors.Is(err, ErrUnsupportedBank):
		return "unsupported_bank"
	case errors.Is(err, ErrUnknownBank):
		return "unknown_bank"
	default:
		return "internal"
	}
}
