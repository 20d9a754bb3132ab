package parser

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// assembler groups committed transactions into statements in document order.
type assembler struct {
	bank    models.BankType
	source  string
	done    []models.Statement
	current models.Statement
	open    *models.Transaction
	// dateText collects date fragments of the open transaction in columnar
	// layouts, where the date may be split across tokens.
	dateText string
}

func newAssembler(bank models.BankType, source string) *assembler {
	a := &assembler{bank: bank, source: source}
	a.current = a.blank()
	return a
}

func (a *assembler) blank() models.Statement {
	return models.Statement{Bank: a.bank, Source: a.source}
}

func (a *assembler) begin(date time.Time) *models.Transaction {
	a.open = &models.Transaction{Date: date}
	a.dateText = ""
	return a.open
}

// commit appends the open transaction to the current statement. A transaction
// without an amount cannot be committed.
func (a *assembler) commit(state string) error {
	if a.open == nil {
		return nil
	}
	if !a.open.Amount.Valid {
		return &InvariantViolationError{State: state, Reason: fmt.Sprintf("transaction %q has no amount", a.open.Description)}
	}
	a.current.Transactions = append(a.current.Transactions, *a.open)
	a.open = nil
	a.dateText = ""
	return nil
}

// setAmount sets the signed amount of the open transaction exactly once.
func (a *assembler) setAmount(state string, amount decimal.Decimal) error {
	if a.open == nil {
		return &InvariantViolationError{State: state, Reason: "no open transaction for amount"}
	}
	if a.open.Amount.Valid {
		return &InvariantViolationError{State: state, Reason: "amount set twice"}
	}
	a.open.Amount = decimal.NewNullDecimal(amount)
	return nil
}

func (a *assembler) appendDescription(text string) {
	if a.open == nil || isBlank(text) {
		return
	}
	if a.open.Description == "" {
		a.open.Description = text
		return
	}
	a.open.Description += " " + text
}

// finalize closes the current statement and starts an empty one.
func (a *assembler) finalize() {
	if !a.current.Empty() {
		a.done = append(a.done, a.current)
	}
	a.current = a.blank()
}

// account assigns the account number to the current statement. A different
// account than the one already resolved starts a new statement, reported by
// the return value.
func (a *assembler) account(number string) bool {
	switched := a.current.AccountNumber != "" && a.current.AccountNumber != number
	if switched {
		a.finalize()
	}
	a.current.AccountNumber = number
	return switched
}

// period widens the current statement period to include [from, to].
func (a *assembler) period(from, to time.Time) {
	a.periodFrom(from)
	a.periodTo(to)
}

func (a *assembler) periodFrom(from time.Time) {
	if a.current.FromDate.IsZero() || from.Before(a.current.FromDate) {
		a.current.FromDate = from
	}
}

func (a *assembler) periodTo(to time.Time) {
	if a.current.ToDate.IsZero() || to.After(a.current.ToDate) {
		a.current.ToDate = to
	}
}

// finish commits what is open and returns the statements. Every statement
// must have an account number and a period.
func (a *assembler) finish(state string, f *Format) ([]models.Statement, error) {
	if err := a.commit(state); err != nil {
		return nil, err
	}
	a.finalize()
	if len(a.done) == 0 {
		return nil, &FormatMismatchError{State: stateAccount.String(), Expected: f.Account.Text}
	}
	for _, s := range a.done {
		if s.AccountNumber == "" {
			return nil, &FormatMismatchError{State: stateAccount.String(), Expected: f.Account.Text}
		}
		if s.FromDate.IsZero() || s.ToDate.IsZero() {
			return nil, &FormatMismatchError{State: statePeriod.String(), Expected: f.Period.Label.Text}
		}
	}
	return a.done, nil
}
