package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single bank statement transaction.
type Transaction struct {
	Date        time.Time           `json:"date"`
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"` // negative = debit
}

// BankType identifies a configured statement format.
type BankType string

const (
	BankBoC              BankType = "boc"
	BankEurobank         BankType = "eurobank"
	BankEurobank3        BankType = "eurobank3"
	BankRevolut          BankType = "revolut"
	BankFibank           BankType = "fibank"
	BankUnlimint         BankType = "unlimint"
	BankHellenic         BankType = "hellenic"
	BankHellenicActivity BankType = "hellenic-activity"
)

// Statement is one account/period block extracted from a document.
type Statement struct {
	Bank          BankType      `json:"bank"`
	Source        string        `json:"source,omitempty"`
	AccountNumber string        `json:"accountNumber"`
	FromDate      time.Time     `json:"fromDate"`
	ToDate        time.Time     `json:"toDate"`
	Transactions  []Transaction `json:"transactions"`
}

// Empty reports whether nothing has been resolved for the statement yet.
func (s *Statement) Empty() bool {
	return s.AccountNumber == "" && s.FromDate.IsZero() && len(s.Transactions) == 0
}
