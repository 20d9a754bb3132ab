package parser

import (
	"regexp"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

var unlimintPeriodPattern = regexp.MustCompile(`(?P<from>\d{2}\.\d{2}\.\d{4}) - (?P<to>\d{2}\.\d{2}\.\d{4})`)

// Unlimint files hold one statement per account, each starting on a new
// page. Columns are calibrated from the table header of every statement.
func unlimintFormat() *Format {
	return &Format{
		Bank:           models.BankUnlimint,
		Name:           "Unlimint",
		DateLayout:     "02.01.2006",
		Numbers:        NumberFormat{Pattern: regexp.MustCompile(`^(?P<amount>\d{1,3}([, ]\d{3})*\.\d{2})$`), Group: ", "},
		Account:        Anchor{Text: "Customer Account", Edge: EdgeLeft, At: 406},
		AccountPattern: spacedIBAN,
		Period: PeriodSpec{
			Label:   Anchor{Text: "Period", Match: MatchPrefix},
			Pattern: unlimintPeriodPattern,
		},
		Header: &HeaderSpec{Anchors: []HeaderAnchor{
			{Anchor: Anchor{Text: "Value Date"}, Column: ColDate, Record: EdgeLeft},
			{Anchor: Anchor{Text: "Payment Details"}, Column: ColDescription, Record: EdgeLeft},
			{Anchor: Anchor{Text: "Remitter / Beneficiary"}, Column: ColCounterpart, Record: EdgeLeft},
			{Anchor: Anchor{Text: "Debit"}, Column: ColDebit, Record: EdgeRight},
			{Anchor: Anchor{Text: "Credit"}, Column: ColCredit, Record: EdgeRight, Adjacent: true},
		}},
		RowStart: RowStart{Column: ColDate},
		Row:      []Field{FieldDescription, FieldAmount},
		Markers: []Marker{
			{Anchor: Anchor{Text: "Created ", Match: MatchPrefix, Column: ColDate}, Action: NextPage},
		},
		PageMarkers: []PageMarker{{Text: "Customer Account", NewStatement: true}},
		Reconcile:   ReconcileNone,
		Signature: []Anchor{
			{Text: "Customer Account"},
			{Text: "Payment Details"},
		},
	}
}
