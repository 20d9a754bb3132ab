package parser

import (
	"regexp"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

var (
	revolutPeriodPattern = regexp.MustCompile(`from (?P<from>\w{3} \d{1,2}, \d{4}) to (?P<to>\w{3} \d{1,2}, \d{4})`)
	revolutTypePattern   = regexp.MustCompile(`^\w{3}$`)
)

// Revolut bundles one section per account or currency. Every section repeats
// the statement header; sections of the same account extend one statement.
func revolutFormat() *Format {
	return &Format{
		Bank:           models.BankRevolut,
		Name:           "Revolut",
		DateLayout:     "Jan 2, 2006",
		Numbers:        NumberFormat{Pattern: amountCurrency, Group: ", "},
		Account:        Anchor{Text: "IBAN (SEPA)", Edge: EdgeLeft, At: 406},
		AccountPattern: ibanAccount,
		Period: PeriodSpec{
			Label:   Anchor{Text: "Transactions from ", Match: MatchPrefix},
			Pattern: revolutPeriodPattern,
		},
		Header: &HeaderSpec{Anchors: []HeaderAnchor{
			{Anchor: Anchor{Text: "Balance", Edge: EdgeLeft, At: 531}},
		}},
		Columns: ColumnLayout{
			ColDate:        {Edge: EdgeLeft, At: 37.5},
			ColDescription: {Edge: EdgeLeft, At: 116},
			ColDebit:       {Edge: EdgeRight, At: 453},
			ColCredit:      {Edge: EdgeRight, At: 505},
		},
		RowStart:    RowStart{Column: ColDate},
		Row:         []Field{FieldCode, FieldDescription, FieldAmount, FieldBalance},
		CodePattern: revolutTypePattern,
		Markers: []Marker{
			{Anchor: Anchor{Text: "Revolut Payments UAB", Match: MatchContains}, Action: NextPage},
			{Anchor: Anchor{Text: "Statement", Edge: EdgeLeft, At: 471}, Action: NewSection},
		},
		Reconcile: ReconcileDescending,
		Signature: []Anchor{{Text: "IBAN (SEPA)"}},
	}
}
