package parser

import (
	"regexp"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

var bocPeriodPattern = regexp.MustCompile(`Statement Period: (?P<from>\d{2}/\d{2}/\d{4}) - (?P<to>\d{2}/\d{2}/\d{4})`)

// Bank of Cyprus statements list transactions oldest first with a value date
// after the posting date. The balance brought forward is printed under the
// first table header only.
func bocFormat() *Format {
	return &Format{
		Bank:           models.BankBoC,
		Name:           "Bank of Cyprus",
		DateLayout:     "02/01/2006",
		Numbers:        commaDot,
		Account:        Anchor{Text: "Account Number", Edge: EdgeLeft, At: 380},
		AccountPattern: digitsAccount,
		Period: PeriodSpec{
			Label:   Anchor{Text: "Statement Period:", Match: MatchPrefix},
			Pattern: bocPeriodPattern,
		},
		Opening: &BalanceAnchor{Label: Anchor{Text: "forward"}, AfterHeader: true},
		Header: &HeaderSpec{Anchors: []HeaderAnchor{
			{Anchor: Anchor{Text: "Balance", Edge: EdgeLeft, At: 538}},
		}},
		Columns: ColumnLayout{
			ColDate:        {Edge: EdgeLeft, At: 42},
			ColDescription: {Edge: EdgeLeft, At: 141},
			ColDebit:       {Edge: EdgeRight, At: 411},
			ColCredit:      {Edge: EdgeRight, At: 484},
		},
		RowStart: RowStart{Column: ColDate, RequireNextDate: true},
		Row:      []Field{FieldValueDate, FieldDescription, FieldAmount, FieldBalance},
		Markers: []Marker{
			{Anchor: Anchor{Text: "Continue on next Page"}, Action: NextPageHeader},
			{Anchor: Anchor{Text: "Total / Balance Carried Forward"}, Action: NextPageHeader},
		},
		Reconcile: ReconcileAscending,
		Signature: []Anchor{
			{Text: "Account Number"},
			{Text: "Statement Period:", Match: MatchPrefix},
		},
	}
}
