package parser

import (
	"regexp"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

var (
	// 1.234,56 with an optional sign and up to two decimals
	eurobank3Amount        = regexp.MustCompile(`^(?P<amount>-?\d{1,3}(\.\d{3})*,\d{0,2})$`)
	eurobank3PeriodPattern = regexp.MustCompile(`^Statement from (?P<from>\d{2}/\d{2}/\d{4}) to (?P<to>\d{2}/\d{2}/\d{4})$`)
)

func eurobankFormat() *Format {
	return &Format{
		Bank:           models.BankEurobank,
		Name:           "Eurobank",
		DateLayout:     "02/01/2006",
		Numbers:        NumberFormat{Pattern: amountCurrency, Group: ", "},
		Account:        Anchor{Text: "IBAN Number / Αριθμός IBAN"},
		AccountPattern: ibanAccount,
		Period: PeriodSpec{
			Label: Anchor{Text: "Date From / Ημερομηνία Από"},
			Span:  1,
			To:    &Anchor{Text: "Date To / Ημερομηνία Μέχρι"},
		},
		Opening: &BalanceAnchor{Label: Anchor{Text: "Balance B/F / Υπόλοιπο Μεταφοράς"}},
		Columns: ColumnLayout{
			ColDate:        {Edge: EdgeLeft, At: 40},
			ColDescription: {Edge: EdgeLeft, At: 113},
			ColDebit:       {Edge: EdgeRight, At: 394},
			ColCredit:      {Edge: EdgeRight, At: 478},
		},
		RowStart: RowStart{Column: ColDate},
		Row:      []Field{FieldDescription, FieldSkip, FieldAmount, FieldBalance},
		Markers: []Marker{
			{Anchor: Anchor{Text: "info@eurobank.com.cy"}, Action: NextPage},
			{Anchor: Anchor{Text: "Total Amounts / Συνολικά Ποσά"}, Action: NextPage},
		},
		PageMarkers: []PageMarker{{Text: "ACCOUNT STATEMENT"}},
		Reconcile:   ReconcileAscending,
		Signature:   []Anchor{{Text: "IBAN Number / Αριθμός IBAN"}},
	}
}

// The newer Eurobank layout prints signed amounts and lists transactions
// newest first.
func eurobank3Format() *Format {
	return &Format{
		Bank:           models.BankEurobank3,
		Name:           "Eurobank (2023 layout)",
		DateLayout:     "02/01/2006",
		Numbers:        NumberFormat{Pattern: eurobank3Amount, Group: ".", Decimal: ","},
		Account:        Anchor{Text: "Account:"},
		AccountPattern: digitsAccount,
		Period: PeriodSpec{
			Label:   Anchor{Text: "Statement from ", Match: MatchPrefix},
			Pattern: eurobank3PeriodPattern,
		},
		Columns: ColumnLayout{
			ColDate:        {Edge: EdgeLeft, At: 38},
			ColDescription: {Edge: EdgeLeft, At: 112},
		},
		RowStart:      RowStart{Column: ColDate},
		Row:           []Field{FieldDescription, FieldSkip, FieldAmount, FieldBalance},
		SignedAmounts: true,
		PageMarkers:   []PageMarker{{Text: "Account Statement"}},
		Reconcile:     ReconcileDescending,
		Signature: []Anchor{
			{Text: "Account:"},
			{Text: "Statement from ", Match: MatchPrefix},
		},
	}
}
