package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

func unlimintHeader() []models.Token {
	return []models.Token{
		tok("Value Date", 40, 90, 80),
		tok("Payment Details", 100, 180, 80),
		tok("Remitter / Beneficiary", 200, 300, 80),
		tok("Debit", 380, 400, 80),
		tok("Credit", 455, 480, 80),
		tok("05.01.2024", 40, 90, 100),
	}
}

func TestCalibrate(t *testing.T) {
	h := unlimintFormat().Header
	layout, next, err := Calibrate(unlimintHeader(), 0, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 5 {
		t.Errorf("got next %d, want 5", next)
	}
	want := ColumnLayout{
		ColDate:        {Edge: EdgeLeft, At: 40},
		ColDescription: {Edge: EdgeLeft, At: 100},
		ColCounterpart: {Edge: EdgeLeft, At: 200},
		ColDebit:       {Edge: EdgeRight, At: 400},
		ColCredit:      {Edge: EdgeRight, At: 480},
	}
	if !reflect.DeepEqual(layout, want) {
		t.Errorf("got %+v, want %+v", layout, want)
	}
}

func TestCalibrateIsIdempotent(t *testing.T) {
	h := unlimintFormat().Header
	first, _, err := Calibrate(unlimintHeader(), 0, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shifted := unlimintHeader()
	for i := range shifted {
		shifted[i].Left += 2
		shifted[i].Right += 2
	}
	second, _, err := Calibrate(shifted, 0, h, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recalibration changed the layout: %+v != %+v", second, first)
	}
}

func TestCalibrateErrors(t *testing.T) {
	tests := []struct {
		name   string
		tokens func() []models.Token
		prior  ColumnLayout
	}{
		{
			name: "label out of order",
			tokens: func() []models.Token {
				ts := unlimintHeader()
				ts[1], ts[3] = ts[3], ts[1]
				return ts
			},
		},
		{
			name: "missing label",
			tokens: func() []models.Token {
				return unlimintHeader()[:2]
			},
		},
		{
			name: "adjacent label not adjacent",
			tokens: func() []models.Token {
				ts := unlimintHeader()
				ts[4].Text = "Total"
				return ts
			},
		},
		{
			name:   "column moved since the first header",
			tokens: unlimintHeader,
			prior:  ColumnLayout{ColDate: {Edge: EdgeLeft, At: 60}},
		},
	}

	h := unlimintFormat().Header
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Calibrate(tt.tokens(), 0, h, tt.prior)
			if !errors.Is(err, ErrFormatMismatch) {
				t.Fatalf("got %v, want format mismatch", err)
			}
		})
	}
}

func TestCalibrateOptionalLabel(t *testing.T) {
	h := hellenicActivityFormat().Header
	tokens := []models.Token{
		tok("DATE", 30, 55, 80),
		tok("DESCRIPTION", 88, 150, 80),
		tok("DEBIT", 300, 328, 80),
		tok("CREDIT", 370, 401, 80),
		tok("VALUE DATE", 420, 480, 80),
		tok("BALANCE", 490, 520, 80),
	}

	withBalance, next, err := Calibrate(tokens, 0, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 6 {
		t.Errorf("got next %d, want 6", next)
	}
	if c := withBalance[ColBalance]; c.At != 520 || c.Edge != EdgeRight {
		t.Errorf("got balance column %+v", c)
	}

	without, next, err := Calibrate(tokens[:5], 0, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 5 {
		t.Errorf("got next %d, want 5", next)
	}
	if _, ok := without[ColBalance]; ok {
		t.Error("balance column recorded without a BALANCE label")
	}
}

func TestAnchorMatches(t *testing.T) {
	layout := ColumnLayout{ColDate: {Edge: EdgeLeft, At: 40}}
	tests := []struct {
		name   string
		anchor Anchor
		token  models.Token
		want   bool
	}{
		{"exact", Anchor{Text: "Balance"}, tok("Balance", 10, 50, 0), true},
		{"exact rejects prefix", Anchor{Text: "Balance"}, tok("Balance B/F", 10, 50, 0), false},
		{"prefix", Anchor{Text: "Period", Match: MatchPrefix}, tok("Period 01.01.2024", 10, 50, 0), true},
		{"contains", Anchor{Text: "UAB", Match: MatchContains}, tok("Revolut Payments UAB, Vilnius", 10, 50, 0), true},
		{"left edge within tolerance", Anchor{Text: "Account", Edge: EdgeLeft, At: 65}, tok("Account", 69.9, 100, 0), true},
		{"left edge outside tolerance", Anchor{Text: "Account", Edge: EdgeLeft, At: 65}, tok("Account", 70, 100, 0), false},
		{"right edge", Anchor{Text: "Total", Edge: EdgeRight, At: 100}, tok("Total", 60, 98, 0), true},
		{"center", Anchor{Text: "x", Edge: EdgeCenter, At: 85}, tok("x", 70, 100, 0), true},
		{"calibrated column", Anchor{Text: "Created", Match: MatchPrefix, Column: ColDate}, tok("Created today", 41, 100, 0), true},
		{"missing column", Anchor{Text: "Created", Match: MatchPrefix, Column: ColDebit}, tok("Created today", 41, 100, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.anchor.Matches(tt.token, layout); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
