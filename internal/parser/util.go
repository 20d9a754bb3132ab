package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount patterns shared by several formats.
var (
	// 1,234.56
	amountCommaDot = regexp.MustCompile(`^(?P<amount>-?\d{1,3}(,\d{3})*\.\d{2})$`)
	// 1.234,56
	amountDotComma = regexp.MustCompile(`^(?P<amount>-?\d{1,3}(\.\d{3})*,\d{2})$`)
	// €1,234.56, EUR1 234.56
	amountCurrency = regexp.MustCompile(`^[$€₺£]?[A-Z]{0,3}(?P<amount>-?\d{1,3}([, ]\d{3})*\.\d{2})$`)
	// 01/02/2006 - 28/02/2006
	periodSlash = regexp.MustCompile(`(?P<from>\d{2}/\d{2}/\d{4}) - (?P<to>\d{2}/\d{2}/\d{4})`)
)

// Account number patterns.
var (
	digitsAccount = regexp.MustCompile(`^\d{10,}$`)
	// CY17002001280000001200527600
	ibanAccount = regexp.MustCompile(`^\w{2}\d{10,}$`)
	// LT12 1000 0111 0100 1000, as printed in groups of four
	spacedIBAN = regexp.MustCompile(`^[A-Z]{2}\d{2}( [A-Z0-9]{1,4})+$`)
	// 123-45-678901-01
	dashedAccount = regexp.MustCompile(`^\d+-\d+-\d+-\d+$`)
)

// NumberFormat is a per-format amount convention.
type NumberFormat struct {
	// Pattern must match the whole token; a named "amount" group narrows
	// the number when the token carries a currency prefix.
	Pattern *regexp.Regexp
	// Group lists the thousands separators stripped before parsing.
	Group string
	// Decimal is the decimal separator, "." when empty.
	Decimal string
}

var (
	commaDot = NumberFormat{Pattern: amountCommaDot, Group: ","}
	dotComma = NumberFormat{Pattern: amountDotComma, Group: ".", Decimal: ","}
)

// Parse converts text to a decimal, reporting false when it does not match
// the format.
func (n NumberFormat) Parse(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if n.Pattern != nil {
		m := n.Pattern.FindStringSubmatch(text)
		if m == nil {
			return decimal.Zero, false
		}
		if i := n.Pattern.SubexpIndex("amount"); i > 0 {
			text = m[i]
		}
	}
	for _, g := range n.Group {
		text = strings.ReplaceAll(text, string(g), "")
	}
	if n.Decimal != "" && n.Decimal != "." {
		text = strings.ReplaceAll(text, n.Decimal, ".")
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseDate(layout, text string) (time.Time, bool) {
	t, err := time.Parse(layout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
