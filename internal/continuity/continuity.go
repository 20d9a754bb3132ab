// Package continuity checks that consecutive statements of one account cover
// adjacent periods.
package continuity

import (
	"fmt"
	"sort"
	"time"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// Kind classifies the relation between two consecutive statement periods.
type Kind int

const (
	OK Kind = iota
	Duplicate
	Gap
	Overlap
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case Duplicate:
		return "duplicate"
	case Gap:
		return "gap"
	case Overlap:
		return "overlap"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const dateLayout = "02/01/2006"

// Warning is an advisory finding for one pair of statements.
type Warning struct {
	Account string
	Kind    Kind
	First   models.Statement
	Second  models.Statement
}

func (w Warning) String() string {
	s1, s2 := w.First, w.Second
	switch w.Kind {
	case Duplicate:
		return fmt.Sprintf("Account %s: duplicating statements: [%s - %s]",
			w.Account, s1.FromDate.Format(dateLayout), s1.ToDate.Format(dateLayout))
	case Gap:
		return fmt.Sprintf("Account %s: gap between statements: [%s - %s]",
			w.Account, s1.ToDate.Format(dateLayout), s2.FromDate.Format(dateLayout))
	case Overlap:
		return fmt.Sprintf("Account %s: overlapping statements: [%s - %s] and [%s - %s]",
			w.Account,
			s1.FromDate.Format(dateLayout), s1.ToDate.Format(dateLayout),
			s2.FromDate.Format(dateLayout), s2.ToDate.Format(dateLayout))
	}
	return fmt.Sprintf("Account %s: statements are continuous", w.Account)
}

// Classify compares s1 with the statement s2 that follows it. Periods are
// whole days; time of day is ignored.
func Classify(s1, s2 models.Statement) Kind {
	from1, to1 := day(s1.FromDate), day(s1.ToDate)
	from2, to2 := day(s2.FromDate), day(s2.ToDate)
	next := to1.AddDate(0, 0, 1)
	switch {
	case from1.Equal(from2) && to1.Equal(to2):
		return Duplicate
	case next.Before(from2):
		return Gap
	case !to1.Before(from2):
		return Overlap
	}
	return OK
}

// Group splits statements by account, keeping accounts in first-seen order
// and sorting each account's statements by period start.
func Group(statements []models.Statement) (accounts []string, byAccount map[string][]models.Statement) {
	byAccount = make(map[string][]models.Statement)
	for _, s := range statements {
		if _, seen := byAccount[s.AccountNumber]; !seen {
			accounts = append(accounts, s.AccountNumber)
		}
		byAccount[s.AccountNumber] = append(byAccount[s.AccountNumber], s)
	}
	for _, acc := range accounts {
		group := byAccount[acc]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].FromDate.Before(group[j].FromDate)
		})
	}
	return accounts, byAccount
}

// Validate groups statements by account and reports every adjacent pair that
// is not exactly continuous. It never fails.
func Validate(statements []models.Statement) []Warning {
	accounts, byAccount := Group(statements)
	var warnings []Warning
	for _, acc := range accounts {
		group := byAccount[acc]
		for i := 1; i < len(group); i++ {
			if k := Classify(group[i-1], group[i]); k != OK {
				warnings = append(warnings, Warning{Account: acc, Kind: k, First: group[i-1], Second: group[i]})
			}
		}
	}
	return warnings
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
