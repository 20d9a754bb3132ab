package parser

import (
	"fmt"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// Logical column names.
const (
	ColDate        = "date"
	ColDescription = "description"
	ColDebit       = "debit"
	ColCredit      = "credit"
	ColBalance     = "balance"
	ColValueDate   = "value date"
	ColCounterpart = "counterpart"
)

// Column is a calibrated column boundary.
type Column struct {
	Edge      Edge
	At        float64
	Tolerance float64
}

// ColumnLayout maps logical column names to their boundaries.
type ColumnLayout map[string]Column

// Aligned reports whether t sits on the named column. Unknown columns never
// align.
func (l ColumnLayout) Aligned(name string, t models.Token) bool {
	c, ok := l[name]
	if !ok {
		return false
	}
	return IsApproximately(c.Edge.of(t), c.At, tolerance(c.Tolerance))
}

func (l ColumnLayout) clone() ColumnLayout {
	out := make(ColumnLayout, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// starts reports whether t opens the header. Once a header has been
// calibrated, a recalibrating header only starts at the recorded position.
func (h *HeaderSpec) starts(t models.Token, layout ColumnLayout) bool {
	first := h.Anchors[0]
	if !first.Matches(t, layout) {
		return false
	}
	if h.Recalibrate && first.Column != "" {
		if c, ok := layout[first.Column]; ok {
			return IsApproximately(first.Record.of(t), c.At, tolerance(c.Tolerance))
		}
	}
	return true
}

// Calibrate reads the table header whose first label is tokens[start] and
// returns prior extended with the recorded columns, plus the index of the
// first token after the header. A column already present in prior must be
// found at approximately the same position; prior's value is kept.
func Calibrate(tokens []models.Token, start int, h *HeaderSpec, prior ColumnLayout) (ColumnLayout, int, error) {
	layout := prior.clone()
	if len(h.Anchors) == 0 {
		return layout, start, nil
	}
	if start >= len(tokens) || !h.Anchors[0].Matches(tokens[start], prior) {
		return nil, start, headerMismatch(h.Anchors[0], tokens, start)
	}

	i := start
	for k, a := range h.Anchors {
		if k > 0 {
			j, err := locate(tokens, i, h.Anchors, k, prior)
			if err != nil {
				return nil, start, err
			}
			if j < 0 {
				continue
			}
			i = j
		}
		if err := record(layout, prior, a, tokens[i]); err != nil {
			return nil, start, err
		}
		i++
	}
	return layout, i, nil
}

func locate(tokens []models.Token, from int, anchors []HeaderAnchor, k int, gate ColumnLayout) (int, error) {
	a := anchors[k]
	if a.Adjacent || a.Optional {
		if from < len(tokens) && a.Matches(tokens[from], gate) {
			return from, nil
		}
		if a.Optional {
			return -1, nil
		}
		return 0, headerMismatch(a, tokens, from)
	}
	for j := from; j < len(tokens); j++ {
		if a.Matches(tokens[j], gate) {
			return j, nil
		}
		for _, later := range anchors[k+1:] {
			if later.matchText(tokens[j].Text) {
				return 0, headerMismatch(a, tokens, j)
			}
		}
	}
	return 0, headerMismatch(a, tokens, len(tokens))
}

func record(layout, prior ColumnLayout, a HeaderAnchor, t models.Token) error {
	if a.Column == "" {
		return nil
	}
	at := a.Record.of(t)
	if old, ok := prior[a.Column]; ok {
		if !IsApproximately(at, old.At, tolerance(old.Tolerance)) {
			return &FormatMismatchError{
				State:    stateHeader.String(),
				Expected: fmt.Sprintf("%s at %.1f", a.Text, old.At),
				Found:    fmt.Sprintf("%s at %.1f", t.Text, at),
				Page:     t.PageIndex,
			}
		}
		return nil
	}
	layout[a.Column] = Column{Edge: a.Record, At: at, Tolerance: a.Tolerance}
	return nil
}

func headerMismatch(a HeaderAnchor, tokens []models.Token, at int) error {
	err := &FormatMismatchError{State: stateHeader.String(), Expected: a.Text}
	if at < len(tokens) {
		err.Found = tokens[at].Text
		err.Page = tokens[at].PageIndex
	}
	return err
}
