package parser

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

type state int

const (
	stateAccount state = iota
	statePeriod
	statePeriodTo
	stateOpening
	stateHeader
	stateTransactions
	stateRow
	stateClosing
	stateDone
)

func (s state) String() string {
	switch s {
	case stateAccount:
		return "SearchAccountNumber"
	case statePeriod:
		return "SearchStatementPeriod"
	case statePeriodTo:
		return "SearchStatementPeriodTo"
	case stateOpening:
		return "SearchBalanceForward"
	case stateHeader:
		return "ScrollToTableHeader"
	case stateTransactions:
		return "SearchTransaction"
	case stateRow:
		return "Row"
	case stateClosing:
		return "SearchClosingBalance"
	default:
		return "Done"
	}
}

// Machine is the extraction context of one document. It is created per run
// and must not be reused.
type Machine struct {
	format *Format
	trace  zerolog.Logger

	state  state
	field  int
	layout ColumnLayout
	asm    *assembler
	rec    Reconciler
	rows   RowTracker
	// opened is set once the balance brought forward of the current
	// statement has been read.
	opened bool
}

// NewMachine prepares an extraction run of f over the document at source.
func NewMachine(f *Format, source string, trace zerolog.Logger) *Machine {
	m := &Machine{
		format: f,
		trace:  trace,
		asm:    newAssembler(f.Bank, source),
	}
	m.resetStatement()
	return m
}

func (m *Machine) resetStatement() {
	m.state = stateAccount
	m.field = 0
	m.layout = m.format.Columns.clone()
	m.rec = Reconciler{Mode: m.format.Reconcile}
	m.opened = false
	if m.format.Rows != nil {
		m.rows = m.format.Rows()
	}
}

func (m *Machine) stateName() string {
	if m.state == stateRow && m.field < len(m.format.Row) {
		return m.format.Row[m.field].String()
	}
	return m.state.String()
}

func (m *Machine) to(s state) {
	if s != m.state {
		m.trace.Trace().Str("from", m.stateName()).Str("to", s.String()).Msg("state")
	}
	m.state = s
}

type cursor struct {
	tokens []models.Token
	i      int
	page   int
}

func (c cursor) tok() models.Token { return c.tokens[c.i] }

func (c cursor) peek(n int) (models.Token, bool) {
	if c.i+n >= len(c.tokens) {
		return models.Token{}, false
	}
	return c.tokens[c.i+n], true
}

func (c cursor) next() *models.Token {
	if c.i+1 >= len(c.tokens) {
		return nil
	}
	return &c.tokens[c.i+1]
}

// Run walks every token of doc and returns the statements found in it.
func (m *Machine) Run(doc *models.Document) ([]models.Statement, error) {
	for pi, page := range doc.Pages {
		if err := m.startPage(pi, page.Tokens); err != nil {
			return nil, err
		}
		for i := 0; i < len(page.Tokens); i++ {
			c := cursor{tokens: page.Tokens, i: i, page: pi}
			m.trace.Trace().
				Int("page", pi).
				Float64("top", c.tok().Top).
				Float64("left", c.tok().Left).
				Float64("right", c.tok().Right).
				Str("state", m.stateName()).
				Msg(c.tok().Text)
			skip, nextPage, err := m.step(c)
			if err != nil {
				return nil, err
			}
			if nextPage {
				break
			}
			i += skip
		}
	}
	if m.format.columnar() && m.asm.open != nil {
		if err := m.commitColumns(cursor{page: len(doc.Pages) - 1}); err != nil {
			return nil, err
		}
	}
	if m.state == stateOpening {
		return nil, &FormatMismatchError{State: m.stateName(), Expected: m.format.Opening.Label.Text}
	}
	return m.asm.finish(m.stateName(), m.format)
}

func (m *Machine) startPage(pi int, tokens []models.Token) error {
	f := m.format
	if len(tokens) > 0 {
		for _, pm := range f.PageMarkers {
			if strings.TrimSpace(tokens[0].Text) != pm.Text {
				continue
			}
			if err := m.commit(cursor{tokens: tokens, page: pi}); err != nil {
				return err
			}
			m.rec.Reset()
			if pm.NewStatement {
				m.asm.finalize()
				m.resetStatement()
			}
			m.trace.Debug().Int("page", pi).Str("marker", pm.Text).Bool("new_statement", pm.NewStatement).Msg("page marker")
		}
	}
	if pi > 0 && f.HeaderEveryPage && f.Header != nil && (m.state == stateTransactions || m.state == stateRow) {
		m.to(stateHeader)
	}
	return nil
}

func (m *Machine) step(c cursor) (int, bool, error) {
	switch m.state {
	case stateAccount:
		return 0, false, m.searchAccount(c)
	case statePeriod:
		return m.searchPeriod(c)
	case statePeriodTo:
		return m.searchPeriodTo(c)
	case stateOpening:
		return m.searchOpening(c)
	case stateHeader:
		return m.scrollToHeader(c)
	case stateTransactions:
		if m.format.columnar() {
			return m.scanColumns(c)
		}
		return m.scanRows(c)
	case stateRow:
		return 0, false, m.rowField(c)
	case stateClosing:
		return m.searchClosing(c)
	}
	return 0, false, nil
}

func (m *Machine) afterPeriod() state {
	f := m.format
	switch {
	case f.Opening != nil && !f.Opening.AfterHeader && !m.opened:
		return stateOpening
	case f.Header != nil:
		return stateHeader
	default:
		return stateTransactions
	}
}

func (m *Machine) afterOpening() state {
	if !m.format.Opening.AfterHeader && m.format.Header != nil {
		return stateHeader
	}
	return stateTransactions
}

func (m *Machine) afterHeader() state {
	if o := m.format.Opening; o != nil && o.AfterHeader && !m.opened {
		return stateOpening
	}
	return stateTransactions
}

func (m *Machine) searchAccount(c cursor) error {
	f := m.format
	t := c.tok()
	if !f.Account.Matches(t, m.layout) {
		return nil
	}
	v, ok := c.peek(1)
	if !ok {
		return m.missing(c, "account number", t)
	}
	number := strings.TrimSpace(v.Text)
	if f.AccountPattern != nil && !f.AccountPattern.MatchString(number) {
		return m.malformed(c, "account number", v)
	}
	if m.asm.account(number) {
		m.layout = f.Columns.clone()
		m.rec.Reset()
		m.opened = false
	}
	m.trace.Debug().Str("account", number).Msg("account")
	m.to(statePeriod)
	return nil
}

func (m *Machine) searchPeriod(c cursor) (int, bool, error) {
	p := m.format.Period
	t := c.tok()
	if !p.Label.Matches(t, m.layout) {
		return 0, false, nil
	}
	text := t.Text
	if p.Span > 0 {
		parts := make([]string, 0, p.Span)
		for n := 1; n <= p.Span; n++ {
			v, ok := c.peek(n)
			if !ok {
				return 0, false, m.missing(c, "statement period", t)
			}
			parts = append(parts, strings.TrimSpace(v.Text))
		}
		text = strings.Join(parts, " ")
	}
	value := models.Token{Text: text, Left: t.Left, Right: t.Right, PageIndex: t.PageIndex}

	if p.To != nil {
		from, ok := parseDate(m.format.DateLayout, text)
		if !ok {
			return 0, false, m.malformed(c, "statement start date", value)
		}
		m.asm.periodFrom(from)
		m.to(statePeriodTo)
		return p.Span, false, nil
	}

	g := p.Pattern.FindStringSubmatch(text)
	if g == nil {
		return 0, false, m.malformed(c, "statement period", value)
	}
	from, okFrom := parseDate(m.format.DateLayout, g[p.Pattern.SubexpIndex("from")])
	to, okTo := parseDate(m.format.DateLayout, g[p.Pattern.SubexpIndex("to")])
	if !okFrom || !okTo {
		return 0, false, m.malformed(c, "statement period", value)
	}
	m.asm.period(from, to)
	m.trace.Debug().Time("from", from).Time("to", to).Msg("period")
	m.to(m.afterPeriod())
	return p.Span, false, nil
}

func (m *Machine) searchPeriodTo(c cursor) (int, bool, error) {
	t := c.tok()
	if !m.format.Period.To.Matches(t, m.layout) {
		return 0, false, nil
	}
	v, ok := c.peek(1)
	if !ok {
		return 0, false, m.missing(c, "statement end date", t)
	}
	to, ok := parseDate(m.format.DateLayout, v.Text)
	if !ok {
		return 0, false, m.malformed(c, "statement end date", v)
	}
	m.asm.periodTo(to)
	m.to(m.afterPeriod())
	return 1, false, nil
}

func (m *Machine) searchOpening(c cursor) (int, bool, error) {
	o := m.format.Opening
	if !o.Label.Matches(c.tok(), m.layout) {
		return 0, false, nil
	}
	v, n, err := m.balanceValue(c, o)
	if err != nil {
		return 0, false, err
	}
	m.rec.Seed(v)
	m.opened = true
	m.trace.Debug().Str("balance", v.String()).Msg("balance brought forward")
	m.to(m.afterOpening())
	return n, false, nil
}

func (m *Machine) searchClosing(c cursor) (int, bool, error) {
	o := m.format.Closing
	if !o.Label.Matches(c.tok(), m.layout) {
		return 0, false, nil
	}
	v, n, err := m.balanceValue(c, o)
	if err != nil {
		return 0, false, err
	}
	if err := m.rec.Close(v); err != nil {
		return 0, false, m.balanceError(c, err)
	}
	m.to(stateDone)
	return n, false, nil
}

// balanceValue reads the figures following a balance label and returns the
// balance and the number of tokens consumed.
func (m *Machine) balanceValue(c cursor, o *BalanceAnchor) (decimal.Decimal, int, error) {
	n := o.Values
	if n < 1 {
		n = 1
	}
	values := make([]decimal.Decimal, n)
	for k := 1; k <= n; k++ {
		v, ok := c.peek(k)
		if !ok {
			return decimal.Zero, 0, m.missing(c, "balance", c.tok())
		}
		d, ok := m.format.Numbers.Parse(v.Text)
		if !ok {
			return decimal.Zero, 0, m.malformed(c, "balance", v)
		}
		values[k-1] = d
	}
	if n == 2 {
		return values[1].Sub(values[0]), n, nil
	}
	return values[0], n, nil
}

func (m *Machine) scrollToHeader(c cursor) (int, bool, error) {
	h := m.format.Header
	if !h.starts(c.tok(), m.layout) {
		return 0, false, nil
	}
	layout, next, err := Calibrate(c.tokens, c.i, h, m.layout)
	if err != nil {
		var fm *FormatMismatchError
		if errors.As(err, &fm) {
			fm.Page = c.page
		}
		return 0, false, err
	}
	m.layout = layout
	m.to(m.afterHeader())
	return next - c.i - 1, false, nil
}

func (m *Machine) rowStarts(c cursor) bool {
	f := m.format
	t := c.tok()
	if !m.layout.Aligned(f.RowStart.Column, t) {
		return false
	}
	if _, ok := parseDate(f.DateLayout, t.Text); !ok {
		return false
	}
	if f.RowStart.RequireNextDate {
		v, ok := c.peek(1)
		if !ok {
			return false
		}
		_, ok = parseDate(f.DateLayout, v.Text)
		return ok
	}
	return true
}

func (m *Machine) marker(t models.Token) (Marker, bool) {
	for _, mk := range m.format.Markers {
		if mk.Matches(t, m.layout) {
			return mk, true
		}
	}
	return Marker{}, false
}

func (m *Machine) applyMarker(c cursor, mk Marker) (int, bool, error) {
	m.trace.Debug().Int("page", c.page).Str("marker", mk.Text).Msg("table marker")
	switch mk.Action {
	case NextPageHeader:
		m.to(stateHeader)
		return 0, true, nil
	case NewSection:
		if err := m.commit(c); err != nil {
			return 0, false, err
		}
		m.rec.Reset()
		m.to(stateAccount)
		return 0, false, nil
	default:
		return 0, true, nil
	}
}

func (m *Machine) scanRows(c cursor) (int, bool, error) {
	f := m.format
	t := c.tok()
	if m.rowStarts(c) {
		if err := m.commit(c); err != nil {
			return 0, false, err
		}
		date, _ := parseDate(f.DateLayout, t.Text)
		m.asm.begin(date)
		m.field = 0
		if len(f.Row) > 0 {
			m.to(stateRow)
		}
		return 0, false, nil
	}
	if mk, ok := m.marker(t); ok {
		return m.applyMarker(c, mk)
	}
	if m.asm.open != nil && m.layout.Aligned(ColDescription, t) {
		m.asm.appendDescription(strings.TrimSpace(t.Text))
	}
	return 0, false, nil
}

func (m *Machine) rowField(c cursor) error {
	f := m.format
	t := c.tok()
	switch f.Row[m.field] {
	case FieldValueDate:
		if _, ok := parseDate(f.DateLayout, t.Text); !ok {
			return m.malformed(c, "value date", t)
		}
	case FieldCode:
		if f.CodePattern != nil && !f.CodePattern.MatchString(strings.TrimSpace(t.Text)) {
			return m.malformed(c, "transaction type", t)
		}
	case FieldDescription:
		if m.asm.open == nil {
			return m.violation("no open transaction for description")
		}
		if m.asm.open.Description != "" {
			return m.violation("description set twice")
		}
		m.asm.open.Description = strings.TrimSpace(t.Text)
	case FieldAmount:
		if isBlank(t.Text) {
			return nil
		}
		amount, err := m.amount(c, t)
		if err != nil {
			return err
		}
		if err := m.asm.setAmount(m.stateName(), amount); err != nil {
			return err
		}
		m.rec.Add(amount)
	case FieldBalance:
		if isBlank(t.Text) {
			return nil
		}
		if err := m.balance(c, t); err != nil {
			return err
		}
	}
	m.field++
	if m.field >= len(f.Row) {
		m.to(stateTransactions)
	}
	return nil
}

// amount returns the signed amount of t, taking the sign from the column
// the token is aligned to unless the format prints signed amounts.
func (m *Machine) amount(c cursor, t models.Token) (decimal.Decimal, error) {
	v, ok := m.format.Numbers.Parse(t.Text)
	if !ok {
		return decimal.Zero, m.malformed(c, "amount", t)
	}
	if m.format.SignedAmounts {
		return v, nil
	}
	switch {
	case m.layout.Aligned(ColDebit, t):
		return v.Abs().Neg(), nil
	case m.layout.Aligned(ColCredit, t):
		return v.Abs(), nil
	}
	return decimal.Zero, &UnexpectedAmountPositionError{
		State: m.stateName(),
		Text:  t.Text,
		Page:  c.page,
		Left:  t.Left,
		Right: t.Right,
	}
}

func (m *Machine) balance(c cursor, t models.Token) error {
	stated, ok := m.format.Numbers.Parse(t.Text)
	if !ok {
		return m.malformed(c, "balance", t)
	}
	if m.asm.open == nil || !m.asm.open.Amount.Valid {
		return m.violation("balance without a transaction amount")
	}
	if err := m.rec.Check(m.asm.open.Amount.Decimal, stated); err != nil {
		return m.balanceError(c, err)
	}
	return nil
}

func (m *Machine) scanColumns(c cursor) (int, bool, error) {
	f := m.format
	t := c.tok()
	if f.TableEnd != nil && f.TableEnd.Matches(t, m.layout) {
		if err := m.commitColumns(c); err != nil {
			return 0, false, err
		}
		if f.Closing != nil {
			m.to(stateClosing)
		} else {
			m.to(stateDone)
		}
		return 0, false, nil
	}
	if mk, ok := m.marker(t); ok {
		return m.applyMarker(c, mk)
	}

	rc := RowContext{
		Token:       t,
		Next:        c.next(),
		Cell:        f.classify(t, m.layout),
		Layout:      m.layout,
		Open:        m.asm.open,
		Page:        c.page,
		FirstOnPage: c.i == 0,
	}
	if m.rows.Observe(rc) {
		if err := m.commitColumns(c); err != nil {
			return 0, false, err
		}
	}
	if err := m.applyCell(c, rc.Cell); err != nil {
		return 0, false, err
	}
	rc.Open = m.asm.open
	if rc.Open != nil && m.rows.Complete(rc) {
		if err := m.commitColumns(c); err != nil {
			return 0, false, err
		}
	}
	return 0, false, nil
}

func (m *Machine) applyCell(c cursor, cell Cell) error {
	f := m.format
	t := c.tok()
	text := strings.TrimSpace(t.Text)
	switch cell {
	case CellDate:
		if m.asm.open == nil {
			m.asm.begin(time.Time{})
		}
		if f.DateFragments {
			m.asm.dateText += text
		} else {
			m.asm.dateText = text
		}
	case CellDescription:
		if m.asm.open == nil {
			m.asm.begin(time.Time{})
		}
		m.asm.appendDescription(text)
	case CellDebit, CellCredit:
		if text == "" {
			return nil
		}
		v, ok := f.Numbers.Parse(text)
		if !ok {
			return m.malformed(c, "amount", t)
		}
		if f.SkipZeroAmounts && v.IsZero() {
			return nil
		}
		if !f.SignedAmounts {
			if cell == CellDebit {
				v = v.Abs().Neg()
			} else {
				v = v.Abs()
			}
		}
		if err := m.asm.setAmount(m.stateName(), v); err != nil {
			return err
		}
		m.rec.Add(v)
	case CellBalance:
		if text == "" {
			return nil
		}
		return m.balance(c, t)
	}
	return nil
}

func (m *Machine) commitColumns(c cursor) error {
	if m.asm.open != nil && m.asm.dateText != "" {
		d, ok := parseDate(m.format.DateLayout, m.asm.dateText)
		if !ok {
			return &MalformedValueError{State: m.stateName(), Kind: "date", Text: m.asm.dateText, Page: c.page}
		}
		m.asm.open.Date = d
	}
	return m.commit(c)
}

func (m *Machine) commit(c cursor) error {
	if m.asm.open == nil {
		return nil
	}
	tx := *m.asm.open
	if err := m.asm.commit(m.stateName()); err != nil {
		return err
	}
	m.trace.Debug().
		Int("page", c.page).
		Time("date", tx.Date).
		Str("description", tx.Description).
		Str("amount", tx.Amount.Decimal.String()).
		Msg("transaction")
	return nil
}

func (m *Machine) malformed(c cursor, kind string, t models.Token) error {
	return &MalformedValueError{
		State: m.stateName(),
		Kind:  kind,
		Text:  t.Text,
		Page:  c.page,
		Left:  t.Left,
		Right: t.Right,
	}
}

func (m *Machine) missing(c cursor, kind string, label models.Token) error {
	return &MalformedValueError{
		State: m.stateName(),
		Kind:  kind,
		Page:  c.page,
		Left:  label.Left,
		Right: label.Right,
	}
}

func (m *Machine) violation(reason string) error {
	return &InvariantViolationError{State: m.stateName(), Reason: reason}
}

func (m *Machine) balanceError(c cursor, err error) error {
	var bm *BalanceMismatchError
	if errors.As(err, &bm) {
		bm.State = m.stateName()
		bm.Page = c.page
	}
	return err
}
