package extractor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/aukolov/bank-statement-parser/internal/models"
)

// defaultPageHeight is used when a page carries no readable MediaBox (US
// Letter, in points).
const defaultPageHeight = 792.0

// lineNudge merges glyphs whose baselines differ by less than this into one
// line.
const lineNudge = 1.0

// ExtractDocument reads a PDF file and returns the positioned text tokens of
// every page in reading order. Glyphs printed close together on one line are
// merged into phrase tokens. Empty pages are kept.
func ExtractDocument(filePath string) (doc *models.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("PDF library crashed on %q: %v", filePath, r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filePath, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF %q has no pages", filePath)
	}

	doc = &models.Document{Path: filePath}
	total := 0
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		p := models.Page{Number: i}
		if !page.V.IsNull() {
			p.Tokens = Phrases(page.Content().Text, pageHeight(page), i-1)
		}
		total += len(p.Tokens)
		doc.Pages = append(doc.Pages, p)
	}
	if total == 0 {
		return nil, fmt.Errorf("no readable text could be extracted from %q; the file may be image-based or scanned", filePath)
	}
	return doc, nil
}

func pageHeight(page pdf.Page) float64 {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

// Phrases groups the glyphs of one page into tokens. Glyphs are ordered top
// to bottom, then left to right; consecutive glyphs of the same font on one
// line are joined while the gap to the previous glyph stays under a word
// space (two thirds of the font size), with a space inserted for gaps wider
// than a character space (a sixth of the font size). The Y axis is flipped
// so that Top < Bottom.
func Phrases(glyphs []pdf.Text, height float64, pageIndex int) []models.Token {
	chars := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			chars = append(chars, g)
		}
	}
	byLine(chars)
	old := math.Inf(-1)
	for i := range chars {
		if chars[i].Y != old && math.Abs(old-chars[i].Y) < lineNudge {
			chars[i].Y = old
		} else {
			old = chars[i].Y
		}
	}
	byLine(chars)

	var tokens []models.Token
	for i := 0; i < len(chars); {
		j := i + 1
		for j < len(chars) && chars[j].Y == chars[i].Y {
			j++
		}
		for k := i; k < j; {
			ck := chars[k]
			var sb strings.Builder
			sb.WriteString(ck.S)
			end := ck.X + ck.W
			charSpace := ck.FontSize / 6
			wordSpace := ck.FontSize * 2 / 3
			l := k + 1
			for ; l < j; l++ {
				cl := chars[l]
				if !sameFont(ck, cl) || cl.X > end+wordSpace {
					break
				}
				if cl.X > end+charSpace && !strings.HasSuffix(sb.String(), " ") {
					sb.WriteByte(' ')
				}
				sb.WriteString(cl.S)
				end = cl.X + cl.W
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				tokens = append(tokens, models.Token{
					Text:      text,
					Left:      ck.X,
					Right:     end,
					Top:       height - ck.Y - ck.FontSize,
					Bottom:    height - ck.Y,
					PageIndex: pageIndex,
				})
			}
			k = l
		}
		i = j
	}
	return tokens
}

// byLine sorts glyphs by descending baseline, breaking ties with X.
func byLine(chars []pdf.Text) {
	sort.SliceStable(chars, func(a, b int) bool {
		if chars[a].Y != chars[b].Y {
			return chars[a].Y > chars[b].Y
		}
		return chars[a].X < chars[b].X
	})
}

func sameFont(a, b pdf.Text) bool {
	return baseFont(a.Font) == baseFont(b.Font) && math.Abs(a.FontSize-b.FontSize) < 0.1
}

func baseFont(f string) string {
	f = strings.TrimSuffix(f, ",Italic")
	return strings.TrimSuffix(f, "-Italic")
}
