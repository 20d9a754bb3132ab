package extractor

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

// glyphs lays out text one character per glyph, each w wide, starting at x.
func glyphs(text string, x, y, w float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range text {
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: 9, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func TestPhrases(t *testing.T) {
	var chars []pdf.Text
	// second line first to check ordering
	chars = append(chars, glyphs("5.00", 390, 680, 5)...)
	chars = append(chars, glyphs("05/01/2024", 42, 680.4, 4)...)
	chars = append(chars, glyphs("Account", 380, 700, 5)...)
	// a narrow gap becomes a space inside the phrase
	chars = append(chars, glyphs("Number", 417, 700, 5)...)

	tokens := Phrases(chars, 800, 2)

	want := []struct {
		text        string
		left, right float64
	}{
		{"Account Number", 380, 447},
		{"05/01/2024", 42, 82},
		{"5.00", 390, 410},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		got := tokens[i]
		if got.Text != w.text {
			t.Errorf("token %d: got %q, want %q", i, got.Text, w.text)
		}
		if got.Left != w.left || got.Right != w.right {
			t.Errorf("token %d: got x %v-%v, want %v-%v", i, got.Left, got.Right, w.left, w.right)
		}
		if got.PageIndex != 2 {
			t.Errorf("token %d: got page %d, want 2", i, got.PageIndex)
		}
	}
	if tokens[0].Top != 91 || tokens[0].Bottom != 100 {
		t.Errorf("got top %v bottom %v, want 91 100", tokens[0].Top, tokens[0].Bottom)
	}
	if tokens[1].Top >= tokens[1].Bottom {
		t.Errorf("top %v not above bottom %v", tokens[1].Top, tokens[1].Bottom)
	}
}

func TestPhrasesSplitsColumns(t *testing.T) {
	chars := append(glyphs("Fee", 100, 500, 5), glyphs("12.50", 300, 500, 5)...)
	tokens := Phrases(chars, 800, 0)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "Fee" || tokens[1].Text != "12.50" {
		t.Errorf("got %q and %q", tokens[0].Text, tokens[1].Text)
	}
}

func TestPhrasesSplitsFonts(t *testing.T) {
	chars := glyphs("Total", 100, 500, 5)
	bold := glyphs("12", 125, 500, 5)
	for i := range bold {
		bold[i].Font = "Helvetica-Bold"
	}
	tokens := Phrases(append(chars, bold...), 800, 0)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
}

func TestPhrasesSkipsBlankGlyphs(t *testing.T) {
	chars := []pdf.Text{
		{Font: "Helvetica", FontSize: 9, X: 10, Y: 500, W: 5, S: " "},
		{Font: "Helvetica", FontSize: 9, X: 10, Y: 480, W: 5, S: ""},
	}
	if tokens := Phrases(chars, 800, 0); len(tokens) != 0 {
		t.Errorf("got %+v, want no tokens", tokens)
	}
}

func TestExtractDocumentMissingFile(t *testing.T) {
	_, err := ExtractDocument("/tmp/nonexistent-file-12345.pdf")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "nonexistent-file-12345.pdf") {
		t.Errorf("error %q does not name the file", err)
	}
}
