package models

// Token is a text fragment with its bounding box, as emitted by the PDF
// extractor. Coordinates are top-down from the top-left corner of the page.
type Token struct {
	Text      string  `json:"text"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	PageIndex int     `json:"page"`
}

func (t Token) Width() float64 { return t.Right - t.Left }

func (t Token) HorizontalCenter() float64 { return t.Left + t.Width()/2 }

// Page holds the tokens of one page in reading order.
type Page struct {
	Number int     `json:"number"`
	Tokens []Token `json:"tokens"`
}

// Document is the extractor output for one file.
type Document struct {
	Path  string `json:"path"`
	Pages []Page `json:"pages"`
}

// FirstToken returns the first token of the document, skipping empty pages.
func (d *Document) FirstToken() (Token, bool) {
	for _, p := range d.Pages {
		if len(p.Tokens) > 0 {
			return p.Tokens[0], true
		}
	}
	return Token{}, false
}
