package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/cantus/internal/shared"
	"github.com/go-pdf/fpdf"
)

// A4 geometry in millimetres.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 20.0
)

// Unit heights and indents of the fixed-page layout, in millimetres.
const (
	titleHeight   = 10.0
	dateHeight    = 15.0
	ruleHeight    = 10.0
	headingHeight = 7.0
	metaHeight    = 7.0
	labelHeight   = 5.0
	lineHeight    = 5.0
	partGap       = 3.0
	entryGap      = 5.0

	labelIndent = 5.0
	lineIndent  = 10.0
	ruleWidth   = 0.5
)

const fontFamily = "Helvetica"

// Font selects a core font face. Style combines "B", "I" and "U".
type Font struct {
	Family string
	Style  string
	Size   float64
}

var (
	titleFont   = Font{fontFamily, "B", 20}
	dateFont    = Font{fontFamily, "", 12}
	headingFont = Font{fontFamily, "B", 14}
	metaFont    = Font{fontFamily, "I", 10}
	labelFont   = Font{fontFamily, "BU", 10}
	lineFont    = Font{fontFamily, "", 10}
)

// ItemKind distinguishes drawn text from rules.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemRule
)

// Item is a positioned drawing instruction. Y is the text baseline. Rules run from X to X2.
type Item struct {
	Kind ItemKind
	Text string
	X    float64
	X2   float64
	Y    float64
	Font Font
}

// Page holds the items drawn on one page.
type Page struct {
	Number int
	Items  []Item
}

// Layout is the fixed-page placement of an outline.
type Layout struct {
	Pages []Page
}

// Texts returns the text of every item on every page, in drawing order.
func (l Layout) Texts() []string {
	var out []string
	for _, p := range l.Pages {
		for _, it := range p.Items {
			if it.Kind == ItemText {
				out = append(out, it.Text)
			}
		}
	}
	return out
}

// Measurer reports the rendered width of text in a font, in millimetres.
type Measurer interface {
	Width(text string, f Font) float64
}

// LayoutPDF places every unit of the outline through a [Paginator] on A4 pages.
//
// Title, date and lyric lines wider than the text column are word-wrapped and each wrapped
// line is its own unit.
func LayoutPDF(o Outline, m Measurer) (Layout, error) {
	pg, err := NewPaginator(PageHeight, Margin, Margin)
	if err != nil {
		return Layout{}, err
	}

	var layout Layout
	add := func(page int, it Item) {
		for len(layout.Pages) < page {
			layout.Pages = append(layout.Pages, Page{Number: len(layout.Pages) + 1})
		}
		layout.Pages[page-1].Items = append(layout.Pages[page-1].Items, it)
	}

	place := func(height float64, it Item) error {
		page, y, err := pg.Place(height)
		if err != nil {
			return err
		}
		it.Y = y
		if it.Kind == ItemRule || it.Text != "" {
			add(page, it)
		}
		return nil
	}

	centered := func(text string, f Font, height float64) error {
		for _, line := range wrap(text, f, PageWidth-2*Margin, m) {
			it := Item{Kind: ItemText, Text: line, X: (PageWidth - m.Width(line, f)) / 2, Font: f}
			if err := place(height, it); err != nil {
				return err
			}
		}
		return nil
	}

	for _, b := range o.Blocks {
		var err error
		switch b.Kind {
		case BlockTitle:
			err = centered(b.Text, titleFont, titleHeight)
		case BlockDate:
			err = centered(b.Text, dateFont, dateHeight)
		case BlockRule:
			err = place(ruleHeight, Item{Kind: ItemRule, X: Margin, X2: PageWidth - Margin})
		case BlockHeading:
			err = place(headingHeight, Item{Kind: ItemText, Text: b.Text, X: Margin, Font: headingFont})
		case BlockMeta:
			err = place(metaHeight, Item{Kind: ItemText, Text: b.Text, X: Margin, Font: metaFont})
		case BlockPartLabel:
			err = place(labelHeight, Item{Kind: ItemText, Text: b.Text, X: Margin + labelIndent, Font: labelFont})
		case BlockLine:
			width := PageWidth - 2*Margin - lineIndent
			for _, line := range wrap(b.Text, lineFont, width, m) {
				if err = place(lineHeight, Item{Kind: ItemText, Text: line, X: Margin + lineIndent, Font: lineFont}); err != nil {
					break
				}
			}
		case BlockPartEnd:
			pg.Skip(partGap)
		case BlockEntryEnd:
			pg.Skip(entryGap)
		}
		if err != nil {
			return Layout{}, fmt.Errorf("failed to place %s: %w", b.Kind, err)
		}
	}

	return layout, nil
}

// wrap breaks text into lines no wider than width. Words wider than width are split by rune.
func wrap(text string, f Font, width float64, m Measurer) []string {
	if m.Width(text, f) <= width {
		return []string{text}
	}

	var (
		lines   []string
		current string
	)
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.Width(candidate, f) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for m.Width(word, f) > width && utf8.RuneCountInString(word) > 1 {
			cut := fit(word, f, width, m)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// fit returns the byte length of the longest rune prefix of word that fits in width, at least one rune.
func fit(word string, f Font, width float64, m Measurer) int {
	_, first := utf8.DecodeRuneInString(word)
	cut := first
	for i := range word {
		if i == 0 {
			continue
		}
		if m.Width(word[:i], f) > width {
			break
		}
		cut = i
	}
	return cut
}

// fpdfMeasurer measures with the core font metrics of an [fpdf.Fpdf] after cp1252 translation.
type fpdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (m *fpdfMeasurer) Width(text string, f Font) float64 {
	m.pdf.SetFont(f.Family, f.Style, f.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}

// ExportToPDF renders the program to an A4 PDF.
//
// Document dates are pinned to the mass date so identical programs produce identical bytes.
func ExportToPDF(p Program) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(p.Mass.Date)
	pdf.SetModificationDate(p.Mass.Date)
	pdf.SetTitle(p.Mass.Name, true)
	pdf.SetCreator("cantus", false)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	layout, err := LayoutPDF(BuildOutline(p), &fpdfMeasurer{pdf: pdf, tr: tr})
	if err != nil {
		return nil, err
	}

	for _, page := range layout.Pages {
		pdf.AddPage()
		for _, it := range page.Items {
			switch it.Kind {
			case ItemRule:
				pdf.SetLineWidth(ruleWidth)
				pdf.Line(it.X, it.Y, it.X2, it.Y)
			case ItemText:
				pdf.SetFont(it.Font.Family, it.Font.Style, it.Font.Size)
				pdf.Text(it.X, it.Y, tr(it.Text))
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: pdf output: %v", shared.ErrExportFailed, err)
	}
	return buf.Bytes(), nil
}
