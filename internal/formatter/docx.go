package formatter

import (
	"bytes"
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"

	"github.com/desertthunder/cantus/internal/shared"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// A4 in twentieths of a point, with 2cm margins.
const (
	docxPageWidth  uint64 = 11906
	docxPageHeight uint64 = 16838
	docxPageMargin int    = 1134
)

// docxParagraph describes one paragraph before it is handed to the document builder.
// Spacing and indent are in twips; Size is in points.
type docxParagraph struct {
	Style     string
	Center    bool
	Rule      bool
	Before    uint64
	After     uint64
	Indent    int
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Size      uint64
}

// docxParagraphs maps the outline onto paragraphs. Pagination is left to the viewer.
func docxParagraphs(o Outline) []docxParagraph {
	var out []docxParagraph
	for _, b := range o.Blocks {
		switch b.Kind {
		case BlockTitle:
			out = append(out, docxParagraph{Style: "Title", Center: true, After: 200, Text: b.Text})
		case BlockDate:
			out = append(out, docxParagraph{Center: true, After: 400, Text: b.Text})
		case BlockRule:
			out = append(out, docxParagraph{Rule: true, After: 200})
		case BlockHeading:
			out = append(out, docxParagraph{Before: 300, After: 100, Text: b.Text, Bold: true, Size: 14})
		case BlockMeta:
			out = append(out, docxParagraph{After: 150, Text: b.Text, Italic: true, Size: 10})
		case BlockPartLabel:
			out = append(out, docxParagraph{Before: 150, After: 100, Text: b.Text, Bold: true, Underline: true})
		case BlockLine:
			out = append(out, docxParagraph{After: 100, Indent: 400, Text: b.Text})
		case BlockEntryEnd:
			out = append(out, docxParagraph{After: 200})
		}
	}
	return out
}

func addDocxParagraph(doc *docx.RootDoc, dp docxParagraph) {
	p := doc.AddEmptyParagraph()
	p.Spacing(dp.Before, dp.After)
	if dp.Style != "" {
		p.Style(dp.Style)
	}
	if dp.Center {
		p.Justification(stypes.JustificationCenter)
	}
	if dp.Indent > 0 {
		left := dp.Indent
		p.Indent(&ctypes.Indent{Left: &left})
	}
	if dp.Rule {
		size, space, color := 6, "1", "auto"
		p.GetCT().Property.Border = &ctypes.ParaBorder{
			Bottom: &ctypes.Border{Val: stypes.BorderStyleSingle, Size: &size, Space: &space, Color: &color},
		}
	}
	if dp.Text == "" {
		return
	}

	r := p.AddText(dp.Text)
	if dp.Bold {
		r.Bold(true)
	}
	if dp.Italic {
		r.Italic(true)
	}
	if dp.Underline {
		r.Underline(stypes.UnderlineSingle)
	}
	if dp.Size > 0 {
		r.Size(dp.Size)
	}
}

// ExportToDOCX renders the program to a WordprocessingML package.
func ExportToDOCX(p Program) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("%w: docx template: %v", shared.ErrExportFailed, err)
	}

	for _, dp := range docxParagraphs(BuildOutline(p)) {
		addDocxParagraph(doc, dp)
	}

	width, height, margin := docxPageWidth, docxPageHeight, docxPageMargin
	sect := doc.Document.Body.SectPr
	if sect == nil {
		sect = ctypes.NewSectionProper()
		doc.Document.Body.SectPr = sect
	}
	sect.PageSize = &ctypes.PageSize{Width: &width, Height: &height}
	if sect.PageMargin == nil {
		sect.PageMargin = &ctypes.PageMargin{}
	}
	sect.PageMargin.Top, sect.PageMargin.Right = &margin, &margin
	sect.PageMargin.Bottom, sect.PageMargin.Left = &margin, &margin

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: docx package: %v", shared.ErrExportFailed, err)
	}
	return buf.Bytes(), nil
}
