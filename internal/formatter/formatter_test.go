package formatter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	th "github.com/desertthunder/cantus/internal/testing"
	"github.com/google/go-cmp/cmp"
)

// runeMeasurer gives every rune a width of size/5 millimetres.
type runeMeasurer struct{}

func (runeMeasurer) Width(text string, f Font) float64 {
	return float64(utf8.RuneCountInString(text)) * f.Size / 5
}

func alleluiaProgram() Program {
	return Program{
		Mass: th.Sunday(),
		Entries: []models.MassSong{
			{ID: "e1", Position: 1, LiturgicalMoment: "Entrée", SelectedParts: []int{0, 1}, Song: th.Alleluia()},
		},
	}
}

func song(title string, parts ...models.LyricsPart) *models.Song {
	return &models.Song{ID: "id-" + title, Title: title, LyricsStructure: parts}
}

func TestBuildOutline(t *testing.T) {
	header := []string{"Messe du dimanche", "dimanche 15 décembre 2024"}

	t.Run("zero entries emits only the header", func(t *testing.T) {
		o := BuildOutline(Program{Mass: th.Sunday()})

		var kinds []BlockKind
		for _, b := range o.Blocks {
			kinds = append(kinds, b.Kind)
		}
		if diff := cmp.Diff([]BlockKind{BlockTitle, BlockDate, BlockRule}, kinds); diff != "" {
			t.Errorf("blocks mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(header, o.Texts()); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("alleluia scenario", func(t *testing.T) {
		got := BuildOutline(alleluiaProgram()).Texts()
		want := append(header, "1. Alléluia", "Entrée • Ré mineur", "Refrain", "A", "B", "Couplet 1", "C")
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("selected parts keep their order and duplicates", func(t *testing.T) {
		p := alleluiaProgram()
		p.Entries[0].SelectedParts = []int{1, 0, 1}

		var labels []string
		for _, b := range BuildOutline(p).Blocks {
			if b.Kind == BlockPartLabel {
				labels = append(labels, b.Text)
			}
		}
		if diff := cmp.Diff([]string{"Couplet 1", "Refrain", "Couplet 1"}, labels); diff != "" {
			t.Errorf("labels mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("out of range indices are skipped", func(t *testing.T) {
		p := alleluiaProgram()
		p.Entries[0].SelectedParts = []int{5, 0, -1, 2}

		got := BuildOutline(p).Texts()
		want := append(header, "1. Alléluia", "Entrée • Ré mineur", "Refrain", "A", "B")
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("entries follow position with stable ties", func(t *testing.T) {
		p := Program{Mass: th.Sunday(), Entries: []models.MassSong{
			{Position: 3, Song: song("Envoi")},
			{Position: 1, Song: song("Entrée")},
			{Position: 1, Song: song("Kyrie")},
		}}

		var headings []string
		for _, b := range BuildOutline(p).Blocks {
			if b.Kind == BlockHeading {
				headings = append(headings, b.Text)
			}
		}
		if diff := cmp.Diff([]string{"1. Entrée", "2. Kyrie", "3. Envoi"}, headings); diff != "" {
			t.Errorf("headings mismatch (-want +got):\n%s", diff)
		}
		if p.Entries[0].Song.Title != "Envoi" {
			t.Error("BuildOutline must not reorder the caller's entries")
		}
	})

	t.Run("entry without song is skipped but keeps its number", func(t *testing.T) {
		p := Program{Mass: th.Sunday(), Entries: []models.MassSong{
			{Position: 1},
			{Position: 2, Song: song("Gloria")},
		}}

		got := BuildOutline(p).Texts()
		if diff := cmp.Diff(append(header, "2. Gloria"), got); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("meta variants", func(t *testing.T) {
		tests := []struct {
			name   string
			moment string
			key    string
			want   string
		}{
			{"both", "Communion", "Sol", "Communion • Sol"},
			{"moment only", "Communion", "", "Communion"},
			{"key only", "", "Sol", "Sol"},
			{"neither", "", "", ""},
			{"blank", "  ", " ", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := Meta(tt.moment, tt.key); got != tt.want {
					t.Errorf("Meta(%q, %q) = %q, want %q", tt.moment, tt.key, got, tt.want)
				}
			})
		}
	})

	t.Run("nil selection renders heading only", func(t *testing.T) {
		s := song("Sanctus", models.LyricsPart{Type: models.PartChorus, Content: "Saint"})
		p := Program{Mass: th.Sunday(), Entries: []models.MassSong{{Position: 1, Song: s}}}

		got := BuildOutline(p).Texts()
		if diff := cmp.Diff(append(header, "1. Sanctus"), got); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("carriage returns and legacy lyrics", func(t *testing.T) {
		s := &models.Song{Title: "Ancien", Lyrics: "un\r\ndeux"}
		p := Program{Mass: th.Sunday(), Entries: []models.MassSong{{Position: 1, Song: s, SelectedParts: []int{0}}}}

		got := BuildOutline(p).Texts()
		if diff := cmp.Diff(append(header, "1. Ancien", "Refrain", "un", "deux"), got); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestPaginator(t *testing.T) {
	t.Run("geometry errors", func(t *testing.T) {
		tests := []struct {
			name               string
			height, top, bottom float64
		}{
			{"height equals top", 20, 20, 0},
			{"height below top", 10, 20, 0},
			{"negative margin", 100, 10, -1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewPaginator(tt.height, tt.top, tt.bottom)
				if !errors.Is(err, shared.ErrPagination) {
					t.Errorf("expected ErrPagination, got %v", err)
				}
			})
		}
	})

	t.Run("unit height must be positive", func(t *testing.T) {
		p, err := NewPaginator(100, 10, 10)
		if err != nil {
			t.Fatalf("NewPaginator failed: %v", err)
		}
		for _, h := range []float64{0, -5} {
			if _, _, err := p.Place(h); !errors.Is(err, shared.ErrPagination) {
				t.Errorf("Place(%v): expected ErrPagination, got %v", h, err)
			}
		}
		if p.Cursor() != 10 {
			t.Errorf("rejected units must not move the cursor, got %v", p.Cursor())
		}
	})

	t.Run("breaks only when crossing the threshold", func(t *testing.T) {
		p, err := NewPaginator(100, 10, 10)
		if err != nil {
			t.Fatalf("NewPaginator failed: %v", err)
		}

		type placed struct {
			Page int
			Y    float64
		}
		var got []placed
		for _, h := range []float64{50, 30, 1, 20} {
			page, y, err := p.Place(h)
			if err != nil {
				t.Fatalf("Place(%v) failed: %v", h, err)
			}
			got = append(got, placed{page, y})
		}

		want := []placed{{1, 10}, {1, 60}, {2, 10}, {2, 11}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("placements mismatch (-want +got):\n%s", diff)
		}
		if p.Page() != 2 {
			t.Errorf("expected page 2, got %d", p.Page())
		}
	})

	t.Run("oversized unit at top does not loop", func(t *testing.T) {
		p, _ := NewPaginator(100, 10, 10)
		page, y, err := p.Place(500)
		if err != nil || page != 1 || y != 10 {
			t.Fatalf("expected page 1 at 10, got %d %v %v", page, y, err)
		}
		page, y, _ = p.Place(1)
		if page != 2 || y != 10 {
			t.Errorf("expected next unit on page 2 at 10, got %d at %v", page, y)
		}
	})

	t.Run("skip never breaks", func(t *testing.T) {
		p, _ := NewPaginator(100, 10, 10)
		p.Skip(200)
		p.Skip(-3)
		if p.Page() != 1 || p.Cursor() != 210 {
			t.Errorf("expected page 1 cursor 210, got %d %v", p.Page(), p.Cursor())
		}
	})
}

func TestLayoutPDF(t *testing.T) {
	t.Run("header positions", func(t *testing.T) {
		layout, err := LayoutPDF(BuildOutline(Program{Mass: th.Sunday()}), runeMeasurer{})
		if err != nil {
			t.Fatalf("LayoutPDF failed: %v", err)
		}
		if len(layout.Pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(layout.Pages))
		}

		items := layout.Pages[0].Items
		if len(items) != 3 {
			t.Fatalf("expected title, date and rule, got %d items", len(items))
		}

		title := items[0]
		wantX := (PageWidth - runeMeasurer{}.Width(title.Text, titleFont)) / 2
		if title.Y != 20 || title.X != wantX {
			t.Errorf("title at (%v, %v), want (%v, 20)", title.X, title.Y, wantX)
		}
		if items[1].Y != 30 {
			t.Errorf("date at y=%v, want 30", items[1].Y)
		}
		rule := items[2]
		if rule.Kind != ItemRule || rule.Y != 45 || rule.X != Margin || rule.X2 != PageWidth-Margin {
			t.Errorf("unexpected rule %+v", rule)
		}
	})

	t.Run("alleluia indents", func(t *testing.T) {
		layout, err := LayoutPDF(BuildOutline(alleluiaProgram()), runeMeasurer{})
		if err != nil {
			t.Fatalf("LayoutPDF failed: %v", err)
		}

		xs := map[string]float64{}
		for _, it := range layout.Pages[0].Items {
			xs[it.Text] = it.X
		}
		if xs["1. Alléluia"] != Margin || xs["Refrain"] != Margin+5 || xs["A"] != Margin+10 {
			t.Errorf("unexpected indents: %v", xs)
		}
	})

	t.Run("long mass names wrap inside the margins", func(t *testing.T) {
		mass := th.Sunday()
		mass.Name = "Messe solennelle de la Nativité du Seigneur avec la chorale paroissiale et les enfants"

		layout, err := LayoutPDF(BuildOutline(Program{Mass: mass}), runeMeasurer{})
		if err != nil {
			t.Fatalf("LayoutPDF failed: %v", err)
		}

		var titles []Item
		for _, it := range layout.Pages[0].Items {
			if it.Kind == ItemText && it.Font == titleFont {
				titles = append(titles, it)
			}
			if it.X < Margin {
				t.Errorf("item %q starts at x=%v, left of the margin", it.Text, it.X)
			}
			if it.Kind == ItemText && it.X+runeMeasurer{}.Width(it.Text, it.Font) > PageWidth-Margin {
				t.Errorf("item %q overflows the right margin", it.Text)
			}
		}
		if len(titles) < 2 {
			t.Fatalf("expected the title to wrap, got %d lines", len(titles))
		}
		if got := strings.Join(Layout{Pages: []Page{{Items: titles}}}.Texts(), " "); got != mass.Name {
			t.Errorf("wrapped title = %q, want %q", got, mass.Name)
		}

		last := titles[len(titles)-1]
		date := layout.Pages[0].Items[len(titles)]
		if date.Y != last.Y+titleHeight {
			t.Errorf("date at y=%v, want %v", date.Y, last.Y+titleHeight)
		}
	})

	t.Run("long programs break pages above the bottom margin", func(t *testing.T) {
		verse := models.LyricsPart{Type: models.PartVerse, Label: "1", Content: "un\ndeux\ntrois\nquatre"}
		var entries []models.MassSong
		for i := range 30 {
			entries = append(entries, models.MassSong{Position: i + 1, Song: song("Chant", verse), SelectedParts: []int{0}})
		}

		layout, err := LayoutPDF(BuildOutline(Program{Mass: th.Sunday(), Entries: entries}), runeMeasurer{})
		if err != nil {
			t.Fatalf("LayoutPDF failed: %v", err)
		}
		if len(layout.Pages) < 2 {
			t.Fatalf("expected several pages, got %d", len(layout.Pages))
		}
		for _, page := range layout.Pages {
			if page.Items[0].Y != Margin {
				t.Errorf("page %d starts at %v, want %v", page.Number, page.Items[0].Y, Margin)
			}
			for _, it := range page.Items {
				if it.Y >= PageHeight-Margin {
					t.Errorf("page %d item %q at %v crosses the bottom margin", page.Number, it.Text, it.Y)
				}
			}
		}
	})

	t.Run("wide lines wrap to the text column", func(t *testing.T) {
		long := strings.Repeat("alleluia ", 20) + strings.Repeat("x", 100)
		s := song("Long", models.LyricsPart{Type: models.PartChorus, Content: long})
		p := Program{Mass: th.Sunday(), Entries: []models.MassSong{{Position: 1, Song: s, SelectedParts: []int{0}}}}

		layout, err := LayoutPDF(BuildOutline(p), runeMeasurer{})
		if err != nil {
			t.Fatalf("LayoutPDF failed: %v", err)
		}

		var lines []Item
		for _, it := range layout.Pages[0].Items {
			if it.Font == lineFont {
				lines = append(lines, it)
			}
		}
		if len(lines) < 2 {
			t.Fatalf("expected wrapped lines, got %d", len(lines))
		}
		column := PageWidth - 2*Margin - 10
		var joined []string
		for _, l := range lines {
			if w := (runeMeasurer{}).Width(l.Text, lineFont); w > column {
				t.Errorf("line %q is %v wide, column is %v", l.Text, w, column)
			}
			joined = append(joined, l.Text)
		}
		if got := strings.Join(joined, ""); strings.ReplaceAll(got, " ", "") != strings.ReplaceAll(long, " ", "") {
			t.Error("wrapping must not drop text")
		}
	})
}

func TestExportToPDF(t *testing.T) {
	t.Run("renders a pdf", func(t *testing.T) {
		data, err := ExportToPDF(alleluiaProgram())
		if err != nil {
			t.Fatalf("ExportToPDF failed: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("expected PDF header, got %q", data[:min(8, len(data))])
		}
	})

	t.Run("zero entries", func(t *testing.T) {
		if _, err := ExportToPDF(Program{Mass: th.Sunday()}); err != nil {
			t.Fatalf("ExportToPDF failed: %v", err)
		}
	})

	t.Run("rendering twice is byte identical", func(t *testing.T) {
		a, err := ExportToPDF(alleluiaProgram())
		if err != nil {
			t.Fatalf("ExportToPDF failed: %v", err)
		}
		b, err := ExportToPDF(alleluiaProgram())
		if err != nil {
			t.Fatalf("ExportToPDF failed: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Error("expected identical output for identical programs")
		}
	})
}

// docxTexts unzips a docx package and returns the document XML and the text of every w:t in order.
func docxTexts(t *testing.T, data []byte) (string, []string) {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}

	var raw []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open document: %v", err)
		}
		raw, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read document: %v", err)
		}
	}
	if raw == nil {
		t.Fatal("word/document.xml missing")
	}

	var (
		texts  []string
		inText bool
	)
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("malformed document xml: %v", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			inText = el.Name.Local == "t" && el.Name.Space == wordNamespace
			if inText {
				texts = append(texts, "")
			}
		case xml.CharData:
			if inText {
				texts[len(texts)-1] += string(el)
			}
		case xml.EndElement:
			inText = false
		}
	}
	return string(raw), texts
}

func TestExportToDOCX(t *testing.T) {
	t.Run("alleluia content matches the outline", func(t *testing.T) {
		p := alleluiaProgram()
		data, err := ExportToDOCX(p)
		if err != nil {
			t.Fatalf("ExportToDOCX failed: %v", err)
		}

		raw, texts := docxTexts(t, data)
		if diff := cmp.Diff(BuildOutline(p).Texts(), texts); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}

		for _, fragment := range []string{
			`<w:pStyle w:val="Title">`,
			`<w:sz w:val="28">`,
			`<w:u w:val="single">`,
			`<w:ind w:left="400">`,
			`<w:bottom w:val="single"`,
			`<w:pgSz w:w="11906" w:h="16838"`,
		} {
			if !strings.Contains(raw, fragment) {
				t.Errorf("document missing %s", fragment)
			}
		}
	})

	t.Run("zero entries", func(t *testing.T) {
		data, err := ExportToDOCX(Program{Mass: th.Sunday()})
		if err != nil {
			t.Fatalf("ExportToDOCX failed: %v", err)
		}
		_, texts := docxTexts(t, data)
		if len(texts) != 2 {
			t.Errorf("expected title and date only, got %v", texts)
		}
	})

	t.Run("rendering twice is byte identical", func(t *testing.T) {
		a, _ := ExportToDOCX(alleluiaProgram())
		b, _ := ExportToDOCX(alleluiaProgram())
		if !bytes.Equal(a, b) {
			t.Error("expected identical output for identical programs")
		}
	})

	t.Run("escapes markup", func(t *testing.T) {
		p := alleluiaProgram()
		p.Mass.Name = "Messe <des> familles & amis"
		data, err := ExportToDOCX(p)
		if err != nil {
			t.Fatalf("ExportToDOCX failed: %v", err)
		}
		_, texts := docxTexts(t, data)
		if texts[0] != p.Mass.Name {
			t.Errorf("expected %q, got %q", p.Mass.Name, texts[0])
		}
	})
}

func TestPlainExports(t *testing.T) {
	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(alleluiaProgram())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)
		for _, want := range []string{
			"# Messe du dimanche",
			"*dimanche 15 décembre 2024*",
			"## 1. Alléluia",
			"*Entrée • Ré mineur*",
			"**Refrain**",
			"> A\n> B\n",
			"**Couplet 1**",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(alleluiaProgram())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)
		for _, want := range []string{"Messe du dimanche\n", "1. Alléluia\n", "   Refrain\n", "     C\n"} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name   string
		mass   string
		format Format
		want   string
	}{
		{"single spaces", "Messe de Noël", FormatPDF, "Messe_de_Noël_2024-12-15.pdf"},
		{"whitespace runs", "Messe  du\tjour", FormatDOCX, "Messe_du_jour_2024-12-15.docx"},
		{"leading space", " Vigile", FormatMarkdown, "_Vigile_2024-12-15.md"},
		{"no spaces", "Pâques", FormatText, "Pâques_2024-12-15.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := th.Sunday()
			m.Name = tt.mass
			if got := ExportFilename(m, tt.format); got != tt.want {
				t.Errorf("ExportFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"pdf", FormatPDF, false},
		{"PDF", FormatPDF, false},
		{".docx", FormatDOCX, false},
		{"markdown", FormatMarkdown, false},
		{"txt", FormatText, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}

	if _, err := Export(alleluiaProgram(), Format("odt")); !errors.Is(err, shared.ErrUnsupportedFormat) {
		t.Errorf("Export with unknown format: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWriteExport(t *testing.T) {
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			dir := t.TempDir()
			result, err := WriteExport(alleluiaProgram(), f, dir)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}

			th.AssertFileExists(t, result.Path)
			if !strings.HasSuffix(result.Path, "Messe_du_dimanche_2024-12-15."+string(f)) {
				t.Errorf("unexpected path %s", result.Path)
			}
			if got := int64(len(th.MustReadFile(t, result.Path))); got != result.Size {
				t.Errorf("size %d does not match file length %d", result.Size, got)
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatalf("failed to read dir: %v", err)
			}
			if len(entries) != 1 {
				t.Errorf("expected only the export in %s, found %d entries", dir, len(entries))
			}
		})
	}

	t.Run("creates nested directories", func(t *testing.T) {
		dir := t.TempDir() + "/a/b"
		if _, err := WriteExport(alleluiaProgram(), FormatText, dir); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertDirExists(t, dir)
	})

	t.Run("names with path separators stay in dir", func(t *testing.T) {
		tests := []struct {
			mass string
			want string
		}{
			{"../escaped", "__escaped_2024-12-15.txt"},
			{"Messe 1/2", "Messe_1_2_2024-12-15.txt"},
			{`..\..\win`, "____win_2024-12-15.txt"},
		}
		for _, tt := range tests {
			root := t.TempDir()
			dir := filepath.Join(root, "out")
			p := alleluiaProgram()
			p.Mass.Name = tt.mass

			result, err := WriteExport(p, FormatText, dir)
			if err != nil {
				t.Fatalf("WriteExport(%q) failed: %v", tt.mass, err)
			}
			if want := filepath.Join(dir, tt.want); result.Path != want {
				t.Errorf("WriteExport(%q) path = %s, want %s", tt.mass, result.Path, want)
			}
			entries, err := os.ReadDir(root)
			if err != nil {
				t.Fatalf("failed to read dir: %v", err)
			}
			if len(entries) != 1 || entries[0].Name() != "out" {
				t.Errorf("WriteExport(%q) wrote outside %s: %v", tt.mass, dir, entries)
			}
		}
	})
}

func TestWriteManifest(t *testing.T) {
	path := t.TempDir() + "/export_manifest.json"
	m := Manifest{
		Format:    FormatPDF,
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Entries: []ManifestEntry{
			{MassID: "a", MassName: "Noël", File: "Noël_2024-12-25.pdf", Size: 1200},
			{MassID: "b", Error: "not found"},
		},
	}
	if err := WriteManifest(m, path); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	content := th.MustReadFile(t, path)
	for _, want := range []string{`"format": "pdf"`, `"succeeded": 1`, `"error": "not found"`} {
		if !strings.Contains(content, want) {
			t.Errorf("manifest missing %s", want)
		}
	}
}
