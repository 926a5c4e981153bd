package formatter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

// Program is a mass with its entries, songs joined in.
type Program struct {
	Mass    models.Mass        `json:"mass"`
	Entries []models.MassSong `json:"entries"`
}

// Sorted returns a copy of the entries ordered by position. Equal positions keep their input order.
func (p Program) Sorted() []models.MassSong {
	entries := slices.Clone(p.Entries)
	slices.SortStableFunc(entries, func(a, b models.MassSong) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return entries
}

// BlockKind identifies a logical unit of an exported program.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockDate
	BlockRule
	BlockHeading
	BlockMeta
	BlockPartLabel
	BlockLine
	BlockPartEnd
	BlockEntryEnd
)

func (k BlockKind) String() string {
	switch k {
	case BlockTitle:
		return "title"
	case BlockDate:
		return "date"
	case BlockRule:
		return "rule"
	case BlockHeading:
		return "heading"
	case BlockMeta:
		return "meta"
	case BlockPartLabel:
		return "label"
	case BlockLine:
		return "line"
	case BlockPartEnd:
		return "part_end"
	case BlockEntryEnd:
		return "entry_end"
	default:
		return ""
	}
}

// Block is one logical unit with its text. Rule and end markers carry no text.
type Block struct {
	Kind BlockKind
	Text string
}

// Outline is the renderer-independent content of an export. Every format walks the same outline.
type Outline struct {
	Blocks []Block
}

// Texts returns the text of every block that carries one, in order.
func (o Outline) Texts() []string {
	var out []string
	for _, b := range o.Blocks {
		switch b.Kind {
		case BlockRule, BlockPartEnd, BlockEntryEnd:
			continue
		}
		out = append(out, b.Text)
	}
	return out
}

// MetaSeparator joins the liturgical moment and the song key.
const MetaSeparator = " • "

// BuildOutline walks the program in position order.
//
// Entries without a song are skipped but still consume their number. Selected part indices are
// followed exactly as stored, duplicates included. Indices outside the song's parts are skipped.
func BuildOutline(p Program) Outline {
	blocks := []Block{
		{Kind: BlockTitle, Text: p.Mass.Name},
		{Kind: BlockDate, Text: shared.FormatLongDate(p.Mass.Date)},
		{Kind: BlockRule},
	}

	for i, entry := range p.Sorted() {
		if entry.Song == nil {
			continue
		}
		song := entry.Song
		blocks = append(blocks, Block{Kind: BlockHeading, Text: fmt.Sprintf("%d. %s", i+1, song.Title)})

		if meta := Meta(entry.LiturgicalMoment, song.Key); meta != "" {
			blocks = append(blocks, Block{Kind: BlockMeta, Text: meta})
		}

		parts := song.Parts()
		for _, idx := range entry.SelectedParts {
			if idx < 0 || idx >= len(parts) {
				continue
			}
			part := parts[idx]
			blocks = append(blocks, Block{Kind: BlockPartLabel, Text: part.Title()})
			for _, line := range part.Lines() {
				blocks = append(blocks, Block{Kind: BlockLine, Text: line})
			}
			blocks = append(blocks, Block{Kind: BlockPartEnd})
		}

		blocks = append(blocks, Block{Kind: BlockEntryEnd})
	}

	return Outline{Blocks: blocks}
}

// Meta joins the non-empty values of moment and key with [MetaSeparator].
func Meta(moment, key string) string {
	var fields []string
	for _, f := range []string{moment, key} {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return strings.Join(fields, MetaSeparator)
}
