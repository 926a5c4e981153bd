package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/shared"
)

// PartType distinguishes refrains from verses.
type PartType string

const (
	PartChorus PartType = "chorus"
	PartVerse  PartType = "verse"
)

// Valid reports whether t is a known part type.
func (t PartType) Valid() bool {
	return t == PartChorus || t == PartVerse
}

// LyricsPart is one structural block of a song. Order within a song is semantic.
type LyricsPart struct {
	Type    PartType `json:"type" toml:"type"`
	Label   string   `json:"label,omitempty" toml:"label"`
	Content string   `json:"content" toml:"content"`
}

// Title is the display heading of the part: "Refrain" for a chorus, "Couplet {label}" for a verse.
func (p LyricsPart) Title() string {
	if p.Type == PartChorus {
		return "Refrain"
	}
	return strings.TrimSpace("Couplet " + p.Label)
}

// Lines splits the content on line breaks, accepting both \n and \r\n.
func (p LyricsPart) Lines() []string {
	content := strings.ReplaceAll(p.Content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

// Song is a hymn in the repertoire.
//
// LyricsStructure takes precedence over the legacy plain Lyrics field.
type Song struct {
	ID              string       `json:"id"`
	Sequence        int          `json:"-"`
	Title           string       `json:"title"`
	Key             string       `json:"key,omitempty"`
	AudioURL        string       `json:"audio_url,omitempty"`
	VideoURL        string       `json:"video_url,omitempty"`
	Duration        int          `json:"duration,omitempty"`
	CategoryID      string       `json:"category_id,omitempty"`
	LyricsStructure []LyricsPart `json:"lyrics_structure"`
	Lyrics          string       `json:"lyrics,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	DeletedAt       *time.Time   `json:"-"`

	Category *Category `json:"category,omitempty"`
}

// Parts returns the structural parts used for selection and rendering.
//
// Songs created before structured lyrics expose their plain text as a single refrain.
func (s *Song) Parts() []LyricsPart {
	if len(s.LyricsStructure) > 0 {
		return s.LyricsStructure
	}
	if strings.TrimSpace(s.Lyrics) != "" {
		return []LyricsPart{{Type: PartChorus, Content: s.Lyrics}}
	}
	return nil
}

// Validate checks the title and part types.
func (s *Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	for i, p := range s.LyricsStructure {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: part %d has unknown type %q", shared.ErrInvalidInput, i, p.Type)
		}
	}
	return nil
}

// NormalizeParts drops empty parts and numbers unlabeled verses in order of appearance.
func NormalizeParts(parts []LyricsPart) []LyricsPart {
	out := make([]LyricsPart, 0, len(parts))
	verses := 0
	for _, p := range parts {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		if p.Type == "" {
			p.Type = PartVerse
		}
		if p.Type == PartVerse {
			verses++
			if p.Label == "" {
				p.Label = fmt.Sprint(verses)
			}
		}
		out = append(out, p)
	}
	return out
}
