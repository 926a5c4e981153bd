// package formatter renders mass programs to print-ready documents (PDF, DOCX) and plain formats (Markdown, text)
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

// Format is an export file format, named by its extension.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatDOCX, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "pdf":
		return FormatPDF, nil
	case "docx", "word":
		return FormatDOCX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ExportFilename builds "{name}_{date}.{ext}" with every whitespace run in the name replaced by "_".
func ExportFilename(mass models.Mass, f Format) string {
	var b strings.Builder
	inSpace := false
	for _, r := range mass.Name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s_%s.%s", b.String(), mass.DateString(), f)
}

// Export renders the program in the given format.
func Export(p Program, f Format) ([]byte, error) {
	switch f {
	case FormatPDF:
		return ExportToPDF(p)
	case FormatDOCX:
		return ExportToDOCX(p)
	case FormatMarkdown:
		return ExportToMarkdown(p)
	case FormatText:
		return ExportToText(p)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, string(f))
	}
}

// ExportToMarkdown renders the program as Markdown.
func ExportToMarkdown(p Program) ([]byte, error) {
	var buf bytes.Buffer

	for _, b := range BuildOutline(p).Blocks {
		switch b.Kind {
		case BlockTitle:
			buf.WriteString(fmt.Sprintf("# %s\n\n", b.Text))
		case BlockDate:
			buf.WriteString(fmt.Sprintf("*%s*\n\n", b.Text))
		case BlockRule:
			buf.WriteString("---\n\n")
		case BlockHeading:
			buf.WriteString(fmt.Sprintf("## %s\n\n", b.Text))
		case BlockMeta:
			buf.WriteString(fmt.Sprintf("*%s*\n\n", b.Text))
		case BlockPartLabel:
			buf.WriteString(fmt.Sprintf("**%s**\n\n", b.Text))
		case BlockLine:
			buf.WriteString(fmt.Sprintf("> %s\n", b.Text))
		case BlockPartEnd:
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders the program as indented plain text.
func ExportToText(p Program) ([]byte, error) {
	var buf bytes.Buffer

	for _, b := range BuildOutline(p).Blocks {
		switch b.Kind {
		case BlockTitle, BlockDate, BlockHeading:
			buf.WriteString(b.Text + "\n")
		case BlockRule:
			buf.WriteString(strings.Repeat("=", 40) + "\n\n")
		case BlockMeta:
			buf.WriteString("   " + b.Text + "\n")
		case BlockPartLabel:
			buf.WriteString("   " + b.Text + "\n")
		case BlockLine:
			buf.WriteString("     " + b.Text + "\n")
		case BlockEntryEnd:
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportResult describes a file written by [WriteExport].
type ExportResult struct {
	Path string
	Size int64
}

var pathReplacer = strings.NewReplacer("/", "_", "\\", "_", "..", "_")

// diskFilename is [ExportFilename] with separators and parent references flattened.
func diskFilename(mass models.Mass, f Format) string {
	return pathReplacer.Replace(ExportFilename(mass, f))
}

// WriteExport renders the program into dir under its [ExportFilename].
//
// The file appears complete or not at all: it is written to a temporary name and renamed.
func WriteExport(p Program, f Format, dir string) (*ExportResult, error) {
	data, err := Export(p, f)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, diskFilename(p.Mass, f))
	if filepath.Dir(path) != filepath.Clean(dir) {
		return nil, fmt.Errorf("%w: export name %q leaves %s", shared.ErrInvalidInput, p.Mass.Name, dir)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to move export into place: %w", err)
	}

	return &ExportResult{Path: path, Size: int64(len(data))}, nil
}

// Manifest summarizes a bulk export.
type Manifest struct {
	Format          Format          `json:"format"`
	GeneratedAt     time.Time       `json:"generated_at"`
	OutputDirectory string          `json:"output_directory"`
	Total           int             `json:"total"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	Entries         []ManifestEntry `json:"entries"`
}

// ManifestEntry records the outcome for one mass.
type ManifestEntry struct {
	MassID   string `json:"mass_id"`
	MassName string `json:"mass_name,omitempty"`
	Date     string `json:"date,omitempty"`
	File     string `json:"file,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(m Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
