package formatter

import (
	"fmt"

	"github.com/desertthunder/cantus/internal/shared"
)

// Paginator tracks a vertical cursor over fixed-height pages.
//
// It does positional bookkeeping only: no backtracking, no keep-together.
type Paginator struct {
	pageHeight float64
	top        float64
	bottom     float64
	cursor     float64
	page       int
}

// NewPaginator starts at the top margin of page 1.
func NewPaginator(pageHeight, topMargin, bottomMargin float64) (*Paginator, error) {
	if pageHeight <= topMargin {
		return nil, fmt.Errorf("%w: page height %.1f must exceed top margin %.1f", shared.ErrPagination, pageHeight, topMargin)
	}
	if topMargin < 0 || bottomMargin < 0 {
		return nil, fmt.Errorf("%w: margins must not be negative", shared.ErrPagination)
	}
	return &Paginator{
		pageHeight: pageHeight,
		top:        topMargin,
		bottom:     bottomMargin,
		cursor:     topMargin,
		page:       1,
	}, nil
}

// Place reserves height for the next unit and returns the page and y where it starts.
//
// When the unit would cross the bottom threshold the page breaks first. A unit placed at the top of a
// fresh page never breaks, so oversized units cannot loop.
func (p *Paginator) Place(height float64) (page int, y float64, err error) {
	if height <= 0 {
		return 0, 0, fmt.Errorf("%w: unit height %.2f must be positive", shared.ErrPagination, height)
	}

	if p.cursor+height > p.limit() && p.cursor > p.top {
		p.page++
		p.cursor = p.top
	}

	y = p.cursor
	p.cursor += height
	return p.page, y, nil
}

// Skip advances the cursor by spacing that is not a unit. It never breaks the page.
func (p *Paginator) Skip(height float64) {
	if height > 0 {
		p.cursor += height
	}
}

// Page is the current 1-based page number.
func (p *Paginator) Page() int { return p.page }

// Cursor is the current vertical position.
func (p *Paginator) Cursor() float64 { return p.cursor }

func (p *Paginator) limit() float64 {
	return p.pageHeight - p.bottom
}
