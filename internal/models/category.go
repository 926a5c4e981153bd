package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/shared"
)

// Category groups songs and orders them for display.
type Category struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate derives a slug when missing and checks it is URL-safe.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", shared.ErrInvalidInput)
	}
	if c.Slug == "" {
		c.Slug = shared.Slugify(c.Name)
	}
	if c.Slug == "" || shared.Slugify(c.Slug) != c.Slug {
		return fmt.Errorf("%w: slug %q is not url-safe", shared.ErrInvalidInput, c.Slug)
	}
	return nil
}
