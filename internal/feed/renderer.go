// Package feed renders an assembled channel as an RSS document or a
// browsable HTML index.
package feed

import (
	"fmt"
	"slices"

	"podcats/internal/models"
)

// DefaultGenerator is written to the RSS generator element.
const DefaultGenerator = "podcats"

// Options controls presentation only; it never changes which episodes are
// rendered.
type Options struct {
	// NewestFirst reverses the ascending episode order before writing.
	NewestFirst bool
	Generator   string
}

// Renderer turns channels into documents. A Renderer holds no per-channel
// state and is safe for concurrent use.
type Renderer struct {
	opts Options
	page *pageTemplate
}

// NewRenderer builds a Renderer and parses its HTML template.
func NewRenderer(opts Options) *Renderer {
	if opts.Generator == "" {
		opts.Generator = DefaultGenerator
	}
	return &Renderer{
		opts: opts,
		page: newPageTemplate(),
	}
}

func (r *Renderer) ordered(episodes []models.Episode) []models.Episode {
	if !r.opts.NewestFirst {
		return episodes
	}
	reversed := slices.Clone(episodes)
	slices.Reverse(reversed)
	return reversed
}

// FormatDuration renders seconds as H:MM:SS, or M:SS below one hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
