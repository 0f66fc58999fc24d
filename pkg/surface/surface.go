// Package surface defines output rendering for bridgewatch results.
// Implementations handle different output targets: terminal, Markdown, JSON.
package surface

import (
	"fmt"
	"io"

	"github.com/bridgewatch/bridgewatch/pkg/aggregate"
	"github.com/bridgewatch/bridgewatch/pkg/scoring"
)

// Renderer produces formatted output from scoring results.
type Renderer interface {
	// RenderAssessments writes one row per structure.
	RenderAssessments(w io.Writer, items []scoring.Assessment) error
	RenderDashboard(w io.Writer, d aggregate.Dashboard) error
	// RenderForecast writes the condition timeline of one structure.
	RenderForecast(w io.Writer, name string, f scoring.Forecast) error
}

// Formats lists the accepted values for New.
var Formats = []string{"text", "markdown", "json"}

// New returns the renderer for a format name.
func New(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
}
