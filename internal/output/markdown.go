package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const markdownWidth = 80

var colorDisabled bool

// Markdown renders s as terminal markdown, falling back to the raw text
// indented by two spaces when rendering fails.
func Markdown(s string) string {
	style := glamour.WithAutoStyle()
	if colorDisabled {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(markdownWidth))
	if err == nil {
		if out, err := r.Render(s); err == nil {
			return out
		}
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
