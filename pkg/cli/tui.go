package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the interactive chat client.
type Theme struct {
	Primary lipgloss.Color // accent: borders, titles, speaker labels
	Dim     lipgloss.Color // help line and status text
}

// DefaultTheme is the default harbor-blue theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#4fc1ff"),
	Dim:     lipgloss.Color("#8b949e"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Chrome renders a bordered panel with a title bar, a scrolling body,
// and a help line underneath. The chat client redraws it on every
// update.
type Chrome struct {
	Styles Styles
	Title  string
	Status string
	Body   []string
	Help   string
}

// Render renders the chrome sized to the terminal.
func (c Chrome) Render(width, height int) string {
	if width < 8 || height < 5 {
		return "Loading..."
	}

	bc := c.Styles.Border
	contentWidth := width - 4

	var lines []string

	// Top border
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	// Title line: │ title [status]    │
	title := c.Styles.Title.Render(c.Title)
	status := c.Styles.Help.Render("[" + c.Status + "]")
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+
		strings.Repeat(" ", pad)+" "+bc.Render("│"))

	// Body fills the rest of the panel, showing the tail when the
	// transcript is longer than the window.
	bodyHeight := height - 4
	start := 0
	if len(c.Body) > bodyHeight {
		start = len(c.Body) - bodyHeight
	}
	for i := 0; i < bodyHeight; i++ {
		text := ""
		if idx := start + i; idx < len(c.Body) {
			text = c.Body[idx]
		}
		if lipgloss.Width(text) > contentWidth {
			text = truncate(text, contentWidth-1) + "…"
		}
		lines = append(lines, bc.Render("│")+" "+text+
			strings.Repeat(" ", max(0, contentWidth-lipgloss.Width(text)))+" "+bc.Render("│"))
	}

	// Bottom border and help line
	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	lines = append(lines, c.Styles.Help.Render(c.Help))

	return strings.Join(lines, "\n")
}

// truncate cuts a string to the given display width, handling
// multi-byte characters correctly.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width {
			return b.String()
		}
		b.WriteRune(r)
		used += w
	}
	return s
}
