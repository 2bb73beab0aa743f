package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the dashboard styling definitions
type Styles struct {
	// App layout
	App    lipgloss.Style
	Header lipgloss.Style

	// Namespace detail pane
	DetailBorder lipgloss.Style
	DetailTitle  lipgloss.Style

	// Status bar
	StatusBar          lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusReconnecting lipgloss.Style

	// General
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Accent lipgloss.Style
}

// DefaultStyles creates the default style set using the default renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles creates the style set using the given renderer.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		App: r.NewStyle(),

		Header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2),

		DetailBorder: r.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1),
		DetailTitle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("213")),

		StatusBar: r.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		StatusConnected: r.NewStyle().
			Foreground(lipgloss.Color("76")).
			Bold(true),
		StatusDisconnected: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		StatusReconnecting: r.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),

		Muted: r.NewStyle().
			Foreground(lipgloss.Color("245")),
		Bold: r.NewStyle().
			Bold(true),
		Accent: r.NewStyle().
			Foreground(lipgloss.Color("213")),
	}
}
