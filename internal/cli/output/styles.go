package output

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	colorError   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Path    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusSkipped lipgloss.Style
}

// newStyles builds the styles against a lipgloss renderer, which decides
// the color profile for the destination writer.
func newStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(colorPrimary),
		Header2: lr.NewStyle().Bold(true),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(colorMuted),
		Success: lr.NewStyle().Foreground(colorSuccess),
		Warning: lr.NewStyle().Foreground(colorWarning),
		Error:   lr.NewStyle().Foreground(colorError),
		Info:    lr.NewStyle().Foreground(colorPrimary),
		Path:    lr.NewStyle().Underline(true),

		StatusSuccess: lr.NewStyle().Bold(true).Foreground(colorSuccess),
		StatusFailed:  lr.NewStyle().Bold(true).Foreground(colorError),
		StatusSkipped: lr.NewStyle().Foreground(colorMuted),
	}
}
