package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles of the window.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Frame   lipgloss.Style
}

// DefaultStyles returns the launcher look.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7FD962")).MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12),
		Focused: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Width(12),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E0C060")).MarginTop(1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E05050")).MarginTop(1),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		Frame:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2),
	}
}
