package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for the dashboard.
type Theme struct {
	Title    lipgloss.Color
	Header   lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
	Selected lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Title:    lipgloss.Color("#AF87FF"), // violet
	Header:   lipgloss.Color("#5FAFD7"), // light blue
	Success:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Selected: lipgloss.Color("#FFD700"), // gold
}

// Style functions for dynamic theming
func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Header).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Selected)
}
