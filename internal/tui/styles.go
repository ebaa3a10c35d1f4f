package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title     lipgloss.Style
	Caption   lipgloss.Style
	UserLabel lipgloss.Style
	UserText  lipgloss.Style
	BotLabel  lipgloss.Style
	Notice    lipgloss.Style
	Banner    lipgloss.Style
	Help      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#A78BFA"}),
		Caption: lipgloss.NewStyle().
			Faint(true),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}),
		UserText: lipgloss.NewStyle().
			PaddingLeft(2),
		BotLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#BE185D", Dark: "#F472B6"}),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}).
			PaddingLeft(1).
			MarginLeft(2),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Faint(true),
	}
}
