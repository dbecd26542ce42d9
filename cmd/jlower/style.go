package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type styleSet struct {
	title  lipgloss.Style
	method lipgloss.Style
	stage  lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
}

var styles = plainStyles()

func plainStyles() styleSet {
	s := lipgloss.NewStyle()
	return styleSet{title: s, method: s, stage: s, pass: s, fail: s, dim: s}
}

// setupStyles enables colors when stdout is a terminal.
func setupStyles(noColor bool) {
	if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		styles = plainStyles()
		return
	}
	styles = styleSet{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		method: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB")),
		stage: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")),
		pass: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90")),
		fail: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")),
	}
}
