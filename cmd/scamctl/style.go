package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	badgeBase  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

var concernColors = map[trust.ConcernLevel]lipgloss.Color{
	trust.ConcernNoReports: lipgloss.Color("245"),
	trust.ConcernLow:       lipgloss.Color("34"),
	trust.ConcernModerate:  lipgloss.Color("178"),
	trust.ConcernHigh:      lipgloss.Color("202"),
	trust.ConcernSevere:    lipgloss.Color("196"),
}

func concernBadge(level trust.ConcernLevel) string {
	c, ok := concernColors[level]
	if !ok {
		c = lipgloss.Color("245")
	}
	return badgeBase.Foreground(lipgloss.Color("231")).Background(c).Render(string(level))
}
