// Package render formats analysis results for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/screening"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	failedCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("160"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(14)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1)
)

// Card renders one entry: the analysis when it succeeded, the failure
// otherwise.
func Card(e *screening.Entry) string {
	title := titleStyle.Render(e.Name + " " + dimStyle.Render("("+e.ID+")"))

	if e.Failed() {
		body := lipgloss.JoinVertical(lipgloss.Left,
			title,
			row("Status", errorStyle.Render(string(e.Category))),
			row("Reason", e.Error),
		)
		return failedCardStyle.Render(body)
	}

	res := e.Result
	skills := strings.Join(res.Skills, ", ")
	if skills == "" {
		skills = dimStyle.Render("none detected")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		row("Role", res.Role),
		row("ATS score", scoreBar(res.ATSScore)),
		row("Match score", scoreBar(res.MatchScore)),
		row("Demand", res.MarketDemand.String()),
		row("Salary", res.SalaryRange),
		row("Skills", skills),
	)
	return cardStyle.Render(body)
}

// Summary renders one line per entry.
func Summary(r *screening.Results) string {
	if r.Len() == 0 {
		return dimStyle.Render("no documents left")
	}

	lines := make([]string, 0, r.Len())
	for _, e := range r.Items {
		if e.Failed() {
			lines = append(lines, fmt.Sprintf("%s  %-28s  %s", e.ID, e.Name, errorStyle.Render(string(e.Category))))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %-28s  %-22s  ats %3d  match %3d",
			e.ID, e.Name, e.Result.Role, e.Result.ATSScore, e.Result.MatchScore))
	}
	return strings.Join(lines, "\n")
}

// Review renders an AI review below a card.
func Review(r *ai.Review) string {
	parts := []string{sectionStyle.Render("AI review"), r.Summary}

	if len(r.Strengths) > 0 {
		parts = append(parts, sectionStyle.Render("Strengths"), bullets(r.Strengths))
	}
	if len(r.Improvements) > 0 {
		parts = append(parts, sectionStyle.Render("Improvements"), bullets(r.Improvements))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func bullets(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}

// scoreBar draws a 20 cell bar next to the number.
func scoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	filled := score / 5
	color := "160"
	switch {
	case score >= 80:
		color = "42"
	case score >= 60:
		color = "214"
	}

	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", 20-filled))
	return fmt.Sprintf("%3d %s", score, bar)
}
