package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/careercrawl/internal/crawler"
	"github.com/amishk599/careercrawl/internal/reconcile"
)

var (
	reportHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 0, 2)

	reportLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12).
				Padding(0, 0, 0, 2)

	reportItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	reportDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	reportErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Padding(0, 0, 0, 2)

	kindStyles = map[reconcile.Kind]lipgloss.Style{
		reconcile.KindInsert:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		reconcile.KindUpdate:  lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		reconcile.KindMigrate: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		reconcile.KindPending: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		reconcile.KindDelete:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Report renders a company result and its reconciliation plan.
func Report(res crawler.CompanyResult) string {
	var b strings.Builder
	b.WriteString(reportHeaderStyle.Render(fmt.Sprintf("%s  %s", res.CompanyName, reportDimStyle.Render(string(res.Platform)))))
	b.WriteString("\n\n")

	stat := func(label string, v any) {
		b.WriteString(reportLabelStyle.Render(label) + fmt.Sprint(v) + "\n")
	}
	stat("status", res.Status)
	stat("extracted", res.Extracted)
	stat("enriched", res.Enriched)
	stat("kept", res.Kept)
	stat("took", res.Duration.Round(100*time.Millisecond))

	if res.Err != nil {
		b.WriteString("\n" + reportErrorStyle.Render(res.Err.Error()) + "\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, u := range res.Plan.Upserts {
		line := fmt.Sprintf("%-8s %s", u.Kind, u.Job.Title)
		if u.Job.Location != "" {
			line += reportDimStyle.Render("  " + u.Job.Location)
		}
		line += reportDimStyle.Render("  " + u.Job.ID)
		b.WriteString(reportItemStyle.Render(kindStyles[u.Kind].Render(line)) + "\n")
	}
	for _, id := range res.Plan.Deletes {
		line := fmt.Sprintf("%-8s %s", reconcile.KindDelete, id)
		b.WriteString(reportItemStyle.Render(kindStyles[reconcile.KindDelete].Render(line)) + "\n")
	}
	if res.Plan.Empty() {
		b.WriteString(reportItemStyle.Render(reportDimStyle.Render("no changes")) + "\n")
	}
	return b.String()
}
