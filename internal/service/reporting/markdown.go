package reporting

import (
	"fmt"
	"strings"

	"ghillie/internal/domain"
)

var statusLabels = map[domain.ReportStatus]string{
	domain.ReportStatusOnTrack: "On Track",
	domain.ReportStatusAtRisk:  "At Risk",
	domain.ReportStatusBlocked: "Blocked",
	domain.ReportStatusUnknown: "Unknown",
}

// RenderReportMarkdown renders a Report as a deterministic Markdown
// document, driven exclusively by MachineSummary so the rendered
// artefact matches the persisted record exactly.
func RenderReportMarkdown(report domain.Report, owner, name string) string {
	ms := report.MachineSummary
	var b strings.Builder

	windowStart := report.WindowStart.Format("2006-01-02")
	windowEnd := report.WindowEnd.Format("2006-01-02")

	fmt.Fprintf(&b, "# %s/%s — Status report (%s to %s)\n\n", owner, name, windowStart, windowEnd)

	label, ok := statusLabels[ms.Status]
	if !ok {
		label = string(ms.Status)
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n", label)

	if ms.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(ms.Summary)
		b.WriteString("\n\n")
	}

	writeList(&b, "Highlights", ms.Highlights)
	writeList(&b, "Risks", ms.Risks)
	writeList(&b, "Next steps", ms.NextSteps)

	b.WriteString("---\n\n")
	model := report.ModelIdentifier
	if model == "" {
		model = "unknown"
	}
	fmt.Fprintf(&b, "*Generated at %s by %s | Window: %s to %s | Report ID: %s*\n",
		report.GeneratedAt.Format("2006-01-02 15:04")+" UTC", model, windowStart, windowEnd, report.ID)

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
