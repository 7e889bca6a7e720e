package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/sweeper/internal/models"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderMarkdown renders the sweep summary as a Markdown document.
func RenderMarkdown(report *models.SweepReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Sweep %s\n\n", report.SweepID)
	sb.WriteString("| Field | Value |\n|---|---|\n")
	if report.ConfigPath != "" {
		fmt.Fprintf(&sb, "| Config | `%s` |\n", report.ConfigPath)
	}
	fmt.Fprintf(&sb, "| Started | %s |\n", report.StartedAt.Format(time.RFC3339))
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "| Finished | %s |\n", report.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "| Duration | %s |\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(&sb, "| Runs | %d |\n", report.Total)
	fmt.Fprintf(&sb, "| Succeeded | %d |\n", report.Succeeded)
	fmt.Fprintf(&sb, "| Failed | %d |\n", report.Failed)
	fmt.Fprintf(&sb, "| Skipped | %d |\n", report.Skipped)
	if report.Interrupted {
		sb.WriteString("| Interrupted | yes |\n")
	}

	if len(report.Records) == 0 {
		return sb.String()
	}

	sb.WriteString("\n## Runs\n\n")
	sb.WriteString("| # | Run | Status | Ground state (eV) | Position (nm) | Duration | Error |\n")
	sb.WriteString("|---:|---|---|---:|---:|---:|---|\n")
	for _, rec := range report.Records {
		energy, position := "", ""
		if rec.GroundState != nil {
			energy = fmt.Sprintf("%g", rec.GroundState.Energy)
			position = fmt.Sprintf("%g", rec.GroundState.Position)
		}
		fmt.Fprintf(&sb, "| %d | `%s` | %s | %s | %s | %s | %s |\n",
			rec.Index+1,
			rec.RunID,
			rec.Status,
			energy,
			position,
			rec.Duration.Round(time.Millisecond),
			escapeCell(rec.Error),
		)
	}
	return sb.String()
}

// RenderHTML renders the Markdown summary into a standalone HTML page.
func RenderHTML(report *models.SweepReport) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(report)), &body); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>Sweep %s</title>\n", html.EscapeString(report.SweepID))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
