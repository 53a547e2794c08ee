// Package render prints drafted emails for the operator.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spigell/cold-mailer/internal/pipeline"
)

var (
	draftStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	failedStyle = draftStyle.
			BorderForeground(lipgloss.Color("196"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Drafts writes every draft of res followed by the jobs that failed. Plain
// output has no colors or borders and is meant for piping.
func Drafts(w io.Writer, res *pipeline.Result, plain bool) error {
	if res == nil {
		return nil
	}

	if len(res.Drafts) == 0 && len(res.Failed) == 0 {
		_, err := fmt.Fprintf(w, "No job postings found on %s\n", res.URL)
		return err
	}

	for i, d := range res.Drafts {
		var block string
		if plain {
			block = plainDraft(i, d)
		} else {
			block = styledDraft(i, d)
		}
		if _, err := fmt.Fprintln(w, block); err != nil {
			return err
		}
	}

	for _, f := range res.Failed {
		line := fmt.Sprintf("Failed to draft an email for %s: %v", roleOrUnknown(f.Job.Role), f.Err)
		if !plain {
			line = failedStyle.Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

func plainDraft(i int, d pipeline.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Job %d: %s ===\n", i+1, roleOrUnknown(d.Job.Role))
	if d.Job.Experience != "" {
		fmt.Fprintf(&b, "Experience: %s\n", d.Job.Experience)
	}
	fmt.Fprintf(&b, "Portfolio: %s\n\n", linksOrNone(d.Links))
	b.WriteString(strings.TrimSpace(d.Email))
	b.WriteString("\n")
	return b.String()
}

func styledDraft(i int, d pipeline.Draft) string {
	header := titleStyle.Render(fmt.Sprintf("Job %d: %s", i+1, roleOrUnknown(d.Job.Role)))

	meta := []string{labelStyle.Render("Portfolio: " + linksOrNone(d.Links))}
	if d.Job.Experience != "" {
		meta = append([]string{labelStyle.Render("Experience: " + d.Job.Experience)}, meta...)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Join(meta, "\n"),
		"",
		strings.TrimSpace(d.Email),
	)

	return draftStyle.Render(body)
}

func roleOrUnknown(role string) string {
	if strings.TrimSpace(role) == "" {
		return "unnamed role"
	}
	return role
}

func linksOrNone(links []string) string {
	if len(links) == 0 {
		return "none"
	}
	return strings.Join(links, ", ")
}
