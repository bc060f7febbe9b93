package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wikiforge/wikiparse/pkg/batch"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#5C7A84")
)

var styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
	Label:   lipgloss.NewStyle().Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
}

// styled reports whether w is a terminal worth decorating.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderPretty colours the node labels of a wikitext.Pretty dump.
func renderPretty(dump string, color bool) string {
	if !color {
		return dump
	}
	lines := strings.Split(dump, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]
		label, rest := body, ""
		if j := strings.IndexByte(body, '('); j >= 0 {
			label, rest = body[:j], body[j:]
		}
		lines[i] = indent + styles.Label.Render(label) + styles.Muted.Render(rest)
	}
	return strings.Join(lines, "\n")
}

// writeResults prints one line per failed document and a summary box.
func writeResults(w io.Writer, results []batch.Result, color bool) batch.Summary {
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "%s %s: %v\n", render(styles.Warning, "skip"), r.Name, r.Err)
		case !r.RoundTrip:
			fmt.Fprintf(w, "%s %s: output differs at byte %d\n", render(styles.Error, "FAIL"), r.Name, r.FirstDiff)
		case r.DuplicateParams > 0:
			fmt.Fprintf(w, "%s %s: %d duplicate template parameters\n", render(styles.Warning, "warn"), r.Name, r.DuplicateParams)
		}
	}

	s := batch.Summarize(results)
	status := render(styles.Success, "all documents round-trip")
	switch {
	case s.Failed > 0:
		status = render(styles.Error, fmt.Sprintf("%d of %d documents failed", s.Failed, s.Documents))
	case s.LoadErrors > 0:
		status = render(styles.Warning, fmt.Sprintf("%d of %d documents could not be loaded", s.LoadErrors, s.Documents))
	}
	lines := []string{
		render(styles.Title, "wikiparse check"),
		status,
		fmt.Sprintf("documents %d  skipped %d  bytes %d", s.Documents, s.LoadErrors, s.Bytes),
		fmt.Sprintf("templates %d  links %d  headings %d  duplicates %d", s.Templates, s.Links, s.Headings, s.Duplicates),
	}
	summary := strings.Join(lines, "\n")
	if color {
		summary = styles.Box.Render(summary)
	}
	fmt.Fprintln(w, summary)
	return s
}
