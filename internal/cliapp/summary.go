package cliapp

import (
	"distiller/internal/core/pipeline"
	"distiller/internal/engine/model"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// renderSummary formats batch counts for stderr.
func renderSummary(sum pipeline.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Distillation summary"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "  files:     %d\n", sum.Files)
	fmt.Fprintf(&b, "  outputs:   %s\n", successStyle.Render(fmt.Sprint(sum.Distilled)))
	if sum.SyntaxErrors > 0 {
		fmt.Fprintf(&b, "  syntax:    %s\n", errorStyle.Render(fmt.Sprint(sum.SyntaxErrors)))
	}
	if sum.Unsupported > 0 {
		fmt.Fprintf(&b, "  skipped:   %s\n", warningStyle.Render(fmt.Sprint(sum.Unsupported)))
	}
	if sum.Failed > 0 {
		fmt.Fprintf(&b, "  failed:    %s\n", errorStyle.Render(fmt.Sprint(sum.Failed)))
	}
	if sum.Aborted > 0 {
		fmt.Fprintf(&b, "  aborted:   %s\n", warningStyle.Render(fmt.Sprint(sum.Aborted)))
	}
	fmt.Fprintf(&b, "  imports removed:     %d (%d orphaned)\n", sum.ImportsRemoved, sum.ImportsOrphaned)
	fmt.Fprintf(&b, "  declarations pruned: %d\n", sum.DeclarationsPruned)

	if len(sum.Diagnostics) > 0 {
		codes := make([]string, 0, len(sum.Diagnostics))
		for code := range sum.Diagnostics {
			codes = append(codes, string(code))
		}
		sort.Strings(codes)
		b.WriteString("  diagnostics:\n")
		for _, code := range codes {
			fmt.Fprintf(&b, "    %-26s %d\n", code, sum.Diagnostics[model.DiagnosticCode(code)])
		}
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("run %s in %s", sum.RunID, sum.Duration.Round(time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}

// printDiagnostics writes warnings and errors, and info diagnostics when
// verbose is set.
func printDiagnostics(w io.Writer, diags []model.Diagnostic, verbose bool) {
	for _, d := range diags {
		switch d.Severity {
		case model.SeverityError:
			fmt.Fprintln(w, errorStyle.Render("error")+" "+d.String())
		case model.SeverityWarning:
			fmt.Fprintln(w, warningStyle.Render("warning")+" "+d.String())
		default:
			if verbose {
				fmt.Fprintln(w, statusStyle.Render("info")+" "+d.String())
			}
		}
	}
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Distilling"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
