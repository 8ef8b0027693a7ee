// Package report renders a verification result and maps it to the process
// exit status.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/storydod/internal/dod"
)

const (
	ExitOK     = 0
	ExitFailed = 1
)

// Write prints the result and returns the exit status. A clean run writes a
// single OK line to stdout; violations go to stderr, every one of them, in
// discovery order.
func Write(stdout, stderr io.Writer, result *dod.Result) int {
	if result.IsValid() {
		ok := lipgloss.NewRenderer(stdout).NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
		fmt.Fprintf(stdout, "%s verified %d done stories from %s\n", ok.Render("OK:"), len(result.Checked), result.StatusPath)
		return ExitOK
	}

	renderer := lipgloss.NewRenderer(stderr)
	banner := renderer.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	summary := renderer.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))

	fmt.Fprintln(stderr, banner.Render("Story DoD verification failed:"))
	fmt.Fprintln(stderr)
	for _, violation := range result.Violations {
		fmt.Fprintf(stderr, "- %s\n", violation)
	}
	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, summary.Render(fmt.Sprintf("Checked %d done stories from %s", len(result.Checked), result.StatusPath)))
	return ExitFailed
}
