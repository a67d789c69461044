package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4A90E2"))

	goldenStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7DC6F"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

func render(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

func printTitle(w io.Writer, text string) {
	fmt.Fprintln(w, render(titleStyle, text))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, render(successStyle, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, render(errorStyle, "✗ "+fmt.Sprintf(format, args...)))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", render(labelStyle, label+":"), fmt.Sprintf(format, args...))
}

func printBox(w io.Writer, text string) {
	fmt.Fprintln(w, render(boxStyle, text))
}
