package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// IsTTY returns true when stdout is a terminal
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func render(style lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return style.Render(s)
}

// Success renders a success label
func Success(s string) string {
	return render(successStyle, s)
}

// Fallback renders a fallback-path label
func Fallback(s string) string {
	return render(fallbackStyle, s)
}

// Failure renders a failure label
func Failure(s string) string {
	return render(failureStyle, s)
}

// Dim renders secondary detail
func Dim(s string) string {
	return render(dimStyle, s)
}
