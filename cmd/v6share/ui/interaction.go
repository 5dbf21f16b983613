package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoColor = "NO_COLOR"
	envTerm    = "TERM"
)

// ConfigureColor picks the color profile for stdout. Colors are dropped when
// plain is set, NO_COLOR is set, TERM is dumb or stdout is not a terminal.
func ConfigureColor(plain bool) {
	if plain || !colorWanted() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).ColorProfile())
}

func colorWanted() bool {
	if _, ok := os.LookupEnv(envNoColor); ok {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
