package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the psy banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"  _ __  ___ _   _ ", "#818cf8"},
		{" | '_ \\/ __| | | |", "#a78bfa"},
		{" | |_) \\__ \\ |_| |", "#c084fc"},
		{" | .__/|___/\\__, |", "#e879f9"},
		{" |_|         |___/ ", "#f472b6"},
	}

	fmt.Fprintln(out)
	for _, l := range lines {
		fmt.Fprintln(out, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(out, out.String("  membrane simulator "+version).Faint())
	fmt.Fprintln(out)
}
