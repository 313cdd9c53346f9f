package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the rentbot banner and the served markets.
func PrintBanner(w io.Writer, version string, markets []string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"                  _   _           _   ", "#34d399"},
		{"  _ __ ___ _ __ | |_| |__   ___ | |_ ", "#2dd4bf"},
		{" | '__/ _ \\ '_ \\| __| '_ \\ / _ \\| __|", "#22d3ee"},
		{" | | |  __/ | | | |_| |_) | (_) | |_ ", "#38bdf8"},
		{" |_|  \\___|_| |_|\\__|_.__/ \\___/ \\__|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)

	meta := fmt.Sprintf(" v%s", version)
	if len(markets) > 0 {
		meta += " · serving " + joinMarkets(markets)
	}
	fmt.Fprintln(w, out.String(meta).Faint())
	fmt.Fprintln(w)
}

func joinMarkets(m []string) string {
	switch len(m) {
	case 0:
		return ""
	case 1:
		return m[0]
	}
	s := m[0]
	for _, name := range m[1 : len(m)-1] {
		s += ", " + name
	}
	return s + " and " + m[len(m)-1]
}
