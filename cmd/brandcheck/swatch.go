package main

import (
	"fmt"
	"io"
	"os"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"

	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// swatch renders a block of 24-bit background color
func swatch(c palette.RGB) string {
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm    \x1b[0m", c.R, c.G, c.B)
}

func printMatches(w io.Writer, title string, matches []matcher.ColorMatch) {
	fmt.Fprintf(w, "\n%s\n", title)
	for _, m := range matches {
		status := "not found"
		if m.Found {
			status = "FOUND"
		}
		fmt.Fprintf(w, "  %s %-20s %s %7.2f%%  %s\n", swatch(m.RGB), m.Name, m.Hex, m.Percentage, status)
	}
}

func printUnexpected(w io.Writer, colors []matcher.ColorCount) {
	if len(colors) == 0 {
		return
	}
	fmt.Fprintln(w, "\nUnexpected")
	for _, c := range colors {
		fmt.Fprintf(w, "  %s %s %7.2f%%\n", swatch(c.RGB), c.Hex, c.Percentage)
	}
}

func printExtracted(w io.Writer, colors []analyzer.ExtractedColor) {
	fmt.Fprintln(w, "\nDominant colors")
	for i, c := range colors {
		fmt.Fprintf(w, "  %d. %s %s %-16s %6.2f%%\n", i+1, swatch(c.RGB), c.Hex, c.Name, c.Percentage)
	}
}
