// Package ui formats command output for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

var (
	Brand  = color.New(color.FgHiMagenta, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Good   = color.New(color.FgGreen)
	Warn   = color.New(color.FgYellow)
	Bad    = color.New(color.FgRed)
)

// kindColors mirrors the graph palette in terminal colors.
var kindColors = map[graph.Kind]*color.Color{
	graph.KindTopic:   color.New(color.FgMagenta),
	graph.KindThought: color.New(color.FgGreen),
	graph.KindQuote:   color.New(color.FgYellow),
	graph.KindPassage: color.New(color.FgBlue),
}

// Kind renders a content kind in its palette color.
func Kind(k graph.Kind) string {
	if c, ok := kindColors[k]; ok {
		return c.Sprint(string(k))
	}
	return string(k)
}

// Table writes an aligned table. Widths are measured on the plain text so
// colored cells still line up.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	header, sep := "  ", "  "
	for i, h := range headers {
		header += pad(h, widths[i]) + "  "
		sep += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(header, " "))
	Subtle.Fprintln(w, strings.TrimRight(sep, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += pad(cell, widths[i]) + "  "
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 1 {
		return s
	}
	return string(r[:n-1]) + "…"
}

// StatusIcon returns a check or a cross.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

func pad(s string, width int) string {
	if n := visibleLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// visibleLen counts runes outside ANSI escape sequences.
func visibleLen(s string) int {
	n, esc := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc:
			if r == 'm' {
				esc = false
			}
		default:
			n++
		}
	}
	return n
}
