package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

func TestTableAlignsColoredCells(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	Table(&buf, []string{"ID", "TYPE", "TITLE"}, [][]string{
		{"a", Kind(graph.KindTopic), "Ethics"},
		{"bbbb", Kind(graph.KindQuote), "Know thyself"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, visibleLen(lines[0]), len("  ID    TYPE   TITLE"))
	assert.Contains(t, lines[2], "\x1b[", "kind cell is colored")
	assert.Equal(t, strings.Index(stripped(lines[2]), "Ethics"), strings.Index(stripped(lines[3]), "Know"))
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"ID"}, nil)
	assert.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
}

func TestKindUnknown(t *testing.T) {
	assert.Equal(t, "Essay", Kind("Essay"))
}

func stripped(s string) string {
	var b strings.Builder
	esc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc:
			if r == 'm' {
				esc = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
