package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lazypower/thoughtgraph/internal/force"
	"github.com/lazypower/thoughtgraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func testArena(t *testing.T) *graph.Arena {
	t.Helper()
	w := 4.0
	snap := &graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "t", Title: "Attention", Type: graph.KindTopic, Tags: []string{"focus"}},
			{ID: "q", Title: `"Less" & <more>`, Type: graph.KindQuote},
			{ID: "p", Type: graph.KindPassage},
		},
		Links: []graph.Link{
			{Source: "q", Target: "t", Value: &w},
			{Source: "p", Target: "t"},
		},
	}
	a, _, err := graph.Resolve(snap, graph.FailFast, nil)
	require.NoError(t, err)
	return a
}

func TestBuildLinkEndpointsFollowNodes(t *testing.T) {
	a := testArena(t)
	sim := force.FromArena(a, force.DefaultParams())

	for tick := 0; tick < 25; tick++ {
		var f Frame
		sim.Step(func(st force.State) { f = Build(a, st, 800, 600) })

		byID := map[string]Circle{}
		for _, c := range f.Circles {
			byID[c.ID] = c
		}
		for _, l := range f.Lines {
			s, tg := byID[l.Source], byID[l.Target]
			assert.Equal(t, s.CX, l.X1)
			assert.Equal(t, s.CY, l.Y1)
			assert.Equal(t, tg.CX, l.X2)
			assert.Equal(t, tg.CY, l.Y2)
		}
		for i, lb := range f.Labels {
			assert.Equal(t, f.Circles[i].CX, lb.X)
			assert.Equal(t, f.Circles[i].CY+LabelOffset, lb.Y)
		}
	}
}

func TestBuildStyling(t *testing.T) {
	a := testArena(t)
	st := force.State{
		Tick:      3,
		Alpha:     0.5,
		Positions: []r2.Vec{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}},
		Pinned:    []bool{false, true, false},
	}
	f := Build(a, st, 800, 600)

	assert.Equal(t, 3, f.Tick)
	assert.Equal(t, "#8B5CF6", f.Circles[0].Fill)
	assert.Equal(t, "#F59E0B", f.Circles[1].Fill)
	assert.Equal(t, "#3B82F6", f.Circles[2].Fill)
	assert.True(t, f.Circles[1].Pinned)
	assert.Equal(t, "Topic: Attention\nTags: focus", f.Circles[0].Title)
	assert.Equal(t, "p", f.Labels[2].Text)
	assert.InDelta(t, 2.0, f.Lines[0].Width, 1e-9)
	assert.InDelta(t, 1.0, f.Lines[1].Width, 1e-9)
}

func TestColorFallback(t *testing.T) {
	assert.Equal(t, "#10B981", Color(graph.KindThought))
	assert.Equal(t, "#999999", Color(graph.Kind("Poem")))
}

func TestWriteSVG(t *testing.T) {
	a := testArena(t)
	st := force.State{Positions: []r2.Vec{{X: 100, Y: 100}, {X: 200, Y: 150}, {X: 300, Y: 120}}}
	f := Build(a, st, 800, 600)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, f))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="800.00" height="600.00"`))
	assert.Equal(t, 2, strings.Count(out, "<line "))
	assert.Equal(t, 3, strings.Count(out, "<circle "))
	assert.Equal(t, 3, strings.Count(out, "<text "))
	assert.Contains(t, out, `<line x1="200.00" y1="150.00" x2="100.00" y2="100.00" stroke-width="2.00">`)
	assert.Contains(t, out, "&#34;Less&#34; &amp; &lt;more&gt;")
	assert.NotContains(t, out, "<more>")
}

func TestRendererFanOut(t *testing.T) {
	a := testArena(t)
	r := NewRenderer(a, 800, 600)

	ch, unsubscribe := r.Subscribe()
	st := force.State{Tick: 1, Positions: []r2.Vec{{}, {}, {}}}
	r.Draw(st)

	f := <-ch
	assert.Equal(t, 1, f.Tick)
	assert.Equal(t, 1, r.Latest().Tick)

	// A full subscriber channel must not block drawing.
	r.Draw(force.State{Tick: 2, Positions: []r2.Vec{{}, {}, {}}})
	r.Draw(force.State{Tick: 3, Positions: []r2.Vec{{}, {}, {}}})
	assert.Equal(t, 3, r.Latest().Tick)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	if open {
		_, open = <-ch
	}
	assert.False(t, open)
}
