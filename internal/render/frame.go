// Package render turns simulation state into drawable frames.
package render

import (
	"github.com/lazypower/thoughtgraph/internal/force"
	"github.com/lazypower/thoughtgraph/internal/graph"
)

// LabelOffset is how far below its node a label is drawn.
const LabelOffset = 25.0

var palette = map[graph.Kind]string{
	graph.KindTopic:   "#8B5CF6",
	graph.KindThought: "#10B981",
	graph.KindQuote:   "#F59E0B",
	graph.KindPassage: "#3B82F6",
}

const fallbackColor = "#999999"

// Color returns the marker fill for a content kind.
func Color(k graph.Kind) string {
	if c, ok := palette[k]; ok {
		return c
	}
	return fallbackColor
}

// Line is a drawn link.
type Line struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"stroke_width"`
}

// Circle is a drawn node marker.
type Circle struct {
	ID     string  `json:"id"`
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	R      float64 `json:"r"`
	Fill   string  `json:"fill"`
	Title  string  `json:"title"`
	Pinned bool    `json:"pinned,omitempty"`
}

// Label is a drawn node caption.
type Label struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Frame is everything drawn for one tick.
type Frame struct {
	Tick    int      `json:"tick"`
	Alpha   float64  `json:"alpha"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Lines   []Line   `json:"lines"`
	Circles []Circle `json:"circles"`
	Labels  []Label  `json:"labels"`
}

// Build draws the arena at the positions in st. Link endpoints are read
// from the same position slice as the node markers, so they always agree.
func Build(a *graph.Arena, st force.State, width, height float64) Frame {
	f := Frame{
		Tick:    st.Tick,
		Alpha:   st.Alpha,
		Width:   width,
		Height:  height,
		Lines:   make([]Line, len(a.Edges)),
		Circles: make([]Circle, len(a.Nodes)),
		Labels:  make([]Label, len(a.Nodes)),
	}

	for i, e := range a.Edges {
		s, t := st.Positions[e.Source], st.Positions[e.Target]
		f.Lines[i] = Line{
			Source: a.Nodes[e.Source].ID,
			Target: a.Nodes[e.Target].ID,
			X1:     s.X,
			Y1:     s.Y,
			X2:     t.X,
			Y2:     t.Y,
			Width:  e.Link.StrokeWidth(),
		}
	}

	for i, n := range a.Nodes {
		p := st.Positions[i]
		f.Circles[i] = Circle{
			ID:    n.ID,
			CX:    p.X,
			CY:    p.Y,
			R:     n.Radius(),
			Fill:  Color(n.Type),
			Title: n.Tooltip(),
		}
		if i < len(st.Pinned) {
			f.Circles[i].Pinned = st.Pinned[i]
		}
		f.Labels[i] = Label{ID: n.ID, X: p.X, Y: p.Y + LabelOffset, Text: n.Label()}
	}
	return f
}
