package force

import (
	"math"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

// Params are the tunables of the standard graph layout.
type Params struct {
	Width         float64
	Height        float64
	LinkDistance  float64
	Charge        float64
	CollideRadius float64
}

// DefaultParams matches the 800x600 knowledge graph view.
func DefaultParams() Params {
	return Params{
		Width:         800,
		Height:        600,
		LinkDistance:  100,
		Charge:        -300,
		CollideRadius: 30,
	}
}

// CollisionRadius is the radius a node occupies for collision: the
// configured floor, or the marker radius when that is larger.
func (p Params) CollisionRadius(n graph.Node) float64 {
	return math.Max(p.CollideRadius, n.Radius())
}

// FromArena builds a simulation over the arena with the link, charge,
// center and collision forces registered.
func FromArena(a *graph.Arena, p Params) *Simulation {
	s := New(len(a.Nodes))
	s.AddForce("link", NewLinkForce(a.Edges, p.LinkDistance))
	s.AddForce("charge", NewManyBody(p.Charge))
	s.AddForce("center", NewCenter(p.Width/2, p.Height/2))
	s.AddForce("collision", NewCollide(func(i int) float64 {
		return p.CollisionRadius(a.Nodes[i])
	}))
	return s
}
