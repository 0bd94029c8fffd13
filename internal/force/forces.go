package force

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

// LinkForce pulls linked bodies toward a target separation.
type LinkForce struct {
	edges    []graph.Edge
	distance float64

	bodies    []Body
	random    func() float64
	strengths []float64
	bias      []float64
}

// NewLinkForce creates a spring force over arena edges.
func NewLinkForce(edges []graph.Edge, distance float64) *LinkForce {
	return &LinkForce{edges: edges, distance: distance}
}

func (f *LinkForce) Initialize(bodies []Body, random func() float64) {
	f.bodies = bodies
	f.random = random

	count := make([]int, len(bodies))
	for _, e := range f.edges {
		count[e.Source]++
		count[e.Target]++
	}

	f.strengths = make([]float64, len(f.edges))
	f.bias = make([]float64, len(f.edges))
	for i, e := range f.edges {
		cs, ct := float64(count[e.Source]), float64(count[e.Target])
		f.bias[i] = cs / (cs + ct)
		f.strengths[i] = 1 / math.Min(cs, ct)
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for i, e := range f.edges {
		src, tgt := &f.bodies[e.Source], &f.bodies[e.Target]

		d := jiggleZero(r2.Sub(next(tgt), next(src)), f.random)
		l := r2.Norm(d)
		d = r2.Scale((l-f.distance)/l*alpha*f.strengths[i], d)

		b := f.bias[i]
		tgt.Vel = r2.Sub(tgt.Vel, r2.Scale(b, d))
		src.Vel = r2.Add(src.Vel, r2.Scale(1-b, d))
	}
}

// ManyBody applies pairwise charge between every pair of bodies. A
// negative strength repels. The computation is exact; node counts in a
// personal knowledge base stay small enough that O(n²) is fine.
type ManyBody struct {
	strength     float64
	distanceMin2 float64

	bodies []Body
	random func() float64
}

func NewManyBody(strength float64) *ManyBody {
	return &ManyBody{strength: strength, distanceMin2: 1}
}

func (f *ManyBody) Initialize(bodies []Body, random func() float64) {
	f.bodies = bodies
	f.random = random
}

func (f *ManyBody) Apply(alpha float64) {
	for i := range f.bodies {
		bi := &f.bodies[i]
		for j := range f.bodies {
			if i == j {
				continue
			}
			bj := &f.bodies[j]

			d := jiggleZero(r2.Sub(bj.Pos, bi.Pos), f.random)
			l := r2.Norm2(d)
			if l < f.distanceMin2 {
				l = math.Sqrt(f.distanceMin2 * l)
			}
			bi.Vel = r2.Add(bi.Vel, r2.Scale(f.strength*alpha/l, d))
		}
	}
}

// Center translates all bodies so their mean position sits on (X, Y).
type Center struct {
	X, Y     float64
	strength float64

	bodies []Body
}

func NewCenter(x, y float64) *Center {
	return &Center{X: x, Y: y, strength: 1}
}

func (f *Center) Initialize(bodies []Body, _ func() float64) {
	f.bodies = bodies
}

func (f *Center) Apply(_ float64) {
	n := len(f.bodies)
	if n == 0 {
		return
	}
	var sum r2.Vec
	for i := range f.bodies {
		sum = r2.Add(sum, f.bodies[i].Pos)
	}
	mean := r2.Scale(1/float64(n), sum)
	shift := r2.Scale(f.strength, r2.Sub(mean, r2.Vec{X: f.X, Y: f.Y}))
	for i := range f.bodies {
		f.bodies[i].Pos = r2.Sub(f.bodies[i].Pos, shift)
	}
}

// Collide pushes apart bodies whose circles overlap, treating each body as
// a circle of the radius returned by radius(i).
type Collide struct {
	radius     func(i int) float64
	strength   float64
	iterations int

	bodies []Body
	radii  []float64
	random func() float64
}

func NewCollide(radius func(i int) float64) *Collide {
	return &Collide{radius: radius, strength: 1, iterations: 1}
}

func (f *Collide) Initialize(bodies []Body, random func() float64) {
	f.bodies = bodies
	f.random = random
	f.radii = make([]float64, len(bodies))
	for i := range bodies {
		f.radii[i] = f.radius(i)
	}
}

// Radius returns the collision radius of body i.
func (f *Collide) Radius(i int) float64 { return f.radii[i] }

func (f *Collide) Apply(_ float64) {
	for k := 0; k < f.iterations; k++ {
		for i := range f.bodies {
			node := &f.bodies[i]
			ri := f.radii[i]
			ri2 := ri * ri
			pi := next(node)

			for j := i + 1; j < len(f.bodies); j++ {
				other := &f.bodies[j]
				rj := f.radii[j]
				r := ri + rj

				d := r2.Sub(pi, next(other))
				if r2.Norm2(d) >= r*r {
					continue
				}
				d = jiggleZero(d, f.random)
				l := r2.Norm(d)
				d = r2.Scale((r-l)/l*f.strength, d)

				rj2 := rj * rj
				w := rj2 / (ri2 + rj2)
				node.Vel = r2.Add(node.Vel, r2.Scale(w, d))
				other.Vel = r2.Sub(other.Vel, r2.Scale(1-w, d))
			}
		}
	}
}

// next is where b will be after its current velocity is applied.
func next(b *Body) r2.Vec { return r2.Add(b.Pos, b.Vel) }

// jiggleZero replaces exact zero components with a tiny random offset so
// coincident bodies still get a direction.
func jiggleZero(d r2.Vec, random func() float64) r2.Vec {
	if d.X == 0 {
		d.X = jiggle(random)
	}
	if d.Y == 0 {
		d.Y = jiggle(random)
	}
	return d
}
