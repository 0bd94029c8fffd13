// Package force lays out graph nodes with a velocity Verlet style physical
// simulation: link springs, many-body repulsion, centering and collision.
package force

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	initialRadius = 10.0

	defaultAlphaMin      = 0.001
	defaultVelocityDecay = 0.4
)

var (
	initialAngle      = math.Pi * (3 - math.Sqrt(5))
	defaultAlphaDecay = 1 - math.Pow(defaultAlphaMin, 1.0/300)
)

// Body is the simulated state of one node. A non-nil FX or FY pins that
// axis: the position is held at the pin and velocity is zeroed each tick.
type Body struct {
	Index int
	Pos   r2.Vec
	Vel   r2.Vec
	FX    *float64
	FY    *float64
}

// Pinned reports whether either axis is pinned.
func (b *Body) Pinned() bool { return b.FX != nil || b.FY != nil }

// Force contributes velocity (or, for centering, position) changes on
// every tick. Initialize is called once when the force is registered.
type Force interface {
	Initialize(bodies []Body, random func() float64)
	Apply(alpha float64)
}

type namedForce struct {
	name  string
	force Force
}

// Simulation runs discrete ticks over a fixed set of bodies. All methods
// are safe for concurrent use; a tick holds the lock for its duration so
// pin updates land between ticks, never inside one.
type Simulation struct {
	mu sync.Mutex

	bodies []Body
	forces []namedForce

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	ticks  int
	random func() float64
	wake   chan struct{}
}

// New creates a simulation of n bodies placed on a phyllotaxis spiral
// around the origin.
func New(n int) *Simulation {
	s := &Simulation{
		bodies:        make([]Body, n),
		alpha:         1,
		alphaMin:      defaultAlphaMin,
		alphaDecay:    defaultAlphaDecay,
		velocityDecay: 1 - defaultVelocityDecay,
		random:        lcg(),
		wake:          make(chan struct{}, 1),
	}
	for i := range s.bodies {
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		s.bodies[i] = Body{
			Index: i,
			Pos:   r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)},
		}
	}
	return s
}

// AddForce registers a named force, replacing any force with that name.
func (s *Simulation) AddForce(name string, f Force) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.Initialize(s.bodies, s.random)
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			return
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
}

// Tick advances the simulation one step.
func (s *Simulation) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
}

// Step advances one tick and hands the resulting state to observe before
// any other caller can mutate it.
func (s *Simulation) Step(observe func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
	if observe != nil {
		observe(s.state())
	}
}

func (s *Simulation) tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, f := range s.forces {
		f.force.Apply(s.alpha)
	}

	for i := range s.bodies {
		b := &s.bodies[i]
		if !b.Pinned() {
			b.Vel = r2.Scale(s.velocityDecay, b.Vel)
			b.Pos = r2.Add(b.Pos, b.Vel)
			continue
		}
		if b.FX == nil {
			b.Vel.X *= s.velocityDecay
			b.Pos.X += b.Vel.X
		} else {
			b.Pos.X = *b.FX
			b.Vel.X = 0
		}
		if b.FY == nil {
			b.Vel.Y *= s.velocityDecay
			b.Pos.Y += b.Vel.Y
		} else {
			b.Pos.Y = *b.FY
			b.Vel.Y = 0
		}
	}
	s.ticks++
}

// State is a copy of the simulation at one instant.
type State struct {
	Tick      int
	Alpha     float64
	Positions []r2.Vec
	Pinned    []bool
}

func (s *Simulation) state() State {
	pos := make([]r2.Vec, len(s.bodies))
	pinned := make([]bool, len(s.bodies))
	for i := range s.bodies {
		pos[i] = s.bodies[i].Pos
		pinned[i] = s.bodies[i].Pinned()
	}
	return State{Tick: s.ticks, Alpha: s.alpha, Positions: pos, Pinned: pinned}
}

// Snapshot copies the current state.
func (s *Simulation) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.bodies) }

// Position returns the current position of body i.
func (s *Simulation) Position(i int) r2.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[i].Pos
}

// SetPosition moves body i and clears its velocity.
func (s *Simulation) SetPosition(i int, p r2.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[i].Pos = p
	s.bodies[i].Vel = r2.Vec{}
}

// Pin fixes body i at (x, y) from the next tick on.
func (s *Simulation) Pin(i int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[i].FX = &x
	s.bodies[i].FY = &y
}

// Unpin releases both axes of body i.
func (s *Simulation) Unpin(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[i].FX = nil
	s.bodies[i].FY = nil
}

// Pinned reports whether body i has a pin.
func (s *Simulation) Pinned(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[i].Pinned()
}

func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// SetAlpha overrides the current energy.
func (s *Simulation) SetAlpha(a float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = a
}

func (s *Simulation) AlphaTarget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphaTarget
}

// SetAlphaTarget sets the energy level alpha decays toward.
func (s *Simulation) SetAlphaTarget(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTarget = t
}

// Ticks returns how many ticks have run.
func (s *Simulation) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Settled reports whether alpha has dropped below the minimum and nothing
// is holding it up.
func (s *Simulation) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled()
}

func (s *Simulation) settled() bool {
	return s.alpha < s.alphaMin && s.alphaTarget < s.alphaMin
}

// Reheat raises the alpha target and wakes an idle timer.
func (s *Simulation) Reheat(target float64) {
	s.SetAlphaTarget(target)
	s.Restart()
}

// Cool lets alpha decay back toward zero.
func (s *Simulation) Cool() {
	s.SetAlphaTarget(0)
}

// Restart wakes a timer that went idle after the layout settled.
func (s *Simulation) Restart() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run ticks synchronously until the simulation settles or maxTicks is
// reached, returning the number of ticks run.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for n < maxTicks && !s.Settled() {
		s.Tick()
		n++
	}
	return n
}

// lcg is a linear congruential generator used for jiggle so layouts are
// reproducible across runs.
func lcg() func() float64 {
	const (
		a = 1664525
		c = 1013904223
		m = 4294967296
	)
	var state uint64 = 1
	return func() float64 {
		state = (a*state + c) % m
		return float64(state) / m
	}
}

func jiggle(random func() float64) float64 {
	return (random() - 0.5) * 1e-6
}
