package render

import (
	"sync"

	"github.com/lazypower/thoughtgraph/internal/force"
	"github.com/lazypower/thoughtgraph/internal/graph"
)

// Renderer redraws the arena on every simulation tick and keeps the most
// recent frame for readers.
type Renderer struct {
	arena  *graph.Arena
	width  float64
	height float64

	mu     sync.RWMutex
	latest Frame
	subs   map[int]chan Frame
	nextID int
}

// NewRenderer creates a renderer for a view of the given size.
func NewRenderer(a *graph.Arena, width, height float64) *Renderer {
	return &Renderer{
		arena:  a,
		width:  width,
		height: height,
		subs:   make(map[int]chan Frame),
	}
}

// Draw builds the frame for st, stores it and fans it out to subscribers.
// It is meant to be the simulation's tick callback. Slow subscribers miss
// frames rather than stall the tick.
func (r *Renderer) Draw(st force.State) Frame {
	f := Build(r.arena, st, r.width, r.height)

	r.mu.Lock()
	r.latest = f
	for _, ch := range r.subs {
		select {
		case ch <- f:
		default:
		}
	}
	r.mu.Unlock()
	return f
}

// Latest returns the last drawn frame.
func (r *Renderer) Latest() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Subscribe returns a channel receiving frames as they are drawn and a
// function that unsubscribes and closes it.
func (r *Renderer) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}
