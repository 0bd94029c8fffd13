// Package interact implements drag-to-pin for graph nodes.
package interact

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lazypower/thoughtgraph/internal/graph"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrDragActive  = errors.New("another node is being dragged")
	ErrNotDragging = errors.New("node is not being dragged")
)

// DragState is the interaction state of one node.
type DragState int

const (
	Free DragState = iota
	Dragging
	Released
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Released:
		return "released"
	}
	return "free"
}

// Pinner is the part of the simulation a drag needs.
type Pinner interface {
	Position(i int) r2.Vec
	Pin(i int, x, y float64)
	Unpin(i int)
	Reheat(target float64)
	Cool()
}

// DefaultAlphaTarget is the energy the layout is held at while dragging.
const DefaultAlphaTarget = 0.3

// Handler tracks drags over one arena. Only one node can be dragged at a
// time. Simulation pins change under the handler lock, so the pin state
// always agrees with the active drag.
type Handler struct {
	arena       *graph.Arena
	sim         Pinner
	alphaTarget float64
	logger      *zap.Logger
	onChange    func(id string, s DragState)

	mu     sync.Mutex
	states map[int]DragState
	active int
}

// NewHandler creates a drag handler. alphaTarget <= 0 uses
// DefaultAlphaTarget.
func NewHandler(a *graph.Arena, sim Pinner, alphaTarget float64, logger *zap.Logger) *Handler {
	if alphaTarget <= 0 {
		alphaTarget = DefaultAlphaTarget
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		arena:       a,
		sim:         sim,
		alphaTarget: alphaTarget,
		logger:      logger,
		states:      make(map[int]DragState),
		active:      -1,
	}
}

// OnChange registers a callback fired after every state transition.
func (h *Handler) OnChange(fn func(id string, s DragState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

func (h *Handler) index(id string) (int, error) {
	i, ok := h.arena.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return i, nil
}

// Start pins the node where it currently is and reheats the layout.
func (h *Handler) Start(id string) error {
	i, err := h.index(id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.active >= 0 && h.active != i {
		h.mu.Unlock()
		return ErrDragActive
	}
	if h.active < 0 {
		h.sim.Reheat(h.alphaTarget)
	}
	h.active = i
	h.states[i] = Dragging
	p := h.sim.Position(i)
	h.sim.Pin(i, p.X, p.Y)
	cb := h.onChange
	h.mu.Unlock()

	h.logger.Debug("drag start", zap.String("node", id), zap.Float64("x", p.X), zap.Float64("y", p.Y))
	if cb != nil {
		cb(id, Dragging)
	}
	return nil
}

// Move updates the pin to the pointer position.
func (h *Handler) Move(id string, x, y float64) error {
	i, err := h.index(id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != i {
		return fmt.Errorf("%w: %q", ErrNotDragging, id)
	}
	h.sim.Pin(i, x, y)
	return nil
}

// End releases the pin and lets the layout cool down.
func (h *Handler) End(id string) error {
	i, err := h.index(id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.active != i {
		h.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotDragging, id)
	}
	h.active = -1
	h.states[i] = Released
	h.sim.Cool()
	h.sim.Unpin(i)
	cb := h.onChange
	h.mu.Unlock()

	h.logger.Debug("drag end", zap.String("node", id))
	if cb != nil {
		cb(id, Released)
	}
	return nil
}

// State returns the drag state of a node.
func (h *Handler) State(id string) (DragState, error) {
	i, err := h.index(id)
	if err != nil {
		return Free, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.states[i], nil
}

// Active returns the id of the node being dragged, if any.
func (h *Handler) Active() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active < 0 {
		return "", false
	}
	return h.arena.Nodes[h.active].ID, true
}
