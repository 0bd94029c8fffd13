// Package viewer ties the graph pipeline together: one fetch, then a
// simulation whose every tick is rendered, with drag input feeding pins
// back into the layout.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lazypower/thoughtgraph/internal/fetch"
	"github.com/lazypower/thoughtgraph/internal/force"
	"github.com/lazypower/thoughtgraph/internal/graph"
	"github.com/lazypower/thoughtgraph/internal/interact"
	"github.com/lazypower/thoughtgraph/internal/metrics"
	"github.com/lazypower/thoughtgraph/internal/render"
	"go.uber.org/zap"
)

var (
	ErrMounted  = errors.New("view already mounted")
	ErrNotReady = errors.New("graph is not ready")
)

// Status is the lifecycle of a view.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusReady     Status = "ready"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
	StatusUnmounted Status = "unmounted"
)

// Options configure a view.
type Options struct {
	Params       force.Params
	TickInterval time.Duration
	DragAlpha    float64
	Policy       graph.Policy

	// Manual disables the background timer; the caller drives ticks with
	// Settle or Step.
	Manual bool

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// View is one mounted graph view.
type View struct {
	opts   Options
	loader *fetch.Loader
	logger *zap.Logger

	mu       sync.Mutex
	status   Status
	err      error
	arena    *graph.Arena
	dropped  []graph.DroppedLink
	sim      *force.Simulation
	renderer *render.Renderer
	drag     *interact.Handler
	timer    *force.Timer
	cancel   context.CancelFunc
}

// New creates an unmounted view fetching from src.
func New(src fetch.Source, opts Options) *View {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Params == (force.Params{}) {
		opts.Params = force.DefaultParams()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 16 * time.Millisecond
	}
	return &View{
		opts:   opts,
		loader: fetch.NewLoader(src, opts.Logger),
		logger: opts.Logger,
		status: StatusIdle,
	}
}

// Mount fetches the graph and, when it has nodes, starts the layout. A
// fetch or resolution failure leaves the view failed; it is not retried.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.status != StatusIdle {
		v.mu.Unlock()
		return ErrMounted
	}
	v.status = StatusLoading
	v.mu.Unlock()

	snap, err := v.loader.Load(ctx)
	if err != nil {
		v.countFetch("error")
		return v.fail(err)
	}
	v.countFetch("ok")

	if len(snap.Nodes) == 0 {
		v.mu.Lock()
		v.status = StatusEmpty
		v.mu.Unlock()
		v.logger.Info("graph is empty, layout not started")
		return nil
	}

	arena, dropped, err := graph.Resolve(snap, v.opts.Policy, v.logger)
	if err != nil {
		return v.fail(err)
	}

	sim := force.FromArena(arena, v.opts.Params)
	renderer := render.NewRenderer(arena, v.opts.Params.Width, v.opts.Params.Height)
	drag := interact.NewHandler(arena, sim, v.opts.DragAlpha, v.logger)
	renderer.Draw(sim.Snapshot())

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status != StatusLoading {
		// Unmounted while the fetch was in flight.
		return nil
	}
	v.arena = arena
	v.dropped = dropped
	v.sim = sim
	v.renderer = renderer
	v.drag = drag
	v.status = StatusReady

	if m := v.opts.Metrics; m != nil {
		m.Nodes.Set(float64(len(arena.Nodes)))
		m.Links.Set(float64(len(arena.Edges)))
		m.DroppedLinks.Add(float64(len(dropped)))
	}

	if !v.opts.Manual {
		tctx, cancel := context.WithCancel(context.Background())
		v.cancel = cancel
		v.timer = sim.Start(tctx, v.opts.TickInterval, v.onTick)
	}

	v.logger.Info("graph view mounted",
		zap.Int("nodes", len(arena.Nodes)),
		zap.Int("links", len(arena.Edges)),
		zap.Int("dropped", len(dropped)))
	return nil
}

func (v *View) fail(err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status == StatusLoading {
		v.status = StatusFailed
	}
	v.err = err
	return err
}

func (v *View) countFetch(outcome string) {
	if v.opts.Metrics != nil {
		v.opts.Metrics.Fetches.WithLabelValues(outcome).Inc()
	}
}

func (v *View) onTick(st force.State) {
	v.renderer.Draw(st)
	if m := v.opts.Metrics; m != nil {
		m.Ticks.Inc()
		m.Alpha.Set(st.Alpha)
	}
}

// Unmount stops the layout timer and waits for it to exit. The view cannot
// be mounted again; create a new one instead.
func (v *View) Unmount() {
	v.mu.Lock()
	timer, cancel := v.timer, v.cancel
	v.timer, v.cancel = nil, nil
	if v.status != StatusFailed {
		v.status = StatusUnmounted
	}
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if timer != nil {
		timer.Stop()
	}
}

// Step runs a single tick and renders it. It is for manual views.
func (v *View) Step() (render.Frame, error) {
	sim, renderer, err := v.ready()
	if err != nil {
		return render.Frame{}, err
	}
	var f render.Frame
	sim.Step(func(st force.State) {
		f = renderer.Draw(st)
		if m := v.opts.Metrics; m != nil {
			m.Ticks.Inc()
		}
	})
	return f, nil
}

// Settle ticks until the layout settles or maxTicks is reached and returns
// the number of ticks run.
func (v *View) Settle(maxTicks int) (int, error) {
	sim, _, err := v.ready()
	if err != nil {
		return 0, err
	}
	n := 0
	for n < maxTicks && !sim.Settled() {
		if _, err := v.Step(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (v *View) ready() (*force.Simulation, *render.Renderer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status != StatusReady {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotReady, v.status)
	}
	return v.sim, v.renderer, nil
}

// Status returns the view lifecycle state.
func (v *View) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Err returns the failure that put the view in StatusFailed.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Frame returns the most recently rendered frame.
func (v *View) Frame() (render.Frame, error) {
	_, renderer, err := v.ready()
	if err != nil {
		return render.Frame{}, err
	}
	return renderer.Latest(), nil
}

// WriteSVG writes the latest frame as SVG.
func (v *View) WriteSVG(w io.Writer) error {
	f, err := v.Frame()
	if err != nil {
		return err
	}
	return render.WriteSVG(w, f)
}

// Subscribe streams rendered frames until the returned cancel is called.
func (v *View) Subscribe() (<-chan render.Frame, func(), error) {
	_, renderer, err := v.ready()
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := renderer.Subscribe()
	return ch, cancel, nil
}

// Stats summarise the mounted graph.
type Stats struct {
	Status  Status  `json:"status"`
	Error   string  `json:"error,omitempty"`
	Nodes   int     `json:"nodes"`
	Links   int     `json:"links"`
	Dropped int     `json:"dropped_links"`
	Tick    int     `json:"tick"`
	Alpha   float64 `json:"alpha"`
	Settled bool    `json:"settled"`
	Dragged string  `json:"dragging,omitempty"`
}

func (v *View) Stats() Stats {
	v.mu.Lock()
	s := Stats{Status: v.status, Dropped: len(v.dropped)}
	if v.err != nil {
		s.Error = v.err.Error()
	}
	arena, sim, drag := v.arena, v.sim, v.drag
	v.mu.Unlock()

	if arena != nil {
		s.Nodes = len(arena.Nodes)
		s.Links = len(arena.Edges)
	}
	if sim != nil {
		s.Tick = sim.Ticks()
		s.Alpha = sim.Alpha()
		s.Settled = sim.Settled()
	}
	if drag != nil {
		s.Dragged, _ = drag.Active()
	}
	return s
}

// DragStart begins dragging a node.
func (v *View) DragStart(id string) error {
	return v.withDrag("start", func(h *interact.Handler) error { return h.Start(id) })
}

// DragMove moves the dragged node's pin.
func (v *View) DragMove(id string, x, y float64) error {
	return v.withDrag("move", func(h *interact.Handler) error { return h.Move(id, x, y) })
}

// DragEnd releases the dragged node.
func (v *View) DragEnd(id string) error {
	return v.withDrag("end", func(h *interact.Handler) error { return h.End(id) })
}

func (v *View) withDrag(phase string, fn func(*interact.Handler) error) error {
	v.mu.Lock()
	h, status := v.drag, v.status
	v.mu.Unlock()
	if status != StatusReady || h == nil {
		return fmt.Errorf("%w: %s", ErrNotReady, status)
	}
	if err := fn(h); err != nil {
		return err
	}
	if v.opts.Metrics != nil {
		v.opts.Metrics.Drags.WithLabelValues(phase).Inc()
	}
	return nil
}
