package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/lazypower/thoughtgraph/internal/graph"
	"go.uber.org/zap"
)

// State is the lifecycle of a single graph load.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Source produces a graph snapshot. *Client satisfies it.
type Source interface {
	FetchGraph(ctx context.Context) (*graph.Snapshot, error)
}

// Loader performs one fetch and remembers the outcome. A failed load is
// terminal: later calls return the same error without touching the network.
type Loader struct {
	src    Source
	logger *zap.Logger

	mu    sync.Mutex
	state State
	snap  *graph.Snapshot
	err   error
	done  chan struct{}
}

// NewLoader creates a loader over src.
func NewLoader(src Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{src: src, logger: logger, done: make(chan struct{})}
}

// Load fetches the snapshot on the first call. Concurrent callers wait for
// that fetch; callers after completion get the stored result.
func (l *Loader) Load(ctx context.Context) (*graph.Snapshot, error) {
	l.mu.Lock()
	if l.state != Idle {
		l.mu.Unlock()
		select {
		case <-l.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.snap, l.err
	}
	l.state = Loading
	l.mu.Unlock()

	snap, err := l.src.FetchGraph(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = Failed
		l.err = fmt.Errorf("load graph data: %w", err)
		l.logger.Error("graph fetch failed", zap.Error(err))
	} else {
		l.state = Ready
		l.snap = snap
		l.logger.Info("graph fetched",
			zap.Int("nodes", len(snap.Nodes)),
			zap.Int("links", len(snap.Links)))
	}
	close(l.done)
	return l.snap, l.err
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Snapshot returns the loaded snapshot, or nil before a successful load.
func (l *Loader) Snapshot() *graph.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
