package force

import (
	"context"
	"sync"
	"time"
)

// Timer drives a simulation from a single goroutine. Each tick, including
// its observer callback, completes before the next one starts. Once the
// layout settles the timer idles until Restart is called.
type Timer struct {
	sim  *Simulation
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Start begins ticking every interval, calling onTick with the state after
// each tick. The timer runs until Stop is called or ctx is cancelled.
func (s *Simulation) Start(ctx context.Context, interval time.Duration, onTick func(State)) *Timer {
	t := &Timer{
		sim:  s,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.loop(ctx, interval, onTick)
	return t
}

func (t *Timer) loop(ctx context.Context, interval time.Duration, onTick func(State)) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
		}

		if t.sim.Settled() {
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-t.sim.wake:
				continue
			}
		}
		t.sim.Step(onTick)
	}
}

// Stop halts the timer and waits for the tick goroutine to exit. It is
// safe to call more than once.
func (t *Timer) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}

// Done is closed once the tick goroutine has exited.
func (t *Timer) Done() <-chan struct{} { return t.done }
