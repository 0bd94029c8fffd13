package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lazypower/thoughtgraph/internal/config"
	"github.com/lazypower/thoughtgraph/internal/force"
	"github.com/lazypower/thoughtgraph/internal/graph"
	"github.com/lazypower/thoughtgraph/internal/metrics"
	"github.com/lazypower/thoughtgraph/internal/store"
	"github.com/lazypower/thoughtgraph/internal/viewer"
)

// openDB opens the configured database, falling back to the default path.
func openDB(cfg config.Config) (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// viewOptions maps the layout config onto viewer options.
func viewOptions(cfg config.Config, logger *zap.Logger, m *metrics.Collector) (viewer.Options, error) {
	policy, err := graph.ParsePolicy(cfg.Layout.LinkPolicy)
	if err != nil {
		return viewer.Options{}, err
	}
	l := cfg.Layout
	return viewer.Options{
		Params: force.Params{
			Width:         l.Width,
			Height:        l.Height,
			LinkDistance:  l.LinkDistance,
			Charge:        l.Charge,
			CollideRadius: l.CollideRadius,
		},
		TickInterval: cfg.TickInterval(),
		DragAlpha:    l.DragAlpha,
		Policy:       policy,
		Logger:       logger,
		Metrics:      m,
	}, nil
}
