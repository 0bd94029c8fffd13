package graph

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Policy decides what Resolve does with a link whose endpoint is absent.
type Policy int

const (
	// DropDangling discards the link and logs a warning.
	DropDangling Policy = iota
	// FailFast rejects the whole snapshot.
	FailFast
)

// ParsePolicy maps a config value ("drop" or "fail") to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DropDangling, nil
	case "fail", "strict":
		return FailFast, nil
	}
	return DropDangling, fmt.Errorf("unknown link policy %q", s)
}

func (p Policy) String() string {
	if p == FailFast {
		return "fail"
	}
	return "drop"
}

// Edge is a link resolved to node indices in the arena.
type Edge struct {
	Source int
	Target int
	Link   Link
}

// DroppedLink records a link removed during resolution.
type DroppedLink struct {
	Link    Link
	Missing string
}

// Arena stores nodes by position with links as index pairs, so the
// simulation never holds references between nodes.
type Arena struct {
	Nodes []Node
	Edges []Edge
	index map[string]int
}

// Lookup returns the arena index of the node with the given id.
func (a *Arena) Lookup(id string) (int, bool) {
	i, ok := a.index[id]
	return i, ok
}

// Degree returns the number of edges touching each node.
func (a *Arena) Degree() []int {
	deg := make([]int, len(a.Nodes))
	for _, e := range a.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// Resolve indexes the snapshot's nodes and turns links into index pairs.
// Links naming an absent node are handled according to policy.
func Resolve(snap *Snapshot, policy Policy, logger *zap.Logger) (*Arena, []DroppedLink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Arena{
		Nodes: make([]Node, len(snap.Nodes)),
		Edges: make([]Edge, 0, len(snap.Links)),
		index: make(map[string]int, len(snap.Nodes)),
	}
	for i, n := range snap.Nodes {
		if _, dup := a.index[n.ID]; dup {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		a.index[n.ID] = i
		a.Nodes[i] = n
	}

	var dropped []DroppedLink
	for _, l := range snap.Links {
		src, okS := a.index[string(l.Source)]
		tgt, okT := a.index[string(l.Target)]
		if okS && okT {
			a.Edges = append(a.Edges, Edge{Source: src, Target: tgt, Link: l})
			continue
		}

		missing := string(l.Source)
		if okS {
			missing = string(l.Target)
		}
		if policy == FailFast {
			return nil, nil, fmt.Errorf("%w: %s -> %s (missing %q)", ErrDanglingLink, l.Source, l.Target, missing)
		}
		logger.Warn("dropping dangling link",
			zap.String("source", string(l.Source)),
			zap.String("target", string(l.Target)),
			zap.String("missing", missing))
		dropped = append(dropped, DroppedLink{Link: l, Missing: missing})
	}

	return a, dropped, nil
}
