package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

// FileSource reads a graph snapshot from disk, as JSON or, by extension,
// YAML. It stands in for the backend when rendering offline.
type FileSource struct {
	Path string
}

func (s FileSource) FetchGraph(ctx context.Context) (*graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		return graph.DecodeYAML(f)
	default:
		return graph.Decode(f)
	}
}
