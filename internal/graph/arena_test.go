package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func chain() *Snapshot {
	return &Snapshot{
		Nodes: []Node{
			{ID: "A", Type: KindTopic},
			{ID: "B", Type: KindTopic},
			{ID: "C", Type: KindTopic},
		},
		Links: []Link{
			{Source: "A", Target: "B"},
			{Source: "B", Target: "C"},
		},
	}
}

func TestResolveIndexesLinks(t *testing.T) {
	a, dropped, err := Resolve(chain(), DropDangling, nil)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.Len(t, a.Edges, 2)

	b, ok := a.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, 1, b)
	assert.Equal(t, Edge{Source: 0, Target: 1, Link: Link{Source: "A", Target: "B"}}, a.Edges[0])
	assert.Equal(t, []int{1, 2, 1}, a.Degree())

	_, ok = a.Lookup("Z")
	assert.False(t, ok)
}

func TestResolveDropsDanglingLinks(t *testing.T) {
	snap := chain()
	snap.Links = append(snap.Links, Link{Source: "A", Target: "ghost"})

	core, logs := observer.New(zap.WarnLevel)
	a, dropped, err := Resolve(snap, DropDangling, zap.New(core))
	require.NoError(t, err)

	assert.Len(t, a.Edges, 2)
	require.Len(t, dropped, 1)
	assert.Equal(t, "ghost", dropped[0].Missing)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dropping dangling link", logs.All()[0].Message)
}

func TestResolveFailFast(t *testing.T) {
	snap := chain()
	snap.Links = append(snap.Links, Link{Source: "ghost", Target: "C"})

	_, _, err := Resolve(snap, FailFast, nil)
	assert.ErrorIs(t, err, ErrDanglingLink)
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestResolveDuplicateNode(t *testing.T) {
	snap := chain()
	snap.Nodes = append(snap.Nodes, Node{ID: "A", Type: KindQuote})

	_, _, err := Resolve(snap, DropDangling, nil)
	assert.ErrorIs(t, err, ErrDuplicateNode)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DropDangling, p)

	p, err = ParsePolicy("FAIL")
	require.NoError(t, err)
	assert.Equal(t, FailFast, p)
	assert.Equal(t, "fail", p.String())

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}
