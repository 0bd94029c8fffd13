// Package graph holds the relationship graph data contract: the snapshot
// decoded from the backend and the arena the layout engine works on.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPayload = errors.New("invalid graph payload")
	ErrDanglingLink   = errors.New("link references unknown node")
	ErrDuplicateNode  = errors.New("duplicate node id")
)

// Kind is the content kind of a node.
type Kind string

const (
	KindTopic   Kind = "Topic"
	KindThought Kind = "Thought"
	KindQuote   Kind = "Quote"
	KindPassage Kind = "Passage"
)

// Kinds returns every content kind in legend order.
func Kinds() []Kind {
	return []Kind{KindTopic, KindThought, KindQuote, KindPassage}
}

// Valid reports whether k is one of the known content kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTopic, KindThought, KindQuote, KindPassage:
		return true
	}
	return false
}

const (
	defaultSize  = 10.0
	defaultValue = 1.0
)

// Node is one content item in the graph.
type Node struct {
	ID    string   `json:"id" yaml:"id" validate:"required"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty"`
	Name  string   `json:"name,omitempty" yaml:"name,omitempty"`
	Type  Kind     `json:"type" yaml:"type" validate:"required,oneof=Topic Thought Quote Passage"`
	Size  *float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// UnmarshalJSON accepts a numeric id as well as a string one, matching
// the link endpoint forms.
func (n *Node) UnmarshalJSON(b []byte) error {
	type plain Node
	var aux struct {
		plain
		ID NodeRef `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*n = Node(aux.plain)
	n.ID = string(aux.ID)
	return nil
}

// Label is the display text: title, then name, then id.
func (n Node) Label() string {
	switch {
	case n.Title != "":
		return n.Title
	case n.Name != "":
		return n.Name
	case n.ID != "":
		return n.ID
	}
	return "Unknown"
}

// Radius is the marker radius derived from the size hint. A missing or
// non-positive size draws at the default.
func (n Node) Radius() float64 {
	size := defaultSize
	if n.Size != nil && *n.Size > 0 {
		size = *n.Size
	}
	return math.Sqrt(size * 3)
}

// Tooltip is the hover text shown over a node marker.
func (n Node) Tooltip() string {
	s := fmt.Sprintf("%s: %s", n.Type, n.Label())
	if len(n.Tags) > 0 {
		s += "\nTags: " + strings.Join(n.Tags, ", ")
	}
	return s
}

// NodeRef is a node identity as it appears on a link. The backend emits
// either strings or numeric ids; both normalise to a string.
type NodeRef string

func (r *NodeRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("node ref: %w", err)
		}
		*r = NodeRef(s)
		return nil
	}
	if string(b) == "null" {
		*r = ""
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("node ref %s: not a string or number", b)
	}
	*r = NodeRef(b)
	return nil
}

func (r *NodeRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("node ref at line %d: expected scalar", value.Line)
	}
	*r = NodeRef(value.Value)
	return nil
}

// Link is an edge between two nodes, referenced by identity. An empty or
// null endpoint never matches a node, so Resolve applies the dangling
// policy to it.
type Link struct {
	Source NodeRef  `json:"source" yaml:"source"`
	Target NodeRef  `json:"target" yaml:"target"`
	Value  *float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// StrokeWidth scales with the square root of the link weight. A missing or
// non-positive weight counts as one.
func (l Link) StrokeWidth() float64 {
	v := defaultValue
	if l.Value != nil && *l.Value > 0 {
		v = *l.Value
	}
	return math.Sqrt(v)
}

// Snapshot is the full node and link set returned by one fetch.
type Snapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Links []Link `json:"links" yaml:"links" validate:"dive"`
}
