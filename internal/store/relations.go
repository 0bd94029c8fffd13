package store

import (
	"fmt"
	"sort"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

const DefaultRelationKind = "RELATES_TO"

// Relation is a weighted edge between two items.
type Relation struct {
	SourceID string  `json:"source" yaml:"source" validate:"required"`
	TargetID string  `json:"target" yaml:"target" validate:"required,nefield=SourceID"`
	Kind     string  `json:"kind" yaml:"kind,omitempty"`
	Weight   float64 `json:"weight" yaml:"weight,omitempty" validate:"gte=0"`
}

// AddRelation links two existing items. Re-adding the same edge updates its weight.
func (db *DB) AddRelation(r Relation) error {
	return addRelation(db, r)
}

func addRelation(q querier, r Relation) error {
	if r.Kind == "" {
		r.Kind = DefaultRelationKind
	}
	if r.Weight == 0 {
		r.Weight = 1
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	_, err := q.Exec(`
		INSERT INTO relations (source_id, target_id, kind, weight) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, kind) DO UPDATE SET weight = excluded.weight`,
		r.SourceID, r.TargetID, r.Kind, r.Weight,
	)
	if err != nil {
		return fmt.Errorf("add relation %s->%s: %w", r.SourceID, r.TargetID, err)
	}
	return nil
}

// Relations returns every stored relation.
func (db *DB) Relations() ([]Relation, error) {
	rows, err := db.Query("SELECT source_id, target_id, kind, weight FROM relations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	rels := []Relation{}
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.SourceID, &r.TargetID, &r.Kind, &r.Weight); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// GraphSnapshot returns every item as a node and every relation, plus each
// child-to-parent edge, as a link. Items without an explicit size are sized
// by degree.
func (db *DB) GraphSnapshot() (*graph.Snapshot, error) {
	items, err := db.queryItems("SELECT " + itemColumns + " FROM items ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	rels, err := db.Relations()
	if err != nil {
		return nil, err
	}

	snap := &graph.Snapshot{
		Nodes: make([]graph.Node, 0, len(items)),
		Links: make([]graph.Link, 0, len(rels)),
	}
	degree := make(map[string]int, len(items))
	for _, r := range rels {
		w := r.Weight
		snap.Links = append(snap.Links, graph.Link{
			Source: graph.NodeRef(r.SourceID),
			Target: graph.NodeRef(r.TargetID),
			Value:  &w,
		})
		degree[r.SourceID]++
		degree[r.TargetID]++
	}
	for _, it := range items {
		if it.ParentID == "" {
			continue
		}
		snap.Links = append(snap.Links, graph.Link{
			Source: graph.NodeRef(it.ID),
			Target: graph.NodeRef(it.ParentID),
		})
		degree[it.ID]++
		degree[it.ParentID]++
	}
	for _, it := range items {
		size := 10 + 2*float64(degree[it.ID])
		if it.Size != nil {
			size = *it.Size
		}
		n := graph.Node{
			ID:    it.ID,
			Title: it.Title,
			Type:  it.Kind,
			Size:  &size,
			Tags:  it.Tags,
		}
		if it.Kind == graph.KindTopic {
			n.Name = it.ID
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	return snap, nil
}

// TopicNode is one topic in the nested hierarchy.
type TopicNode struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Level    int          `json:"level"`
	Tags     []string     `json:"tags"`
	Children []*TopicNode `json:"children"`
}

// TopicHierarchy nests topics by parent. Topics whose parent is missing or
// not a topic become roots.
func (db *DB) TopicHierarchy() ([]*TopicNode, error) {
	items, err := db.queryItems("SELECT "+itemColumns+" FROM items WHERE kind = ? ORDER BY title, id",
		string(graph.KindTopic))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*TopicNode, len(items))
	for _, it := range items {
		byID[it.ID] = &TopicNode{ID: it.ID, Title: it.Title, Level: it.Level, Tags: it.Tags, Children: []*TopicNode{}}
	}
	roots := []*TopicNode{}
	for _, it := range items {
		n := byID[it.ID]
		if p, ok := byID[it.ParentID]; ok {
			p.Children = append(p.Children, n)
			continue
		}
		roots = append(roots, n)
	}
	sortTopics(roots)
	return roots, nil
}

func sortTopics(nodes []*TopicNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Title < nodes[j].Title })
	for _, n := range nodes {
		sortTopics(n.Children)
	}
}

// Stats summarises the content store.
type Stats struct {
	Items     int                `json:"items"`
	ByKind    map[graph.Kind]int `json:"by_kind"`
	Tags      int                `json:"tags"`
	Relations int                `json:"relations"`
	MaxLevel  int                `json:"max_level"`
}

// Stats counts items per kind, distinct tags and relations.
func (db *DB) Stats() (*Stats, error) {
	st := &Stats{ByKind: make(map[graph.Kind]int, 4)}
	for _, k := range graph.Kinds() {
		st.ByKind[k] = 0
	}

	rows, err := db.Query("SELECT kind, COUNT(*) FROM items GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count kinds: %w", err)
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		st.ByKind[graph.Kind(kind)] = n
		st.Items += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRow(`
		SELECT
			(SELECT COUNT(DISTINCT tag) FROM item_tags),
			(SELECT COUNT(*) FROM relations),
			(SELECT COALESCE(MAX(level), 0) FROM items WHERE kind = 'Topic')`,
	).Scan(&st.Tags, &st.Relations, &st.MaxLevel)
	if err != nil {
		return nil, fmt.Errorf("count stats: %w", err)
	}
	return st, nil
}
