package store

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Seed is a YAML document of items and the relations between them.
type Seed struct {
	Items     []Item     `yaml:"items"`
	Relations []Relation `yaml:"relations"`
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Items     int `json:"items"`
	Relations int `json:"relations"`
}

// ImportYAML loads a seed document in one transaction. Parents and
// relations may reference items defined later in the same document.
func (db *DB) ImportYAML(r io.Reader) (*ImportResult, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return db.Import(&seed)
}

// Import writes a decoded seed in one transaction.
func (db *DB) Import(seed *Seed) (*ImportResult, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i := range seed.Items {
		if err := insertItem(tx, &seed.Items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	for _, it := range seed.Items {
		if it.ParentID == "" {
			continue
		}
		if err := setParent(tx, it.ID, it.ParentID); err != nil {
			return nil, err
		}
	}
	for i, rel := range seed.Relations {
		if err := addRelation(tx, rel); err != nil {
			return nil, fmt.Errorf("relation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return &ImportResult{Items: len(seed.Items), Relations: len(seed.Relations)}, nil
}
