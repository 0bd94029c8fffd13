package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a JSON graph payload. A payload without a node or link
// collection is rejected, as is any node or link failing validation.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalidPayload, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DecodeYAML reads a graph snapshot from a YAML document, with the same
// structural checks as Decode.
func DecodeYAML(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidPayload, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks that both collections are present and every element is
// well formed. Empty collections are valid.
func (s *Snapshot) Validate() error {
	if s.Nodes == nil {
		return fmt.Errorf("%w: missing nodes", ErrInvalidPayload)
	}
	if s.Links == nil {
		return fmt.Errorf("%w: missing links", ErrInvalidPayload)
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
