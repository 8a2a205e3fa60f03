package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLStore is the reference Store implementation: one YAML file per
// notebook, named <id>.yaml under a root directory.
type YAMLStore struct {
	root string
}

// NewYAMLStore creates a YAMLStore rooted at dir, creating it if absent.
func NewYAMLStore(dir string) (*YAMLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: creating root %s: %w", dir, err)
	}
	return &YAMLStore{root: dir}, nil
}

func (s *YAMLStore) path(id string) string {
	return filepath.Join(s.root, id+".yaml")
}

// Load reads and parses the notebook file for id.
func (s *YAMLStore) Load(id string) (NotebookStructure, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return NotebookStructure{}, fmt.Errorf("persistence: loading %s: %w", id, err)
	}
	var structure NotebookStructure
	if err := yaml.Unmarshal(data, &structure); err != nil {
		return NotebookStructure{}, fmt.Errorf("persistence: parsing %s: %w", id, err)
	}
	return structure, nil
}

// Save serializes and writes the notebook file, overwriting any prior
// contents. Execution state is never part of NotebookStructure, so Save
// never needs to merge with in-flight state.
func (s *YAMLStore) Save(structure NotebookStructure) error {
	data, err := yaml.Marshal(structure)
	if err != nil {
		return fmt.Errorf("persistence: serializing %s: %w", structure.ID, err)
	}
	if err := os.WriteFile(s.path(structure.ID), data, 0o644); err != nil {
		return fmt.Errorf("persistence: writing %s: %w", structure.ID, err)
	}
	return nil
}
