// Package fixture loads a category forest from a YAML or JSON file. It is
// the explicit mock data source used by local setups and tests.
package fixture

import (
	"context"
	"fmt"
	"os"

	"marketplace/catalog/internal/domain"

	"gopkg.in/yaml.v3"
)

type document struct {
	Categories []*domain.CategoryNode `yaml:"categories"`
}

type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// LoadForest reads the file on every call. Parent ids missing from nested
// children are filled in from the containing node.
func (s *FileSource) LoadForest(ctx context.Context) ([]*domain.CategoryNode, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category file %s: %w", s.path, err)
	}
	return Parse(data)
}

// Parse decodes a document with a top-level "categories" list. JSON input
// works too since YAML is a superset.
func Parse(data []byte) ([]*domain.CategoryNode, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	for _, root := range doc.Categories {
		fillParents(root)
	}
	return doc.Categories, nil
}

func fillParents(n *domain.CategoryNode) {
	if n == nil {
		return
	}
	for _, child := range n.Children {
		if child != nil && child.ParentID == "" {
			child.ParentID = n.ID
		}
		fillParents(child)
	}
}
