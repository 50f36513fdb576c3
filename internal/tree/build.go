package tree

import (
	"sort"
	"strings"

	"marketplace/catalog/internal/domain"
)

// Validate checks the structural invariants of a nested forest: unique ids,
// parent ids that agree with the containing node, and a non-empty name for
// every required locale.
func Validate(roots []*domain.CategoryNode, requiredLocales []string) error {
	seen := make(map[string]struct{})
	for _, root := range roots {
		if err := validateNode(root, "", requiredLocales, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(node *domain.CategoryNode, parentID string, requiredLocales []string, seen map[string]struct{}) error {
	if node == nil {
		return invalid(parentID, "nil child")
	}
	if strings.TrimSpace(node.ID) == "" {
		return invalid("", "empty id under parent %q", parentID)
	}
	if _, ok := seen[node.ID]; ok {
		return invalid(node.ID, "duplicate id")
	}
	seen[node.ID] = struct{}{}

	if node.ParentID != parentID {
		if parentID == "" {
			return invalid(node.ID, "root references parent %q", node.ParentID)
		}
		return invalid(node.ID, "parent id %q does not match containing node %q", node.ParentID, parentID)
	}
	if node.Status == "" {
		return invalid(node.ID, "missing status")
	}
	if !node.Status.IsValid() {
		return invalid(node.ID, "unknown status %q", node.Status)
	}
	for _, locale := range requiredLocales {
		if strings.TrimSpace(node.Name[locale]) == "" {
			return invalid(node.ID, "missing %q name", locale)
		}
	}

	for _, child := range node.Children {
		if err := validateNode(child, node.ID, requiredLocales, seen); err != nil {
			return err
		}
	}
	return nil
}

// BuildFromFlat assembles a forest from parent-pointer rows. Row order is
// kept as insertion order among siblings; any Children already set on a row
// are ignored. Orphans and cycles are rejected.
func BuildFromFlat(rows []*domain.CategoryNode) ([]*domain.CategoryNode, error) {
	byID := make(map[string]*domain.CategoryNode, len(rows))
	ordered := make([]*domain.CategoryNode, 0, len(rows))

	for _, row := range rows {
		if row == nil {
			return nil, invalid("", "nil row")
		}
		if strings.TrimSpace(row.ID) == "" {
			return nil, invalid("", "empty id")
		}
		if _, ok := byID[row.ID]; ok {
			return nil, invalid(row.ID, "duplicate id")
		}
		node := row.CloneWithoutChildren()
		byID[node.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*domain.CategoryNode, 0)
	for _, node := range ordered {
		if node.ParentID == "" {
			roots = append(roots, node)
			continue
		}
		if node.ParentID == node.ID {
			return nil, invalid(node.ID, "node is its own parent")
		}
		parent, ok := byID[node.ParentID]
		if !ok {
			return nil, invalid(node.ID, "parent %q does not exist", node.ParentID)
		}
		parent.Children = append(parent.Children, node)
	}

	// Anything not reachable from a root sits on a parent cycle.
	reached := 0
	for _, root := range roots {
		reached += Count(root)
	}
	if reached != len(ordered) {
		reachable := make(map[string]struct{}, reached)
		Walk(roots, func(n *domain.CategoryNode, _ int) bool {
			reachable[n.ID] = struct{}{}
			return true
		})
		for _, node := range ordered {
			if _, ok := reachable[node.ID]; !ok {
				return nil, invalid(node.ID, "cyclic parent reference")
			}
		}
	}

	SortSiblings(roots)
	return roots, nil
}

// SortSiblings stably sorts every sibling list by SortOrder, recursively
func SortSiblings(nodes []*domain.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].SortOrder < nodes[j].SortOrder
	})
	for _, n := range nodes {
		SortSiblings(n.Children)
	}
}

// Flatten returns every node in depth-first pre-order with Children cleared,
// the inverse of BuildFromFlat.
func Flatten(roots []*domain.CategoryNode) []*domain.CategoryNode {
	out := make([]*domain.CategoryNode, 0)
	Walk(roots, func(n *domain.CategoryNode, _ int) bool {
		out = append(out, n.CloneWithoutChildren())
		return true
	})
	return out
}
