package tree

import "marketplace/catalog/internal/domain"

func node(id, en string, status domain.Status, children ...*domain.CategoryNode) *domain.CategoryNode {
	n := &domain.CategoryNode{
		ID:     id,
		Name:   domain.LocalizedText{"en": en, "ar": "ar-" + en},
		Status: status,
	}
	for _, c := range children {
		c.ParentID = id
	}
	n.Children = children
	return n
}

// electronics builds Electronics -> SmartHome -> {Lighting, Security}, Hardware
func electronics() []*domain.CategoryNode {
	return []*domain.CategoryNode{
		node("electronics", "Electronics", domain.StatusActive,
			node("smart-home", "Smart Home", domain.StatusActive,
				node("lighting", "Lighting", domain.StatusActive),
				node("security", "Security", domain.StatusActive),
			),
			node("hardware", "Hardware", domain.StatusActive),
		),
	}
}

func ids(forest []*domain.CategoryNode) []string {
	out := make([]string, 0)
	Walk(forest, func(n *domain.CategoryNode, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

// path returns the ids from a root down to id, or nil when id is absent
func path(forest []*domain.CategoryNode, id string) []string {
	for _, root := range forest {
		if p := pathTo(root, id); p != nil {
			return p
		}
	}
	return nil
}

func pathTo(n *domain.CategoryNode, id string) []string {
	if n.ID == id {
		return []string{n.ID}
	}
	for _, child := range n.Children {
		if p := pathTo(child, id); p != nil {
			return append([]string{n.ID}, p...)
		}
	}
	return nil
}
