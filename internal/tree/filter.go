package tree

import (
	"strings"

	"golang.org/x/text/cases"

	"marketplace/catalog/internal/domain"
)

// Filter returns a new forest holding every node that matches query, plus
// the ancestors leading to it. Non-matching subtrees are pruned and sibling
// order is preserved. The input forest is never modified.
func Filter(forest []*domain.CategoryNode, query domain.Query) []*domain.CategoryNode {
	if query.IsEmpty() {
		return domain.CloneForest(forest)
	}

	m := newMatcher(query)
	out := make([]*domain.CategoryNode, 0, len(forest))
	for _, root := range forest {
		if n := m.filter(root); n != nil {
			out = append(out, n)
		}
	}
	return out
}

type matcher struct {
	text   string
	status domain.StatusFilter
	fold   cases.Caser
}

func newMatcher(query domain.Query) *matcher {
	// cases.Caser keeps state, so every Filter call gets its own
	fold := cases.Fold()
	return &matcher{
		text:   fold.String(query.Text),
		status: query.Status,
		fold:   fold,
	}
}

func (m *matcher) filter(node *domain.CategoryNode) *domain.CategoryNode {
	var children []*domain.CategoryNode
	for _, child := range node.Children {
		if c := m.filter(child); c != nil {
			children = append(children, c)
		}
	}

	if len(children) == 0 && !m.direct(node) {
		return nil
	}

	n := node.CloneWithoutChildren()
	n.Children = children
	return n
}

func (m *matcher) direct(node *domain.CategoryNode) bool {
	return m.status.Matches(node.Status) && m.textMatches(node)
}

func (m *matcher) textMatches(node *domain.CategoryNode) bool {
	if m.text == "" {
		return true
	}
	return m.anyContains(node.Name) || m.anyContains(node.Description)
}

func (m *matcher) anyContains(text domain.LocalizedText) bool {
	for _, v := range text {
		if strings.Contains(m.fold.String(v), m.text) {
			return true
		}
	}
	return false
}
