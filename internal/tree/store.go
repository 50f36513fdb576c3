package tree

import (
	"sort"
	"sync"

	"marketplace/catalog/internal/domain"
)

// Store owns the canonical category forest and the set of expanded ids.
// Readers get deep copies, so a Filter or ComputeStats running on a
// snapshot never observes a later mutation.
type Store struct {
	mu              sync.RWMutex
	roots           []*domain.CategoryNode
	expanded        map[string]struct{}
	requiredLocales []string
}

type Option func(*Store)

// WithExpanded seeds the expand set
func WithExpanded(ids ...string) Option {
	return func(s *Store) {
		for _, id := range ids {
			s.expanded[id] = struct{}{}
		}
	}
}

// WithRequiredLocales makes every node carry a non-empty name for each locale
func WithRequiredLocales(locales ...string) Option {
	return func(s *Store) {
		s.requiredLocales = append([]string(nil), locales...)
	}
}

// NewStore validates and takes a private copy of roots
func NewStore(roots []*domain.CategoryNode, opts ...Option) (*Store, error) {
	s := &Store{
		expanded: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := Validate(roots, s.requiredLocales); err != nil {
		return nil, err
	}

	s.roots = domain.CloneForest(roots)
	if s.roots == nil {
		s.roots = make([]*domain.CategoryNode, 0)
	}
	SortSiblings(s.roots)

	return s, nil
}

// Roots returns a copy of the forest in display order
func (s *Store) Roots() []*domain.CategoryNode {
	return s.Snapshot()
}

// Snapshot deep-copies the forest under the read lock
func (s *Store) Snapshot() []*domain.CategoryNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneForest(s.roots)
}

// FindByID returns a copy of the node and its subtree, or false if absent
func (s *Store) FindByID(id string) (*domain.CategoryNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := find(s.roots, id)
	if node == nil {
		return nil, false
	}
	return node.Clone(), true
}

// Len returns the number of nodes in the forest
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, root := range s.roots {
		total += Count(root)
	}
	return total
}

// ToggleExpanded flips id in the expand set. Unknown ids are flipped too;
// they simply never match a rendered node.
func (s *Store) ToggleExpanded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expanded[id]; ok {
		delete(s.expanded, id)
		return
	}
	s.expanded[id] = struct{}{}
}

// ExpandAll sets the expand set to every node that has a child
func (s *Store) ExpandAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	expanded := make(map[string]struct{})
	Walk(s.roots, func(n *domain.CategoryNode, _ int) bool {
		if n.HasChildren() {
			expanded[n.ID] = struct{}{}
		}
		return true
	})
	s.expanded = expanded
}

// CollapseAll empties the expand set
func (s *Store) CollapseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expanded = make(map[string]struct{})
}

func (s *Store) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.expanded[id]
	return ok
}

// ExpandedIDs returns the expand set, sorted
func (s *Store) ExpandedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetExpanded replaces the expand set, e.g. when restoring persisted state
func (s *Store) SetExpanded(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expanded = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.expanded[id] = struct{}{}
	}
}

// Insert adds node (with its subtree) under parentID, or as a root when
// parentID is empty. The node's ParentID is overwritten.
func (s *Store) Insert(parentID string, node *domain.CategoryNode) error {
	if node == nil {
		return invalid(parentID, "nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := node.Clone()
	n.ParentID = parentID

	if err := validateNode(n, parentID, s.requiredLocales, s.idSet()); err != nil {
		return err
	}

	return s.attach(parentID, n)
}

// Update replaces the node's own fields, keeping its children. A changed
// ParentID moves the node.
func (s *Store) Update(node *domain.CategoryNode) error {
	if node == nil {
		return invalid("", "nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := find(s.roots, node.ID)
	if current == nil {
		return invalid(node.ID, "node does not exist")
	}

	fields := node.CloneWithoutChildren()
	fields.ParentID = current.ParentID
	if err := validateNode(fields, current.ParentID, s.requiredLocales, map[string]struct{}{}); err != nil {
		return err
	}

	if node.ParentID != current.ParentID {
		if err := s.move(node.ID, node.ParentID); err != nil {
			return err
		}
	}

	current.Name = fields.Name
	current.Description = fields.Description
	current.Status = fields.Status
	current.SortOrder = fields.SortOrder
	current.Metrics = fields.Metrics
	current.Featured = fields.Featured

	s.resortParentOf(current)
	return nil
}

// Remove detaches the node and its subtree. The expand set is left alone.
func (s *Store) Remove(id string) (*domain.CategoryNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.detach(id)
	if node == nil {
		return nil, false
	}
	return node, true
}

// Move re-parents a node. An empty newParentID makes it a root.
func (s *Store) Move(id, newParentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.move(id, newParentID)
}

func (s *Store) move(id, newParentID string) error {
	node := find(s.roots, id)
	if node == nil {
		return invalid(id, "node does not exist")
	}
	if newParentID != "" {
		if newParentID == id || find(node.Children, newParentID) != nil {
			return invalid(id, "cannot move under its own subtree %q", newParentID)
		}
		if find(s.roots, newParentID) == nil {
			return invalid(id, "parent %q does not exist", newParentID)
		}
	}

	detached := s.detach(id)
	detached.ParentID = newParentID
	return s.attach(newParentID, detached)
}

func (s *Store) attach(parentID string, n *domain.CategoryNode) error {
	if parentID == "" {
		s.roots = append(s.roots, n)
		SortSiblings(s.roots)
		return nil
	}

	parent := find(s.roots, parentID)
	if parent == nil {
		return invalid(n.ID, "parent %q does not exist", parentID)
	}
	parent.Children = append(parent.Children, n)
	SortSiblings(parent.Children)
	return nil
}

func (s *Store) detach(id string) *domain.CategoryNode {
	var removed *domain.CategoryNode
	s.roots = removeFrom(s.roots, id, &removed)
	return removed
}

func (s *Store) resortParentOf(n *domain.CategoryNode) {
	if n.ParentID == "" {
		sortLevel(s.roots)
		return
	}
	if parent := find(s.roots, n.ParentID); parent != nil {
		sortLevel(parent.Children)
	}
}

func (s *Store) idSet() map[string]struct{} {
	ids := make(map[string]struct{})
	Walk(s.roots, func(n *domain.CategoryNode, _ int) bool {
		ids[n.ID] = struct{}{}
		return true
	})
	return ids
}

func sortLevel(nodes []*domain.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].SortOrder < nodes[j].SortOrder
	})
}

func removeFrom(nodes []*domain.CategoryNode, id string, removed **domain.CategoryNode) []*domain.CategoryNode {
	for i, n := range nodes {
		if n.ID == id {
			*removed = n
			return append(nodes[:i:i], nodes[i+1:]...)
		}
		if n.HasChildren() {
			n.Children = removeFrom(n.Children, id, removed)
			if *removed != nil {
				return nodes
			}
		}
	}
	return nodes
}

func find(nodes []*domain.CategoryNode, id string) *domain.CategoryNode {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if found := find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}
