package domain

// LocalizedText maps a locale tag ("en", "ar") to text in that locale
type LocalizedText map[string]string

// Metrics are display-only counters, never used for filtering
type Metrics struct {
	ProductCount int `json:"product_count" yaml:"product_count"`
	SellerCount  int `json:"seller_count" yaml:"seller_count"`
}

// CategoryNode is a single category in the marketplace catalog forest.
// Children are owned exclusively by their parent; ParentID is informational.
type CategoryNode struct {
	ID          string          `json:"id" yaml:"id"`
	Name        LocalizedText   `json:"name" yaml:"name"`
	Description LocalizedText   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status          `json:"status" yaml:"status"`
	ParentID    string          `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Children    []*CategoryNode `json:"children,omitempty" yaml:"children,omitempty"`
	SortOrder   int             `json:"sort_order" yaml:"sort_order"`
	Metrics     Metrics         `json:"metrics" yaml:"metrics"`
	Featured    bool            `json:"featured" yaml:"featured"`
}

// IsRoot reports whether the node has no parent
func (n *CategoryNode) IsRoot() bool {
	return n.ParentID == ""
}

// HasChildren reports whether the node has at least one child
func (n *CategoryNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Clone returns a deep copy of the node and its whole subtree
func (n *CategoryNode) Clone() *CategoryNode {
	if n == nil {
		return nil
	}
	c := n.shallowClone()
	if n.Children != nil {
		c.Children = make([]*CategoryNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// CloneWithoutChildren copies the node's own fields and leaves Children nil
func (n *CategoryNode) CloneWithoutChildren() *CategoryNode {
	if n == nil {
		return nil
	}
	return n.shallowClone()
}

func (n *CategoryNode) shallowClone() *CategoryNode {
	return &CategoryNode{
		ID:          n.ID,
		Name:        n.Name.clone(),
		Description: n.Description.clone(),
		Status:      n.Status,
		ParentID:    n.ParentID,
		SortOrder:   n.SortOrder,
		Metrics:     n.Metrics,
		Featured:    n.Featured,
	}
}

func (t LocalizedText) clone() LocalizedText {
	if t == nil {
		return nil
	}
	c := make(LocalizedText, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// CloneForest deep-copies every root of a forest
func CloneForest(roots []*CategoryNode) []*CategoryNode {
	if roots == nil {
		return nil
	}
	out := make([]*CategoryNode, len(roots))
	for i, root := range roots {
		out[i] = root.Clone()
	}
	return out
}
