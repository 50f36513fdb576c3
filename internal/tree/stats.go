package tree

import "marketplace/catalog/internal/domain"

// Walk visits nodes depth-first in pre-order. Returning false from fn skips
// the node's children.
func Walk(roots []*domain.CategoryNode, fn func(n *domain.CategoryNode, depth int) bool) {
	for _, root := range roots {
		walk(root, 0, fn)
	}
}

func walk(n *domain.CategoryNode, depth int, fn func(*domain.CategoryNode, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		walk(child, depth+1, fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n, n included
func Count(n *domain.CategoryNode) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range n.Children {
		total += Count(child)
	}
	return total
}

// ComputeStats counts nodes over the whole forest
func ComputeStats(forest []*domain.CategoryNode) domain.Stats {
	stats := domain.Stats{RootCount: len(forest)}
	Walk(forest, func(n *domain.CategoryNode, depth int) bool {
		stats.Total++
		if n.Status == domain.StatusActive {
			stats.Active++
		}
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		return true
	})
	return stats
}

// BranchRollups aggregates each root's subtree, in root order
func BranchRollups(forest []*domain.CategoryNode) []domain.BranchRollup {
	rollups := make([]domain.BranchRollup, 0, len(forest))
	for _, root := range forest {
		r := domain.BranchRollup{RootID: root.ID}
		walk(root, 0, func(n *domain.CategoryNode, depth int) bool {
			r.Nodes++
			if n.Status == domain.StatusActive {
				r.Active++
			}
			if n.Featured {
				r.Featured++
			}
			r.Products += n.Metrics.ProductCount
			r.Sellers += n.Metrics.SellerCount
			if depth > r.Depth {
				r.Depth = depth
			}
			return true
		})
		rollups = append(rollups, r)
	}
	return rollups
}
