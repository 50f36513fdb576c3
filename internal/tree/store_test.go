package tree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/catalog/internal/domain"
)

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(electronics(), opts...)
	require.NoError(t, err)
	return s
}

func TestNewStore_RejectsInvalidForest(t *testing.T) {
	forest := electronics()
	forest[0].Children[1].ID = "smart-home"

	_, err := NewStore(forest)

	assert.ErrorIs(t, err, ErrInvalidTreeStructure)
}

func TestNewStore_SortsSiblingsStably(t *testing.T) {
	forest := []*domain.CategoryNode{
		node("z", "Z", domain.StatusActive),
		node("y", "Y", domain.StatusActive),
		node("x", "X", domain.StatusActive),
	}
	forest[0].SortOrder = 2
	forest[1].SortOrder = 1
	forest[2].SortOrder = 2

	s, err := NewStore(forest)
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "z", "x"}, ids(s.Roots()))
}

func TestStore_RootsReturnsCopy(t *testing.T) {
	s := newStore(t)

	roots := s.Roots()
	roots[0].Name["en"] = "changed"
	roots[0].Children = nil

	again := s.Roots()
	assert.Equal(t, "Electronics", again[0].Name["en"])
	assert.Len(t, again[0].Children, 2)
}

func TestStore_FindByID(t *testing.T) {
	s := newStore(t)

	n, ok := s.FindByID("security")
	require.True(t, ok)
	assert.Equal(t, "smart-home", n.ParentID)

	n, ok = s.FindByID("missing")
	assert.False(t, ok)
	assert.Nil(t, n)
}

func TestStore_ToggleExpanded(t *testing.T) {
	s := newStore(t)

	assert.False(t, s.IsExpanded("electronics"))
	s.ToggleExpanded("electronics")
	assert.True(t, s.IsExpanded("electronics"))
	s.ToggleExpanded("electronics")
	assert.False(t, s.IsExpanded("electronics"))
}

func TestStore_ToggleUnknownIDLeavesOthersAlone(t *testing.T) {
	s := newStore(t, WithExpanded("electronics"))

	s.ToggleExpanded("does-not-exist")

	assert.True(t, s.IsExpanded("electronics"))
	assert.False(t, s.IsExpanded("smart-home"))
	assert.False(t, s.IsExpanded("lighting"))
}

func TestStore_ExpandAllSkipsLeaves(t *testing.T) {
	s := newStore(t, WithExpanded("stale"))

	s.ExpandAll()

	assert.Equal(t, []string{"electronics", "smart-home"}, s.ExpandedIDs())
	assert.False(t, s.IsExpanded("lighting"))
}

func TestStore_CollapseAll(t *testing.T) {
	s := newStore(t)
	s.ExpandAll()

	s.CollapseAll()

	assert.Empty(t, s.ExpandedIDs())
}

func TestStore_InsertKeepsExpandState(t *testing.T) {
	s := newStore(t, WithExpanded("smart-home"))

	err := s.Insert("smart-home", node("sensors", "Sensors", domain.StatusActive))
	require.NoError(t, err)

	assert.True(t, s.IsExpanded("smart-home"))
	n, ok := s.FindByID("sensors")
	require.True(t, ok)
	assert.Equal(t, "smart-home", n.ParentID)
	assert.Equal(t, 6, s.Len())
}

func TestStore_InsertRejectsDuplicateAndOrphan(t *testing.T) {
	s := newStore(t)

	err := s.Insert("", node("lighting", "Lighting again", domain.StatusActive))
	assert.ErrorIs(t, err, ErrInvalidTreeStructure)

	err = s.Insert("ghost", node("new", "New", domain.StatusActive))
	assert.ErrorIs(t, err, ErrInvalidTreeStructure)

	assert.Equal(t, 5, s.Len())
}

func TestStore_InsertRespectsSortOrder(t *testing.T) {
	s := newStore(t)
	first := node("cables", "Cables", domain.StatusActive)
	first.SortOrder = -1

	require.NoError(t, s.Insert("electronics", first))

	n, _ := s.FindByID("electronics")
	assert.Equal(t, "cables", n.Children[0].ID)
}

func TestStore_RemoveKeepsExpandState(t *testing.T) {
	s := newStore(t, WithExpanded("electronics", "smart-home"))

	removed, ok := s.Remove("smart-home")
	require.True(t, ok)
	assert.Len(t, removed.Children, 2)

	assert.True(t, s.IsExpanded("electronics"))
	_, found := s.FindByID("lighting")
	assert.False(t, found)
	assert.Equal(t, 2, s.Len())

	_, ok = s.Remove("smart-home")
	assert.False(t, ok)
}

func TestStore_Move(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Move("security", "hardware"))
	n, _ := s.FindByID("security")
	assert.Equal(t, "hardware", n.ParentID)

	require.NoError(t, s.Move("hardware", ""))
	assert.Equal(t, 2, ComputeStats(s.Snapshot()).RootCount)
	assert.NoError(t, Validate(s.Snapshot(), nil))
}

func TestStore_MoveRejectsCycle(t *testing.T) {
	s := newStore(t)

	err := s.Move("electronics", "lighting")
	assert.ErrorIs(t, err, ErrInvalidTreeStructure)

	err = s.Move("smart-home", "smart-home")
	assert.ErrorIs(t, err, ErrInvalidTreeStructure)

	assert.Equal(t, ids(electronics()), ids(s.Roots()))
}

func TestStore_Update(t *testing.T) {
	s := newStore(t)
	changed := node("hardware", "Tools", domain.StatusArchived)
	changed.ParentID = "electronics"
	changed.SortOrder = -5

	require.NoError(t, s.Update(changed))

	root, _ := s.FindByID("electronics")
	assert.Equal(t, "hardware", root.Children[0].ID)
	assert.Equal(t, "Tools", root.Children[0].Name["en"])
	assert.Equal(t, domain.StatusArchived, root.Children[0].Status)
}

func TestStore_SnapshotIsolatedFromMutation(t *testing.T) {
	s := newStore(t)

	snap := s.Snapshot()
	_, _ = s.Remove("smart-home")

	assert.Equal(t, domain.Stats{Total: 5, Active: 5, RootCount: 1, MaxDepth: 2}, ComputeStats(snap))
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.ToggleExpanded("electronics")
				s.ExpandAll()
				s.CollapseAll()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats := ComputeStats(Filter(s.Snapshot(), domain.NewQuery("light", "all")))
				assert.Equal(t, 3, stats.Total)
			}
		}()
	}
	wg.Wait()
}

func TestStore_InsertRejectsMissingStatus(t *testing.T) {
	s := newStore(t)

	err := s.Insert("electronics", node("cables", "Cables", ""))

	assert.ErrorIs(t, err, ErrInvalidTreeStructure)
	_, ok := s.FindByID("cables")
	assert.False(t, ok)
}
