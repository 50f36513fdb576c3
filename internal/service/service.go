package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace/catalog/internal/domain"
	"marketplace/catalog/internal/domain/task"
	"marketplace/catalog/internal/queue"
	"marketplace/catalog/internal/repository"
	"marketplace/catalog/internal/state"
	"marketplace/catalog/internal/tree"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotLoaded is returned before Load has succeeded
	ErrNotLoaded = errors.New("category tree not loaded")
	// ErrInvalidTask marks a task that can never be applied
	ErrInvalidTask = errors.New("invalid task")
)

// ForestSource provides the canonical category forest
type ForestSource interface {
	LoadForest(ctx context.Context) ([]*domain.CategoryNode, error)
}

// View is everything the dashboard renders for one query
type View struct {
	Forest   []*domain.CategoryNode `json:"forest"`
	Stats    domain.Stats           `json:"stats"`
	Matched  domain.Stats           `json:"matched"`
	Rollups  []domain.BranchRollup  `json:"rollups"`
	Expanded []string               `json:"expanded"`
}

type Options struct {
	View            string
	Locales         []string
	DefaultExpanded []string
	GroupName       string
	MinIdleTime     int
}

type Service struct {
	source      ForestSource
	repository  repository.CategoryRepository
	queue       queue.Queue
	expandState state.ExpandStateStore

	view            string
	locales         []string
	defaultExpanded []string
	groupName       string
	minIdleTime     time.Duration

	// applyMu serializes mutations so each one sees the previous one's result.
	// It also guards applied, the messages mutated but not yet acked.
	applyMu sync.Mutex
	applied map[string]struct{}
	mu      sync.RWMutex
	store   *tree.Store
}

// NewService wires the service. repository, queue and expandState may be nil
// when the host does not persist that concern.
func NewService(
	source ForestSource,
	repository repository.CategoryRepository,
	queue queue.Queue,
	expandState state.ExpandStateStore,
	opts Options,
) *Service {
	minIdleTime := time.Duration(opts.MinIdleTime) * time.Second
	if minIdleTime <= 0 {
		minIdleTime = 2 * time.Minute
	}

	return &Service{
		source:          source,
		repository:      repository,
		queue:           queue,
		expandState:     expandState,
		view:            opts.View,
		locales:         opts.Locales,
		defaultExpanded: opts.DefaultExpanded,
		groupName:       opts.GroupName,
		minIdleTime:     minIdleTime,
		applied:         make(map[string]struct{}),
	}
}

// Load reads the forest from the source, validates it and restores the
// persisted expand state. When the source is not the repository itself the
// imported forest is written through to it.
func (s *Service) Load(ctx context.Context) error {
	forest, err := s.source.LoadForest(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	store, err := tree.NewStore(forest,
		tree.WithRequiredLocales(s.locales...),
		tree.WithExpanded(s.defaultExpanded...),
	)
	if err != nil {
		return fmt.Errorf("failed to build category store: %w", err)
	}

	if s.expandState != nil {
		ids, err := s.expandState.GetExpanded(ctx, s.view)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			store.SetExpanded(ids)
			log.Infof("🔄 Restored %d expanded categories for view %s", len(ids), s.view)
		}
	}

	if s.repository != nil && s.repository != s.source {
		if err := s.repository.SaveForest(ctx, store.Snapshot()); err != nil {
			return fmt.Errorf("failed to persist imported categories: %w", err)
		}
	}

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	stats := tree.ComputeStats(store.Snapshot())
	log.Infof("✅ Loaded %d categories (%d active) in %d roots, max depth %d",
		stats.Total, stats.Active, stats.RootCount, stats.MaxDepth)
	return nil
}

func (s *Service) currentStore() (*tree.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.store == nil {
		return nil, ErrNotLoaded
	}
	return s.store, nil
}

// View filters a snapshot of the forest. Stats cover the whole forest,
// Matched covers the filtered one.
func (s *Service) View(query domain.Query) (*View, error) {
	store, err := s.currentStore()
	if err != nil {
		return nil, err
	}

	snapshot := store.Snapshot()
	filtered := tree.Filter(snapshot, query)

	return &View{
		Forest:   filtered,
		Stats:    tree.ComputeStats(snapshot),
		Matched:  tree.ComputeStats(filtered),
		Rollups:  tree.BranchRollups(snapshot),
		Expanded: store.ExpandedIDs(),
	}, nil
}

// Apply performs a single mutation and persists it
func (s *Service) Apply(ctx context.Context, t task.Task) error {
	store, err := s.currentStore()
	if err != nil {
		return err
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if err := s.mutate(store, t); err != nil {
		return err
	}
	return s.persist(ctx, store, t)
}

// mutate changes the in-memory store only
func (s *Service) mutate(store *tree.Store, t task.Task) error {
	switch t := t.(type) {
	case *task.ExpandTask:
		switch t.Action {
		case task.ExpandActionToggle:
			store.ToggleExpanded(t.CategoryID)
		case task.ExpandActionExpandAll:
			store.ExpandAll()
		case task.ExpandActionCollapseAll:
			store.CollapseAll()
		default:
			return fmt.Errorf("%w: unknown expand action %q", ErrInvalidTask, t.Action)
		}

	case *task.UpsertCategoryTask:
		if t.Category == nil {
			return fmt.Errorf("%w: upsert without category", ErrInvalidTask)
		}
		var err error
		if _, exists := store.FindByID(t.Category.ID); exists {
			err = store.Update(t.Category)
		} else {
			err = store.Insert(t.Category.ParentID, t.Category)
		}
		if err != nil {
			return err
		}
		log.Infof("✅ Saved category %s (%d categories total)", t.Category.ID, store.Len())

	case *task.RemoveCategoryTask:
		removed, ok := store.Remove(t.CategoryID)
		if !ok {
			// Still persisted: the repository may hold what memory already dropped
			log.Warnf("⚠️ Category %s not found, nothing to remove", t.CategoryID)
			return nil
		}
		log.Infof("🗑️ Removed category %s with %d descendants", t.CategoryID, tree.Count(removed)-1)

	case *task.MoveCategoryTask:
		if err := store.Move(t.CategoryID, t.NewParentID); err != nil {
			return err
		}
		log.Infof("✅ Moved category %s under %q", t.CategoryID, t.NewParentID)

	default:
		return fmt.Errorf("%w: unknown task type %s", ErrInvalidTask, t.TaskType())
	}
	return nil
}

func (s *Service) persist(ctx context.Context, store *tree.Store, t task.Task) error {
	if _, ok := t.(*task.ExpandTask); ok {
		return s.persistExpanded(ctx, store)
	}
	return s.persistTree(ctx, store)
}

func (s *Service) persistExpanded(ctx context.Context, store *tree.Store) error {
	if s.expandState == nil {
		return nil
	}
	return s.expandState.SetExpanded(ctx, s.view, store.ExpandedIDs())
}

func (s *Service) persistTree(ctx context.Context, store *tree.Store) error {
	if s.repository == nil {
		return nil
	}
	return s.repository.SaveForest(ctx, store.Snapshot())
}

// RunWorkers consumes mutation tasks from every task stream until ctx is
// done or a worker hits a fatal error, which stops the others.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		return fmt.Errorf("no queue configured")
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, taskType := range task.Types {
		s.runWorkersForStream(ctx, g, numWorkers, queue.StreamName(taskType), taskType)
	}

	return g.Wait()
}

// isFatal reports errors no retry can fix: a closed client or an unloaded tree
func isFatal(err error) bool {
	return errors.Is(err, redis.ErrClosed) || errors.Is(err, ErrNotLoaded)
}

func (s *Service) runWorkersForStream(ctx context.Context, g *errgroup.Group, numWorkers int, streamName, workerType string) {
	// Auto-claimer for messages a dead consumer or a failed persist left pending
	g.Go(func() error {
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimedMessages, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
				if err != nil {
					if isFatal(err) {
						return fmt.Errorf("auto-claimer for %s: %w", streamName, err)
					}
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimedMessages), workerType)
					for _, msg := range claimedMessages {
						if err := s.processMessage(ctx, &msg); err != nil {
							if isFatal(err) {
								return err
							}
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}
	})

	for i := 0; i < numWorkers; i++ {
		workerID := i + 1
		g.Go(func() error {
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return nil
				default:
					msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
					if err != nil {
						if isFatal(err) {
							return fmt.Errorf("%s worker %d: %w", workerType, workerID, err)
						}
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, msg); err != nil {
							if isFatal(err) {
								return err
							}
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		})
	}
}

// processMessage applies a message at most once. A message whose mutation
// succeeded but whose persist failed stays pending; on redelivery only the
// persist is retried, so toggles are not flipped back.
func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	t, err := decodeTask(taskType, []byte(taskData))
	if err != nil {
		return err
	}

	store, err := s.currentStore()
	if err != nil {
		return err
	}

	key := queue.StreamName(taskType) + "/" + msg.ID

	s.applyMu.Lock()
	_, redelivered := s.applied[key]
	if redelivered {
		log.Infof("🔄 Message %s already applied, retrying persist only", msg.ID)
	} else if err = s.mutate(store, t); err == nil {
		s.applied[key] = struct{}{}
	}
	if err == nil {
		err = s.persist(ctx, store, t)
	}
	s.applyMu.Unlock()

	if err != nil {
		// A mutation that breaks the tree will never succeed; drop it
		if !errors.Is(err, tree.ErrInvalidTreeStructure) && !errors.Is(err, ErrInvalidTask) {
			return fmt.Errorf("failed to apply %s: %w", taskType, err)
		}
		log.Warnf("⚠️ Rejected %s from message %s: %v", taskType, msg.ID, err)
	}

	if err := s.queue.AckTask(ctx, queue.StreamName(taskType), s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	s.applyMu.Lock()
	delete(s.applied, key)
	s.applyMu.Unlock()

	return nil
}

func decodeTask(taskType string, data []byte) (task.Task, error) {
	var (
		t   task.Task
		err error
	)
	switch taskType {
	case task.ExpandTaskType:
		t, err = task.UnmarshalTask[*task.ExpandTask](data)
	case task.UpsertCategoryTaskType:
		t, err = task.UnmarshalTask[*task.UpsertCategoryTask](data)
	case task.RemoveCategoryTaskType:
		t, err = task.UnmarshalTask[*task.RemoveCategoryTask](data)
	case task.MoveCategoryTaskType:
		t, err = task.UnmarshalTask[*task.MoveCategoryTask](data)
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s data: %w", taskType, err)
	}
	return t, nil
}
