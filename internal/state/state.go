package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// ExpandStateStore persists the expanded category ids of a dashboard view
type ExpandStateStore interface {
	GetExpanded(ctx context.Context, view string) ([]string, error)
	SetExpanded(ctx context.Context, view string, ids []string) error
}

type redisExpandStateStore struct {
	redisClient redis.Cmdable
	keyPrefix   string
}

func NewRedisExpandStateStore(redisClient redis.Cmdable) ExpandStateStore {
	return &redisExpandStateStore{
		redisClient: redisClient,
		keyPrefix:   "catalog:expanded:",
	}
}

func (s *redisExpandStateStore) GetExpanded(ctx context.Context, view string) ([]string, error) {
	ids, err := s.redisClient.SMembers(ctx, s.keyPrefix+view).Result()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil // Nothing saved yet
		}
		return nil, fmt.Errorf("failed to get expanded categories for view %s: %w", view, err)
	}

	sort.Strings(ids)
	return ids, nil
}

// SetExpanded replaces the stored set atomically
func (s *redisExpandStateStore) SetExpanded(ctx context.Context, view string, ids []string) error {
	key := s.keyPrefix + view

	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(ids) > 0 {
			members := make([]interface{}, len(ids))
			for i, id := range ids {
				members[i] = id
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set expanded categories for view %s: %w", view, err)
	}
	return nil
}
