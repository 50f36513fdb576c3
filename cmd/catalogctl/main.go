package main

import (
	"context"
	"fmt"
	"os"

	"marketplace/catalog/internal/config"
	"marketplace/catalog/internal/domain/task"
	"marketplace/catalog/internal/queue"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(redisEnqueue).Execute(); err != nil {
		os.Exit(1)
	}
}

// redisEnqueue publishes t on its stream using the Redis settings of the
// config directory given by --config
func redisEnqueue(cmd *cobra.Command, t task.Task) (string, error) {
	dir, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return "", err
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	defer rdb.Close()

	q, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		return "", fmt.Errorf("failed to initialize Redis queue: %w", err)
	}
	return q.AddTask(ctx, t)
}
