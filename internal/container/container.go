package container

import (
	"context"
	"fmt"

	"marketplace/catalog/internal/client"
	"marketplace/catalog/internal/config"
	"marketplace/catalog/internal/domain"
	"marketplace/catalog/internal/fixture"
	"marketplace/catalog/internal/queue"
	"marketplace/catalog/internal/repository"
	"marketplace/catalog/internal/service"
	"marketplace/catalog/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config      *config.Config
	Repository  repository.CategoryRepository
	Queue       queue.Queue
	ExpandState state.ExpandStateStore

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. On error
// every connection opened so far is closed again.
func New(ctx context.Context, cfg *config.Config) (_ *Container, err error) {
	container := &Container{
		Config: cfg,
	}
	defer func() {
		if err != nil {
			if closeErr := container.Close(); closeErr != nil {
				log.Warnf("⚠️ Cleanup after failed start: %v", closeErr)
			}
		}
	}()

	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	container.db = db

	if err := repository.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	container.Repository = repository.NewCategoryRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	container.redis = rdb

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		return nil, err
	}
	container.Queue = redisQueue
	container.ExpandState = state.NewRedisExpandStateStore(rdb)

	source, err := container.forestSource()
	if err != nil {
		return nil, err
	}

	container.Service = service.NewService(
		source,
		container.Repository,
		container.Queue,
		container.ExpandState,
		service.Options{
			View:            cfg.Catalog.View,
			Locales:         cfg.Catalog.Locales,
			DefaultExpanded: cfg.Catalog.DefaultExpanded,
			GroupName:       cfg.Redis.ConsumerGroup,
			MinIdleTime:     cfg.Redis.MinIdleTime,
		},
	)

	return container, nil
}

func (c *Container) forestSource() (service.ForestSource, error) {
	switch c.Config.Catalog.Source {
	case "postgres":
		return c.Repository, nil
	case "http":
		return client.NewCatalogClient(c.Config.Catalog), nil
	case "file":
		return fixture.NewFileSource(c.Config.Catalog.File), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", c.Config.Catalog.Source)
	}
}

// Run loads the tree, logs the configured query's view and then processes
// mutation tasks until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	if err := c.Service.Load(ctx); err != nil {
		return err
	}

	if err := c.logView(); err != nil {
		return err
	}

	return c.Service.RunWorkers(ctx, c.Config.Catalog.MaxWorkers)
}

func (c *Container) logView() error {
	query := domain.NewQuery(c.Config.Query.Text, c.Config.Query.Status)

	view, err := c.Service.View(query)
	if err != nil {
		return err
	}

	log.Infof("📊 %d categories, %d active, %d roots, max depth %d",
		view.Stats.Total, view.Stats.Active, view.Stats.RootCount, view.Stats.MaxDepth)
	log.Infof("🔍 Query %q (status %s) matched %d categories",
		query.Text, query.Status, view.Matched.Total)

	for _, r := range view.Rollups {
		log.WithFields(log.Fields{
			"root":     r.RootID,
			"nodes":    r.Nodes,
			"active":   r.Active,
			"products": r.Products,
			"sellers":  r.Sellers,
			"depth":    r.Depth,
		}).Info("Branch rollup")
	}
	return nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
