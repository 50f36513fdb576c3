package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace/catalog/internal/domain"
	"marketplace/catalog/internal/tree"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the categories table. Each row is one node; the tree is
// rebuilt from parent_id and position on load.
const Schema = `
CREATE TABLE IF NOT EXISTS categories (
	id        TEXT PRIMARY KEY,
	parent_id TEXT,
	position  INTEGER NOT NULL DEFAULT 0,
	data      JSONB NOT NULL
)`

type CategoryRepository interface {
	LoadForest(ctx context.Context) ([]*domain.CategoryNode, error)
	SaveForest(ctx context.Context, roots []*domain.CategoryNode) error
}

// DB is the subset of pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type categoryRepository struct {
	db DB
}

func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{
		db: db,
	}
}

// EnsureSchema creates the categories table if missing
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create categories table: %w", err)
	}
	return nil
}

// LoadForest reads every row and assembles the forest, re-validating the
// parent links.
func (r *categoryRepository) LoadForest(ctx context.Context) ([]*domain.CategoryNode, error) {
	rows, err := r.db.Query(ctx, `SELECT id, parent_id, data FROM categories ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	flat := make([]*domain.CategoryNode, 0)
	for rows.Next() {
		var (
			id       string
			parentID *string
			data     []byte
		)
		if err := rows.Scan(&id, &parentID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}

		node, err := decodeNode(id, parentID, data)
		if err != nil {
			return nil, err
		}
		flat = append(flat, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	forest, err := tree.BuildFromFlat(flat)
	if err != nil {
		return nil, fmt.Errorf("failed to build category tree: %w", err)
	}
	return forest, nil
}

// SaveForest replaces the whole table in one transaction. Positions follow
// the depth-first display order so sibling ties reload in the same order.
func (r *categoryRepository) SaveForest(ctx context.Context, roots []*domain.CategoryNode) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	batch := &pgx.Batch{}
	for position, node := range tree.Flatten(roots) {
		data, err := encodeNode(node)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO categories (id, parent_id, position, data) VALUES ($1, $2, $3, $4)`,
			node.ID, nullable(node.ParentID), position, data)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert categories: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit categories: %w", err)
	}
	return nil
}

func encodeNode(node *domain.CategoryNode) ([]byte, error) {
	data, err := json.Marshal(node.CloneWithoutChildren())
	if err != nil {
		return nil, fmt.Errorf("failed to encode category %s: %w", node.ID, err)
	}
	return data, nil
}

func decodeNode(id string, parentID *string, data []byte) (*domain.CategoryNode, error) {
	var node domain.CategoryNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode category %s: %w", id, err)
	}

	// Columns are authoritative over the payload
	node.ID = id
	node.ParentID = ""
	if parentID != nil {
		node.ParentID = *parentID
	}
	node.Children = nil
	return &node, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
