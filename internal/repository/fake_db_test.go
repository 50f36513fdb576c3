package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memoryDB keeps the categories table in memory. Only the statements the
// repository issues are understood.
type memoryDB struct {
	rows       map[string]categoryRow
	failInsert bool
}

type categoryRow struct {
	id       string
	parentID *string
	position int
	data     []byte
}

func newMemoryDB() *memoryDB {
	return &memoryDB{rows: make(map[string]categoryRow)}
}

func (d *memoryDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "CREATE TABLE") {
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
}

func (d *memoryDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows := make([]categoryRow, 0, len(d.rows))
	for _, r := range d.rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].position != rows[j].position {
			return rows[i].position < rows[j].position
		}
		return rows[i].id < rows[j].id
	})
	return &memoryRows{rows: rows, index: -1}, nil
}

func (d *memoryDB) Begin(ctx context.Context) (pgx.Tx, error) {
	staged := make(map[string]categoryRow, len(d.rows))
	for k, v := range d.rows {
		staged[k] = v
	}
	return &memoryTx{db: d, staged: staged}, nil
}

type memoryRows struct {
	pgx.Rows
	rows  []categoryRow
	index int
}

func (r *memoryRows) Next() bool {
	r.index++
	return r.index < len(r.rows)
}

func (r *memoryRows) Scan(dest ...any) error {
	row := r.rows[r.index]
	*dest[0].(*string) = row.id
	*dest[1].(**string) = row.parentID
	*dest[2].(*[]byte) = row.data
	return nil
}

func (r *memoryRows) Err() error { return nil }
func (r *memoryRows) Close()     {}

type memoryTx struct {
	pgx.Tx
	db     *memoryDB
	staged map[string]categoryRow
	done   bool
}

func (tx *memoryTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.HasPrefix(strings.TrimSpace(sql), "DELETE FROM categories") {
		tx.staged = make(map[string]categoryRow)
		return pgconn.NewCommandTag("DELETE"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
}

func (tx *memoryTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	if tx.db.failInsert {
		return &memoryBatchResults{err: errors.New("insert failed")}
	}
	for _, q := range b.QueuedQueries {
		id := q.Arguments[0].(string)
		if _, ok := tx.staged[id]; ok {
			return &memoryBatchResults{err: fmt.Errorf("duplicate key %s", id)}
		}
		tx.staged[id] = categoryRow{
			id:       id,
			parentID: q.Arguments[1].(*string),
			position: q.Arguments[2].(int),
			data:     q.Arguments[3].([]byte),
		}
	}
	return &memoryBatchResults{}
}

func (tx *memoryTx) Commit(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.db.rows = tx.staged
	tx.done = true
	return nil
}

func (tx *memoryTx) Rollback(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	return nil
}

type memoryBatchResults struct {
	pgx.BatchResults
	err error
}

func (b *memoryBatchResults) Close() error { return b.err }
