package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const entrySelect = `
SELECT a.id, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta, a.occurred_at
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id
WHERE a.occurred_at >= $1 AND a.occurred_at < $2
  AND ($3::bigint = 0 OR a.actor_id = $3)
  AND ($4::text = '' OR a.entity = $4)
  AND ($5::text = '' OR a.action = $5)
ORDER BY a.occurred_at DESC, a.id DESC`

func (r *PGRepository) Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, entrySelect+` LIMIT $6 OFFSET $7`,
		filters.From, filters.To, filters.ActorID, filters.Entity, filters.Action, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *PGRepository) All(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, entrySelect,
		filters.From, filters.To, filters.ActorID, filters.Entity, filters.Action)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *PGRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			metaRaw []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorEmail, &e.Action, &e.Entity, &e.EntityID, &metaRaw, &e.At); err != nil {
			return nil, err
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode meta for audit entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
