// Package revision implements the audit trail repository using PostgreSQL.
package revision

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/lexicon-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

var columns = []string{"id", "user_id", "entity_type", "entity_id", "action", "changes", "created_at"}

const insertSQL = `INSERT INTO revisions (id, user_id, entity_type, entity_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type row struct {
	ID         uuid.UUID      `db:"id"`
	UserID     *uuid.UUID     `db:"user_id"`
	EntityType string         `db:"entity_type"`
	EntityID   uuid.UUID      `db:"entity_id"`
	Action     string         `db:"action"`
	Changes    map[string]any `db:"changes"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r row) toDomain() domain.Revision {
	changes := r.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	return domain.Revision{
		ID:         r.ID,
		UserID:     r.UserID,
		EntityType: domain.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		Action:     domain.RevisionAction(r.Action),
		Changes:    changes,
		CreatedAt:  r.CreatedAt,
	}
}

// Repo provides revision persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new revision repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

func changesOrEmpty(c map[string]any) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return c
}

// Create inserts a revision. Revisions are append-only.
func (r *Repo) Create(ctx context.Context, rev domain.Revision) error {
	_, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, insertSQL,
		rev.ID, rev.UserID, string(rev.EntityType), rev.EntityID, string(rev.Action),
		changesOrEmpty(rev.Changes), rev.CreatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "revision", rev.ID)
	}
	return nil
}

// CreateBatch inserts many revisions in one round-trip.
func (r *Repo) CreateBatch(ctx context.Context, revs []domain.Revision) error {
	if len(revs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rev := range revs {
		batch.Queue(insertSQL,
			rev.ID, rev.UserID, string(rev.EntityType), rev.EntityID, string(rev.Action),
			changesOrEmpty(rev.Changes), rev.CreatedAt,
		)
	}
	if _, err := postgres.SendBatchExec(ctx, r.pool, batch); err != nil {
		return postgres.MapError(err, "revision batch", uuid.Nil)
	}
	return nil
}

// ListByEntity returns the newest revisions of one entity first.
func (r *Repo) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("revisions").
		Where(sq.Eq{"entity_type": string(entityType), "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list revisions by entity: %w", err)
	}
	return r.selectRows(ctx, query, args)
}

// List returns revisions matching the filter, newest first, plus the total count.
func (r *Repo) List(ctx context.Context, filter domain.RevisionFilter) ([]domain.Revision, int, error) {
	where := sq.And{}
	if filter.EntityType != nil {
		where = append(where, sq.Eq{"entity_type": string(*filter.EntityType)})
	}
	if filter.UserID != nil {
		where = append(where, sq.Eq{"user_id": *filter.UserID})
	}

	countQuery, countArgs, err := postgres.Builder.Select("count(*)").From("revisions").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count revisions: %w", err)
	}
	var total int
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count revisions: %w", err)
	}

	query, args, err := postgres.Builder.
		Select(columns...).
		From("revisions").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list revisions: %w", err)
	}

	revs, err := r.selectRows(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return revs, total, nil
}

func (r *Repo) selectRows(ctx context.Context, query string, args []any) ([]domain.Revision, error) {
	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	out := make([]domain.Revision, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}
