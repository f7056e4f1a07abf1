// Package language implements the Language repository using PostgreSQL.
package language

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/lexicon-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

const table = "languages"

var columns = []string{"id", "code", "name", "description", "created_at", "updated_at"}

type row struct {
	ID          uuid.UUID `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r row) toDomain() domain.Language {
	return domain.Language{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Repo provides language persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new language repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a language. ID and timestamps are set by the caller.
func (r *Repo) Create(ctx context.Context, l domain.Language) (*domain.Language, error) {
	query, args, err := postgres.Builder.
		Insert(table).
		Columns(columns...).
		Values(l.ID, l.Code, l.Name, l.Description, l.CreatedAt, l.UpdatedAt).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert language: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "language", l.ID)
	}
	lang := out.toDomain()
	return &lang, nil
}

// GetByID returns a language by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id)
}

// GetByCode returns a language by its ISO code.
func (r *Repo) GetByCode(ctx context.Context, code string) (*domain.Language, error) {
	return r.getOne(ctx, sq.Eq{"code": code}, uuid.Nil)
}

func (r *Repo) getOne(ctx context.Context, where sq.Eq, id uuid.UUID) (*domain.Language, error) {
	query, args, err := postgres.Builder.Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select language: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "language", id)
	}
	lang := out.toDomain()
	return &lang, nil
}

// List returns all languages ordered by name.
func (r *Repo) List(ctx context.Context) ([]domain.Language, error) {
	query, args, err := postgres.Builder.Select(columns...).From(table).OrderBy("name", "code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list languages: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}

	out := make([]domain.Language, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// Update applies a partial update. A Description of "" is stored as NULL.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.LanguageUpdateParams) (*domain.Language, error) {
	b := postgres.Builder.Update(table).Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"id": id})
	if params.Name != nil {
		b = b.Set("name", *params.Name)
	}
	if params.Description != nil {
		b = b.Set("description", postgres.NullIfEmpty(*params.Description))
	}

	query, args, err := b.Suffix("RETURNING " + joinColumns()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update language: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "language", id)
	}
	lang := out.toDomain()
	return &lang, nil
}

// Delete removes a language. Orthographies, dialects and lexemes cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM languages WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "language", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("language %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func joinColumns() string {
	return postgres.JoinColumns(columns)
}
