// Package dialect implements the Dialect repository using PostgreSQL.
package dialect

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

var columns = []string{"id", "language_id", "name", "abbreviation", "created_at"}

type row struct {
	ID           uuid.UUID `db:"id"`
	LanguageID   uuid.UUID `db:"language_id"`
	Name         string    `db:"name"`
	Abbreviation *string   `db:"abbreviation"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Dialect {
	return domain.Dialect{
		ID:           r.ID,
		LanguageID:   r.LanguageID,
		Name:         r.Name,
		Abbreviation: r.Abbreviation,
		CreatedAt:    r.CreatedAt,
	}
}

// Repo provides dialect persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new dialect repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a dialect.
func (r *Repo) Create(ctx context.Context, d domain.Dialect) (*domain.Dialect, error) {
	query, args, err := postgres.Builder.
		Insert("dialects").
		Columns(columns...).
		Values(d.ID, d.LanguageID, d.Name, d.Abbreviation, d.CreatedAt).
		Suffix("RETURNING " + postgres.JoinColumns(columns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert dialect: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "dialect", d.ID)
	}
	res := out.toDomain()
	return &res, nil
}

// GetByID returns a dialect by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dialect, error) {
	query, args, err := postgres.Builder.Select(columns...).From("dialects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select dialect: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "dialect", id)
	}
	res := out.toDomain()
	return &res, nil
}

// ListByLanguage returns the dialects of a language ordered by name.
func (r *Repo) ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("dialects").
		Where(sq.Eq{"language_id": languageID}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list dialects: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list dialects: %w", err)
	}

	out := make([]domain.Dialect, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// Delete removes a dialect; sememe restrictions to it are dropped by cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM dialects WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "dialect", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dialect %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
