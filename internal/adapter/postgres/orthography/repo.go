// Package orthography implements the Orthography repository using PostgreSQL.
package orthography

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

const table = "orthographies"

var columns = []string{"id", "language_id", "name", "abbreviation", "description", "is_default", "created_at"}

type row struct {
	ID           uuid.UUID `db:"id"`
	LanguageID   uuid.UUID `db:"language_id"`
	Name         string    `db:"name"`
	Abbreviation string    `db:"abbreviation"`
	Description  *string   `db:"description"`
	IsDefault    bool      `db:"is_default"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Orthography {
	return domain.Orthography{
		ID:           r.ID,
		LanguageID:   r.LanguageID,
		Name:         r.Name,
		Abbreviation: r.Abbreviation,
		Description:  r.Description,
		IsDefault:    r.IsDefault,
		CreatedAt:    r.CreatedAt,
	}
}

// Repo provides orthography persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new orthography repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Create inserts an orthography.
func (r *Repo) Create(ctx context.Context, o domain.Orthography) (*domain.Orthography, error) {
	query, args, err := postgres.Builder.
		Insert(table).
		Columns(columns...).
		Values(o.ID, o.LanguageID, o.Name, o.Abbreviation, o.Description, o.IsDefault, o.CreatedAt).
		Suffix("RETURNING " + postgres.JoinColumns(columns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert orthography: %w", err)
	}
	return r.getRow(ctx, o.ID, query, args)
}

// GetByID returns an orthography by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Orthography, error) {
	query, args, err := postgres.Builder.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select orthography: %w", err)
	}
	return r.getRow(ctx, id, query, args)
}

// ListByLanguage returns the orthographies of a language, default first.
func (r *Repo) ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"language_id": languageID}).
		OrderBy("is_default DESC", "abbreviation").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orthographies: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list orthographies: %w", err)
	}

	out := make([]domain.Orthography, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// Update applies a partial update.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.OrthographyUpdateParams) (*domain.Orthography, error) {
	b := postgres.Builder.Update(table).Where(sq.Eq{"id": id})
	changed := false
	if params.Name != nil {
		b = b.Set("name", *params.Name)
		changed = true
	}
	if params.Abbreviation != nil {
		b = b.Set("abbreviation", *params.Abbreviation)
		changed = true
	}
	if params.Description != nil {
		b = b.Set("description", postgres.NullIfEmpty(*params.Description))
		changed = true
	}
	if params.IsDefault != nil {
		b = b.Set("is_default", *params.IsDefault)
		changed = true
	}
	if !changed {
		return r.GetByID(ctx, id)
	}

	query, args, err := b.Suffix("RETURNING " + postgres.JoinColumns(columns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update orthography: %w", err)
	}
	return r.getRow(ctx, id, query, args)
}

// ClearDefault unsets the default flag on every orthography of the language.
// Must run in the same transaction that sets the new default.
func (r *Repo) ClearDefault(ctx context.Context, languageID uuid.UUID) error {
	_, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`UPDATE orthographies SET is_default = false WHERE language_id = $1 AND is_default`,
		languageID,
	)
	if err != nil {
		return fmt.Errorf("clear default orthography: %w", err)
	}
	return nil
}

// Delete removes an orthography. Fails with ErrNotFound (FK) while variants use it.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM orthographies WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "orthography", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orthography %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) getRow(ctx context.Context, id uuid.UUID, query string, args []any) (*domain.Orthography, error) {
	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "orthography", id)
	}
	o := out.toDomain()
	return &o, nil
}
