// Package sememe implements the Sememe repository using PostgreSQL.
// Dialect restrictions live in sememe_dialects and are returned as DialectIDs.
package sememe

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

var selectColumns = []string{
	"s.id", "s.lexeme_id", "s.gloss", "s.definition", "s.example", "s.example_translation",
	"s.position", "s.created_at", "s.updated_at",
	"COALESCE(array_agg(sd.dialect_id ORDER BY sd.dialect_id) FILTER (WHERE sd.dialect_id IS NOT NULL), '{}') AS dialect_ids",
}

const (
	insertSQL = `INSERT INTO sememes (id, lexeme_id, gloss, definition, example, example_translation, position, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	insertDialectSQL = `INSERT INTO sememe_dialects (sememe_id, dialect_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

type row struct {
	ID                 uuid.UUID   `db:"id"`
	LexemeID           uuid.UUID   `db:"lexeme_id"`
	Gloss              string      `db:"gloss"`
	Definition         *string     `db:"definition"`
	Example            *string     `db:"example"`
	ExampleTranslation *string     `db:"example_translation"`
	Position           int         `db:"position"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	DialectIDs         []uuid.UUID `db:"dialect_ids"`
}

func (r row) toDomain() domain.Sememe {
	dialects := r.DialectIDs
	if dialects == nil {
		dialects = []uuid.UUID{}
	}
	return domain.Sememe{
		ID:                 r.ID,
		LexemeID:           r.LexemeID,
		Gloss:              r.Gloss,
		Definition:         r.Definition,
		Example:            r.Example,
		ExampleTranslation: r.ExampleTranslation,
		Position:           r.Position,
		DialectIDs:         dialects,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// Repo provides sememe persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new sememe repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a sememe and its dialect links. Call inside a transaction.
func (r *Repo) Create(ctx context.Context, s domain.Sememe) (*domain.Sememe, error) {
	if err := r.CreateBatch(ctx, []domain.Sememe{s}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, s.ID)
}

// CreateBatch inserts sememes and their dialect links in one round-trip.
func (r *Repo) CreateBatch(ctx context.Context, sememes []domain.Sememe) error {
	batch := &pgx.Batch{}
	for _, s := range sememes {
		batch.Queue(insertSQL,
			s.ID, s.LexemeID, s.Gloss, s.Definition, s.Example, s.ExampleTranslation,
			s.Position, s.CreatedAt, s.UpdatedAt,
		)
		for _, d := range s.DialectIDs {
			batch.Queue(insertDialectSQL, s.ID, d)
		}
	}
	if _, err := postgres.SendBatchExec(ctx, r.pool, batch); err != nil {
		return postgres.MapError(err, "sememe batch", uuid.Nil)
	}
	return nil
}

// Update applies a partial update. A non-nil DialectIDs replaces the whole set.
// Call inside a transaction when DialectIDs is set.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.SememeUpdateParams) (*domain.Sememe, error) {
	b := postgres.Builder.Update("sememes").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})
	if params.Gloss != nil {
		b = b.Set("gloss", *params.Gloss)
	}
	if params.Definition != nil {
		b = b.Set("definition", postgres.NullIfEmpty(*params.Definition))
	}
	if params.Example != nil {
		b = b.Set("example", postgres.NullIfEmpty(*params.Example))
	}
	if params.ExampleTranslation != nil {
		b = b.Set("example_translation", postgres.NullIfEmpty(*params.ExampleTranslation))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update sememe: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "sememe", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("sememe %s: %w", id, domain.ErrNotFound)
	}

	if params.DialectIDs != nil {
		if err := r.replaceDialects(ctx, id, *params.DialectIDs); err != nil {
			return nil, err
		}
	}

	return r.GetByID(ctx, id)
}

func (r *Repo) replaceDialects(ctx context.Context, id uuid.UUID, dialectIDs []uuid.UUID) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM sememe_dialects WHERE sememe_id = $1`, id)
	for _, d := range dialectIDs {
		batch.Queue(insertDialectSQL, id, d)
	}
	if _, err := postgres.SendBatchExec(ctx, r.pool, batch); err != nil {
		return postgres.MapError(err, "sememe dialects", id)
	}
	return nil
}

// Reorder assigns new positions. Items not belonging to lexemeID are ignored.
func (r *Repo) Reorder(ctx context.Context, lexemeID uuid.UUID, items []domain.ReorderItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`UPDATE sememes SET position = $1, updated_at = now() WHERE id = $2 AND lexeme_id = $3`,
			it.Position, it.ID, lexemeID)
	}
	if _, err := postgres.SendBatchExec(ctx, r.pool, batch); err != nil {
		return postgres.MapError(err, "sememe reorder", lexemeID)
	}
	return nil
}

// Delete removes a sememe; dialect links cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM sememes WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "sememe", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sememe %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

func baseSelect() sq.SelectBuilder {
	return postgres.Builder.
		Select(selectColumns...).
		From("sememes s").
		LeftJoin("sememe_dialects sd ON sd.sememe_id = s.id").
		GroupBy("s.id")
}

// GetByID returns a sememe by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sememe, error) {
	query, args, err := baseSelect().Where(sq.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sememe: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "sememe", id)
	}
	s := out.toDomain()
	return &s, nil
}

// ListByLexeme returns the sememes of a lexeme ordered by position.
func (r *Repo) ListByLexeme(ctx context.Context, lexemeID uuid.UUID) ([]domain.Sememe, error) {
	return r.ListByLexemeIDs(ctx, []uuid.UUID{lexemeID})
}

// ListByLexemeIDs returns the sememes of many lexemes ordered by lexeme then position.
func (r *Repo) ListByLexemeIDs(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Sememe, error) {
	if len(lexemeIDs) == 0 {
		return []domain.Sememe{}, nil
	}

	query, args, err := baseSelect().
		Where(sq.Eq{"s.lexeme_id": lexemeIDs}).
		OrderBy("s.lexeme_id", "s.position", "s.created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sememes: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sememes: %w", err)
	}

	out := make([]domain.Sememe, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// NextPosition returns the position after the last sememe of a lexeme.
func (r *Repo) NextPosition(ctx context.Context, lexemeID uuid.UUID) (int, error) {
	var n int
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT COALESCE(max(position) + 1, 0) FROM sememes WHERE lexeme_id = $1`, lexemeID).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sememe position: %w", err)
	}
	return n, nil
}
