// Package variant implements the Variant repository using PostgreSQL.
package variant

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

var columns = []string{
	"id", "lexeme_id", "orthography_id", "lemma", "lemma_normalized",
	"pronunciation", "is_main", "position", "created_at",
}

const insertSQL = `INSERT INTO variants (id, lexeme_id, orthography_id, lemma, lemma_normalized, pronunciation, is_main, position, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type row struct {
	ID              uuid.UUID `db:"id"`
	LexemeID        uuid.UUID `db:"lexeme_id"`
	OrthographyID   uuid.UUID `db:"orthography_id"`
	Lemma           string    `db:"lemma"`
	LemmaNormalized string    `db:"lemma_normalized"`
	Pronunciation   *string   `db:"pronunciation"`
	IsMain          bool      `db:"is_main"`
	Position        int       `db:"position"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Variant {
	return domain.Variant{
		ID:              r.ID,
		LexemeID:        r.LexemeID,
		OrthographyID:   r.OrthographyID,
		Lemma:           r.Lemma,
		LemmaNormalized: r.LemmaNormalized,
		Pronunciation:   r.Pronunciation,
		IsMain:          r.IsMain,
		Position:        r.Position,
		CreatedAt:       r.CreatedAt,
	}
}

func insertArgs(v domain.Variant) []any {
	return []any{v.ID, v.LexemeID, v.OrthographyID, v.Lemma, v.LemmaNormalized, v.Pronunciation, v.IsMain, v.Position, v.CreatedAt}
}

// Repo provides variant persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new variant repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a single variant.
func (r *Repo) Create(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	return r.getRow(ctx, v.ID, insertSQL+" RETURNING "+postgres.JoinColumns(columns), insertArgs(v))
}

// CreateBatch inserts variants in one round-trip (pgx.Batch).
func (r *Repo) CreateBatch(ctx context.Context, variants []domain.Variant) error {
	batch := &pgx.Batch{}
	for _, v := range variants {
		batch.Queue(insertSQL, insertArgs(v)...)
	}
	if _, err := postgres.SendBatchExec(ctx, r.pool, batch); err != nil {
		return postgres.MapError(err, "variant batch", uuid.Nil)
	}
	return nil
}

// Update applies a partial update. LemmaNormalized must be set by the caller
// whenever Lemma changes.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.VariantUpdateParams, lemmaNormalized *string) (*domain.Variant, error) {
	b := postgres.Builder.Update("variants").Where(sq.Eq{"id": id})
	changed := false
	if params.OrthographyID != nil {
		b = b.Set("orthography_id", *params.OrthographyID)
		changed = true
	}
	if params.Lemma != nil {
		b = b.Set("lemma", *params.Lemma)
		changed = true
	}
	if lemmaNormalized != nil {
		b = b.Set("lemma_normalized", *lemmaNormalized)
		changed = true
	}
	if params.Pronunciation != nil {
		b = b.Set("pronunciation", postgres.NullIfEmpty(*params.Pronunciation))
		changed = true
	}
	if !changed {
		return r.GetByID(ctx, id)
	}

	query, args, err := b.Suffix("RETURNING " + postgres.JoinColumns(columns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update variant: %w", err)
	}
	return r.getRow(ctx, id, query, args)
}

// SetMain makes variantID the only main variant of its lexeme. The unset runs
// first so the partial unique index never sees two main rows.
func (r *Repo) SetMain(ctx context.Context, lexemeID, variantID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx,
		`UPDATE variants SET is_main = false WHERE lexeme_id = $1 AND is_main AND id <> $2`,
		lexemeID, variantID,
	); err != nil {
		return postgres.MapError(err, "variant", variantID)
	}

	tag, err := q.Exec(ctx,
		`UPDATE variants SET is_main = true WHERE id = $1 AND lexeme_id = $2`,
		variantID, lexemeID,
	)
	if err != nil {
		return postgres.MapError(err, "variant", variantID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("variant %s: %w", variantID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a variant.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "variant", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("variant %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a variant by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	query, args, err := postgres.Builder.Select(columns...).From("variants").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select variant: %w", err)
	}
	return r.getRow(ctx, id, query, args)
}

// ListByLexeme returns the variants of a lexeme ordered by position.
func (r *Repo) ListByLexeme(ctx context.Context, lexemeID uuid.UUID) ([]domain.Variant, error) {
	return r.ListByLexemeIDs(ctx, []uuid.UUID{lexemeID})
}

// ListByLexemeIDs returns the variants of many lexemes, ordered by lexeme then position.
func (r *Repo) ListByLexemeIDs(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Variant, error) {
	if len(lexemeIDs) == 0 {
		return []domain.Variant{}, nil
	}

	query, args, err := postgres.Builder.
		Select(columns...).
		From("variants").
		Where(sq.Eq{"lexeme_id": lexemeIDs}).
		OrderBy("lexeme_id", "position", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list variants: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}

	out := make([]domain.Variant, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// CountByOrthography counts variants written in an orthography.
func (r *Repo) CountByOrthography(ctx context.Context, orthographyID uuid.UUID) (int, error) {
	var n int
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT count(*) FROM variants WHERE orthography_id = $1`, orthographyID).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count variants by orthography: %w", err)
	}
	return n, nil
}

// NextPosition returns the position after the last variant of a lexeme.
func (r *Repo) NextPosition(ctx context.Context, lexemeID uuid.UUID) (int, error) {
	var n int
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT COALESCE(max(position) + 1, 0) FROM variants WHERE lexeme_id = $1`, lexemeID).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next variant position: %w", err)
	}
	return n, nil
}

func (r *Repo) getRow(ctx context.Context, id uuid.UUID, query string, args []any) (*domain.Variant, error) {
	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "variant", id)
	}
	v := out.toDomain()
	return &v, nil
}
