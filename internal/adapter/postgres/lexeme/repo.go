// Package lexeme implements the Lexeme repository using PostgreSQL.
// Lexemes are soft-deleted; Find excludes deleted rows unless asked.
package lexeme

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/lexicon-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

var columns = []string{
	"id", "language_id", "part_of_speech", "notes", "tags", "source",
	"created_at", "updated_at", "deleted_at",
}

const insertSQL = `INSERT INTO lexemes (id, language_id, part_of_speech, notes, tags, source, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type row struct {
	ID           uuid.UUID  `db:"id"`
	LanguageID   uuid.UUID  `db:"language_id"`
	PartOfSpeech string     `db:"part_of_speech"`
	Notes        *string    `db:"notes"`
	Tags         []string   `db:"tags"`
	Source       *string    `db:"source"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (r row) toDomain() domain.Lexeme {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Lexeme{
		ID:           r.ID,
		LanguageID:   r.LanguageID,
		PartOfSpeech: domain.PartOfSpeech(r.PartOfSpeech),
		Notes:        r.Notes,
		Tags:         tags,
		Source:       r.Source,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		DeletedAt:    r.DeletedAt,
	}
}

// Repo provides lexeme persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new lexeme repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a lexeme row (variants and sememes are inserted separately).
func (r *Repo) Create(ctx context.Context, l domain.Lexeme) (*domain.Lexeme, error) {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := postgres.Builder.
		Insert("lexemes").
		Columns(columns[:8]...).
		Values(l.ID, l.LanguageID, string(l.PartOfSpeech), l.Notes, tags, l.Source, l.CreatedAt, l.UpdatedAt).
		Suffix("RETURNING " + postgres.JoinColumns(columns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert lexeme: %w", err)
	}
	return r.getRow(ctx, l.ID, query, args)
}

// CreateBatch inserts lexeme rows in one round-trip. Call inside a transaction.
func (r *Repo) CreateBatch(ctx context.Context, lexemes []domain.Lexeme) error {
	batch := &pgx.Batch{}
	for _, l := range lexemes {
		tags := l.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(insertSQL, l.ID, l.LanguageID, string(l.PartOfSpeech), l.Notes, tags, l.Source, l.CreatedAt, l.UpdatedAt)
	}
	if _, err := postgres.SendBatchExec(ctx, r.pool, batch); err != nil {
		return postgres.MapError(err, "lexeme batch", uuid.Nil)
	}
	return nil
}

// Update applies a partial update and bumps updated_at.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.LexemeUpdateParams) (*domain.Lexeme, error) {
	b := postgres.Builder.Update("lexemes").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	if params.PartOfSpeech != nil {
		b = b.Set("part_of_speech", string(*params.PartOfSpeech))
	}
	if params.Notes != nil {
		b = b.Set("notes", postgres.NullIfEmpty(*params.Notes))
	}
	if params.Tags != nil {
		tags := *params.Tags
		if tags == nil {
			tags = []string{}
		}
		b = b.Set("tags", tags)
	}
	if params.Source != nil {
		b = b.Set("source", postgres.NullIfEmpty(*params.Source))
	}

	query, args, err := b.Suffix("RETURNING " + postgres.JoinColumns(columns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update lexeme: %w", err)
	}
	return r.getRow(ctx, id, query, args)
}

// Touch bumps updated_at after a child variant or sememe changed.
func (r *Repo) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`UPDATE lexemes SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "lexeme", id)
	}
	return nil
}

// SoftDelete marks an active lexeme as deleted.
func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`UPDATE lexemes SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return postgres.MapError(err, "lexeme", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lexeme %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Restore clears deleted_at on a soft-deleted lexeme.
func (r *Repo) Restore(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error) {
	query := `UPDATE lexemes SET deleted_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NOT NULL
		RETURNING ` + postgres.JoinColumns(columns)
	return r.getRow(ctx, id, query, []any{id})
}

// PurgeDeleted permanently removes lexemes soft-deleted before threshold.
// Variants and sememes cascade.
func (r *Repo) PurgeDeleted(ctx context.Context, threshold time.Time) (int64, error) {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`DELETE FROM lexemes WHERE deleted_at IS NOT NULL AND deleted_at < $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("purge deleted lexemes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a lexeme by primary key, including soft-deleted ones.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error) {
	query, args, err := postgres.Builder.Select(columns...).From("lexemes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select lexeme: %w", err)
	}
	return r.getRow(ctx, id, query, args)
}

// Find returns one page of lexemes matching the filter and the total count.
// Limit and Offset must already be normalized by the caller.
func (r *Repo) Find(ctx context.Context, filter domain.LexemeFilter) ([]domain.Lexeme, int, error) {
	where := whereClause(filter)
	q := postgres.QuerierFromCtx(ctx, r.pool)

	countSQL, countArgs, err := postgres.Builder.Select("count(*)").From("lexemes l").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count lexemes: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lexemes: %w", err)
	}
	if total == 0 {
		return []domain.Lexeme{}, 0, nil
	}

	sel := postgres.Builder.
		Select(prefixed("l", columns)...).
		From("lexemes l").
		Where(where).
		OrderBy(orderBy(filter)...)
	if filter.Limit > 0 {
		sel = sel.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		sel = sel.Offset(uint64(filter.Offset))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build find lexemes: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("find lexemes: %w", err)
	}

	out := make([]domain.Lexeme, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, total, nil
}

// ListActiveByLanguage returns every active lexeme of a language in creation order.
func (r *Repo) ListActiveByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Lexeme, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("lexemes").
		Where(sq.Eq{"language_id": languageID, "deleted_at": nil}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list lexemes: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lexemes by language: %w", err)
	}

	out := make([]domain.Lexeme, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// CountByLanguage counts lexemes of a language; soft-deleted ones are included
// only when includeDeleted is set.
func (r *Repo) CountByLanguage(ctx context.Context, languageID uuid.UUID, includeDeleted bool) (int, error) {
	query := `SELECT count(*) FROM lexemes WHERE language_id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}

	var n int
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, languageID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lexemes by language: %w", err)
	}
	return n, nil
}

type mainLemmaRow struct {
	LemmaNormalized string    `db:"lemma_normalized"`
	LexemeID        uuid.UUID `db:"lexeme_id"`
}

// FindByMainLemmas maps normalized main lemmas to the IDs of active lexemes of
// the language that carry them. Lemmas without a match are absent from the map.
func (r *Repo) FindByMainLemmas(ctx context.Context, languageID uuid.UUID, normalized []string) (map[string][]uuid.UUID, error) {
	out := make(map[string][]uuid.UUID)
	if len(normalized) == 0 {
		return out, nil
	}

	var rows []mainLemmaRow
	err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows,
		`SELECT v.lemma_normalized, l.id AS lexeme_id
		 FROM lexemes l
		 JOIN variants v ON v.lexeme_id = l.id AND v.is_main
		 WHERE l.language_id = $1 AND l.deleted_at IS NULL AND v.lemma_normalized = ANY($2)
		 ORDER BY l.created_at`,
		languageID, normalized,
	)
	if err != nil {
		return nil, fmt.Errorf("find lexemes by main lemma: %w", err)
	}

	for _, rw := range rows {
		out[rw.LemmaNormalized] = append(out[rw.LemmaNormalized], rw.LexemeID)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) getRow(ctx context.Context, id uuid.UUID, query string, args []any) (*domain.Lexeme, error) {
	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "lexeme", id)
	}
	l := out.toDomain()
	return &l, nil
}

func whereClause(f domain.LexemeFilter) sq.And {
	where := sq.And{}
	if f.LanguageID != nil {
		where = append(where, sq.Eq{"l.language_id": *f.LanguageID})
	}
	if !f.IncludeDeleted {
		where = append(where, sq.Eq{"l.deleted_at": nil})
	}
	if f.PartOfSpeech != nil {
		where = append(where, sq.Eq{"l.part_of_speech": string(*f.PartOfSpeech)})
	}
	if f.Tag != nil {
		where = append(where, sq.Expr("? = ANY(l.tags)", *f.Tag))
	}
	if f.Search != nil {
		if s := domain.NormalizeText(*f.Search); s != "" {
			pattern := "%" + escapeLike(s) + "%"
			where = append(where, sq.Or{
				sq.Expr("EXISTS (SELECT 1 FROM variants v WHERE v.lexeme_id = l.id AND v.lemma_normalized LIKE ?)", pattern),
				sq.Expr("EXISTS (SELECT 1 FROM sememes s WHERE s.lexeme_id = l.id AND s.gloss ILIKE ?)", pattern),
			})
		}
	}
	return where
}

func orderBy(f domain.LexemeFilter) []string {
	dir := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		dir = "DESC"
	}

	switch f.SortBy {
	case "created_at":
		return []string{"l.created_at " + dir, "l.id"}
	case "updated_at":
		return []string{"l.updated_at " + dir, "l.id"}
	default:
		return []string{
			"(SELECT v.lemma_normalized FROM variants v WHERE v.lexeme_id = l.id AND v.is_main) " + dir + " NULLS LAST",
			"l.id",
		}
	}
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
