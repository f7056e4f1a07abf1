// Package importrun implements persistence of CSV import runs using PostgreSQL.
package importrun

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/lexicon-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

const columns = `id, user_id, language_id, file_name, profile, dry_run, status, report, started_at, finished_at`

type row struct {
	ID         uuid.UUID  `db:"id"`
	UserID     *uuid.UUID `db:"user_id"`
	LanguageID uuid.UUID  `db:"language_id"`
	FileName   string     `db:"file_name"`
	Profile    string     `db:"profile"`
	DryRun     bool       `db:"dry_run"`
	Status     string     `db:"status"`
	Report     []byte     `db:"report"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
}

func (r row) toDomain() domain.ImportRun {
	var report json.RawMessage
	if len(r.Report) > 0 {
		report = json.RawMessage(r.Report)
	}
	return domain.ImportRun{
		ID:         r.ID,
		UserID:     r.UserID,
		LanguageID: r.LanguageID,
		FileName:   r.FileName,
		Profile:    r.Profile,
		DryRun:     r.DryRun,
		Status:     domain.ImportStatus(r.Status),
		Report:     report,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// Repo provides import run persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new import run repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a run in RUNNING state.
func (r *Repo) Create(ctx context.Context, run domain.ImportRun) (*domain.ImportRun, error) {
	var out row
	err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out,
		`INSERT INTO import_runs (id, user_id, language_id, file_name, profile, dry_run, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+columns,
		run.ID, run.UserID, run.LanguageID, run.FileName, run.Profile, run.DryRun,
		string(domain.ImportStatusRunning), run.StartedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "import run", run.ID)
	}
	result := out.toDomain()
	return &result, nil
}

// Finish stores the final status and report of a run.
func (r *Repo) Finish(ctx context.Context, id uuid.UUID, status domain.ImportStatus, report json.RawMessage, finishedAt time.Time) (*domain.ImportRun, error) {
	var reportArg []byte
	if len(report) > 0 {
		reportArg = []byte(report)
	}

	var out row
	err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out,
		`UPDATE import_runs SET status = $2, report = $3, finished_at = $4
		 WHERE id = $1
		 RETURNING `+columns,
		id, string(status), reportArg, finishedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "import run", id)
	}
	result := out.toDomain()
	return &result, nil
}

// GetByID returns a run by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out,
		`SELECT `+columns+` FROM import_runs WHERE id = $1`, id); err != nil {
		return nil, postgres.MapError(err, "import run", id)
	}
	result := out.toDomain()
	return &result, nil
}

// List returns runs newest first together with the total count.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM import_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count import runs: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, q, &rows,
		`SELECT `+columns+` FROM import_runs ORDER BY started_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list import runs: %w", err)
	}

	out := make([]domain.ImportRun, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, total, nil
}
