// Package importer turns CSV files into lexemes. Rows are read with a
// RowReader, converted into drafts by pluggable creator strategies,
// validated, and written in transactional batches. Every outcome is
// collected as a categorized message in a Report.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/metrics"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type languageRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error)
}

type orthographyRepo interface {
	ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
}

type dialectRepo interface {
	ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
}

type lexemeRepo interface {
	CreateBatch(ctx context.Context, lexemes []domain.Lexeme) error
	FindByMainLemmas(ctx context.Context, languageID uuid.UUID, normalized []string) (map[string][]uuid.UUID, error)
}

type variantRepo interface {
	CreateBatch(ctx context.Context, variants []domain.Variant) error
}

type sememeRepo interface {
	CreateBatch(ctx context.Context, sememes []domain.Sememe) error
}

type revisionRecorder interface {
	New(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) domain.Revision
	RecordBatch(ctx context.Context, revs []domain.Revision) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// DuplicatePolicy decides what happens to a row whose main lemma already exists.
type DuplicatePolicy string

const (
	// OnDuplicateSkip leaves the row out with a warning.
	OnDuplicateSkip DuplicatePolicy = "skip"
	// OnDuplicateAdd imports the row as a homonym with an info message.
	OnDuplicateAdd DuplicatePolicy = "add"
)

// IsValid reports whether p is a known policy.
func (p DuplicatePolicy) IsValid() bool {
	return p == OnDuplicateSkip || p == OnDuplicateAdd
}

const defaultBatchSize = 100

// Options control one import run.
type Options struct {
	LanguageID uuid.UUID
	Profile    *Profile
	// Strategies overrides the profile-driven creators when set.
	Strategies *Strategies

	BatchSize     int
	SkipCount     int
	MaxErrors     int
	ValidateFirst bool
	StopOnError   bool
	DryRun        bool
	OnDuplicate   DuplicatePolicy
}

// Validate checks the options and fills defaults.
func (o *Options) Validate() error {
	var errs domain.FieldErrors
	if o.LanguageID == uuid.Nil {
		errs.Add("language_id", "required")
	}
	if o.Profile == nil {
		o.Profile = DefaultProfile()
	}
	if o.BatchSize == 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchSize < 1 || o.BatchSize > 10000 {
		errs.Add("batch_size", "must be between 1 and 10000")
	}
	if o.SkipCount < 0 {
		errs.Add("skip", "must be >= 0")
	}
	if o.MaxErrors < 0 {
		errs.Add("max_errors", "must be >= 0")
	}
	if o.OnDuplicate == "" {
		o.OnDuplicate = OnDuplicateSkip
	}
	if !o.OnDuplicate.IsValid() {
		errs.Add("on_duplicate", "must be skip or add")
	}
	return errs.Err()
}

// ---------------------------------------------------------------------------
// Importer
// ---------------------------------------------------------------------------

// Importer runs CSV imports against the lexicon store.
type Importer struct {
	log           *slog.Logger
	languages     languageRepo
	orthographies orthographyRepo
	dialects      dialectRepo
	lexemes       lexemeRepo
	variants      variantRepo
	sememes       sememeRepo
	revisions     revisionRecorder
	tx            txManager
	clock         func() time.Time
}

// New creates an Importer.
func New(
	logger *slog.Logger,
	languages languageRepo,
	orthographies orthographyRepo,
	dialects dialectRepo,
	lexemes lexemeRepo,
	variants variantRepo,
	sememes sememeRepo,
	revisions revisionRecorder,
	tx txManager,
) *Importer {
	return &Importer{
		log:           logger.With("service", "importer"),
		languages:     languages,
		orthographies: orthographies,
		dialects:      dialects,
		lexemes:       lexemes,
		variants:      variants,
		sememes:       sememes,
		revisions:     revisions,
		tx:            tx,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

// Run imports src. The returned report is never nil. A non-nil error means
// the run could not finish: bad options or header, a store failure outside a
// batch, or context cancellation.
func (im *Importer) Run(ctx context.Context, src io.Reader, opts Options) (*Report, error) {
	r := &run{im: im, opts: opts, start: im.clock(), seen: map[string]int{}}
	r.report.DryRun = opts.DryRun

	err := r.execute(ctx, src)
	rep := r.finish()
	if err != nil {
		return rep, err
	}

	im.log.InfoContext(ctx, "import finished",
		"language_id", opts.LanguageID,
		"read", rep.Read, "imported", rep.Imported, "skipped", rep.Skipped, "failed", rep.Failed,
		"dry_run", rep.DryRun, "duration", rep.Duration)
	return rep, nil
}

type run struct {
	im    *Importer
	opts  Options
	start time.Time

	report    Report
	msgs      Messages
	validator *Validator
	build     Strategies

	seen      map[string]int
	pending   []*Draft
	halted    bool
	skipNoted bool
}

func (r *run) execute(ctx context.Context, src io.Reader) error {
	if err := r.opts.Validate(); err != nil {
		r.abort(err.Error())
		return err
	}
	p := r.opts.Profile

	if _, err := r.im.languages.GetByID(ctx, r.opts.LanguageID); err != nil {
		r.abort("language not found")
		return fmt.Errorf("load language: %w", err)
	}
	orths, err := r.im.orthographies.ListByLanguage(ctx, r.opts.LanguageID)
	if err != nil {
		return fmt.Errorf("load orthographies: %w", err)
	}
	dialects, err := r.im.dialects.ListByLanguage(ctx, r.opts.LanguageID)
	if err != nil {
		return fmt.Errorf("load dialects: %w", err)
	}

	r.validator = NewValidator(NewResolver(orths, dialects), p)
	r.build = ProfileStrategies(p)
	if r.opts.Strategies != nil {
		r.build = *r.opts.Strategies
	}

	rr, err := NewRowReader(src, p.ReaderOptions())
	if err != nil {
		r.abort(err.Error())
		return domain.NewValidationError("file", err.Error())
	}
	if missing := p.missingColumns(rr.HasColumn); len(missing) > 0 {
		text := "missing required column(s): " + strings.Join(missing, ", ")
		r.abort(text)
		return domain.NewValidationError("file", text)
	}
	r.noteUnmappedColumns(rr.Header())

	if err := r.readRows(ctx, rr); err != nil {
		return err
	}

	if r.opts.ValidateFirst && r.msgs.ErrorCount() > 0 {
		r.report.Skipped += len(r.pending)
		r.pending = nil
		r.report.Aborted = true
		r.msgs.Add(Message{Level: domain.MessageLevelError, Text: "validation failed, nothing was imported"})
		return nil
	}
	return r.flushAll(ctx)
}

func (r *run) readRows(ctx context.Context, rr *RowReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import interrupted: %w", err)
		}
		if r.stopReading() {
			return nil
		}

		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			r.report.Read++
			if r.skip(rowErr.Number) {
				continue
			}
			r.report.Failed++
			r.msgs.Add(Message{Level: domain.MessageLevelError, Row: rowErr.Number, Line: rowErr.Line, Text: rowErr.Err.Error()})
			continue
		}
		if err != nil {
			return err
		}
		r.report.Read++
		if r.skip(row.Number) {
			continue
		}

		d := r.build.Build(row, &r.msgs)
		if !r.validator.Validate(row, d, &r.msgs) {
			r.report.Failed++
			continue
		}
		if !r.checkFileDuplicate(row, d) {
			continue
		}

		r.pending = append(r.pending, d)
		if !r.opts.ValidateFirst && len(r.pending) >= r.opts.BatchSize {
			if err := r.flushAll(ctx); err != nil {
				return err
			}
		}
	}
}

// skip counts rows inside the resume range, malformed or not.
func (r *run) skip(number int) bool {
	if number > r.opts.SkipCount {
		return false
	}
	if !r.skipNoted {
		r.skipNoted = true
		r.msgs.Add(Message{Level: domain.MessageLevelInfo, Text: fmt.Sprintf("skipping the first %d rows", r.opts.SkipCount)})
	}
	r.report.Skipped++
	return true
}

func (r *run) stopReading() bool {
	if r.opts.MaxErrors > 0 && r.msgs.ErrorCount() >= r.opts.MaxErrors {
		r.report.Aborted = true
		r.msgs.Add(Message{Level: domain.MessageLevelInfo, Text: fmt.Sprintf("stopped after %d errors", r.msgs.ErrorCount())})
		return true
	}
	if r.opts.StopOnError && r.msgs.ErrorCount() > 0 {
		r.report.Aborted = true
		r.msgs.Add(Message{Level: domain.MessageLevelInfo, Text: "stopped at the first error"})
		return true
	}
	return r.halted
}

func (r *run) checkFileDuplicate(row Row, d *Draft) bool {
	main := d.MainVariant()
	if main == nil {
		return true
	}
	key := domain.NormalizeText(main.Lemma)
	first, dup := r.seen[key]
	if !dup {
		r.seen[key] = row.Number
		return true
	}
	if r.opts.OnDuplicate == OnDuplicateAdd {
		r.msgs.Info(row, main.Column, fmt.Sprintf("same main lemma as row %d, added as a separate lexeme", first))
		return true
	}
	r.msgs.Warning(row, main.Column, fmt.Sprintf("duplicate of row %d, skipped", first))
	r.report.Skipped++
	return false
}

// flushAll writes pending drafts in batches of BatchSize.
func (r *run) flushAll(ctx context.Context) error {
	for len(r.pending) > 0 {
		n := min(r.opts.BatchSize, len(r.pending))
		batch := r.pending[:n]
		r.pending = r.pending[n:]

		if r.halted {
			r.report.Skipped += len(batch)
			continue
		}
		if err := ctx.Err(); err != nil {
			r.report.Skipped += len(batch) + len(r.pending)
			r.pending = nil
			return fmt.Errorf("import interrupted: %w", err)
		}
		if err := r.writeBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) writeBatch(ctx context.Context, batch []*Draft) error {
	batch, err := r.dropExisting(ctx, batch)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	lastRow := batch[len(batch)-1].Row

	if r.opts.DryRun {
		r.report.Imported += len(batch)
		r.report.LastCommittedRow = max(r.report.LastCommittedRow, lastRow)
		return nil
	}

	lexemes, variants, sememes := r.materialize(batch)
	txErr := r.im.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := r.im.lexemes.CreateBatch(txCtx, lexemes); err != nil {
			return err
		}
		if err := r.im.variants.CreateBatch(txCtx, variants); err != nil {
			return err
		}
		if err := r.im.sememes.CreateBatch(txCtx, sememes); err != nil {
			return err
		}
		revs := make([]domain.Revision, len(lexemes))
		for i, d := range batch {
			changes := domain.Changes{}.
				Set("lemma", d.MainVariant().Lemma).
				Set("row", d.Row)
			revs[i] = r.im.revisions.New(txCtx, domain.EntityTypeLexeme, lexemes[i].ID, domain.RevisionActionImport, changes)
		}
		return r.im.revisions.RecordBatch(txCtx, revs)
	})
	if txErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.report.Skipped += len(batch)
			return fmt.Errorf("import interrupted: %w", ctxErr)
		}
		r.im.log.WarnContext(ctx, "import batch rolled back",
			"first_row", batch[0].Row, "last_row", lastRow, "error", txErr)
		for _, d := range batch {
			r.report.Failed++
			r.msgs.Add(Message{
				Level: domain.MessageLevelError, Row: d.Row, Line: d.Line,
				Text: "batch rolled back: " + txErr.Error(),
			})
		}
		if r.opts.StopOnError {
			r.halted = true
		}
		return nil
	}

	r.report.Imported += len(batch)
	r.report.LastCommittedRow = max(r.report.LastCommittedRow, lastRow)
	r.im.log.DebugContext(ctx, "import batch committed", "rows", len(batch), "last_row", lastRow)
	return nil
}

// dropExisting applies OnDuplicate to drafts whose main lemma already
// belongs to an active lexeme of the language.
func (r *run) dropExisting(ctx context.Context, batch []*Draft) ([]*Draft, error) {
	keys := make([]string, 0, len(batch))
	for _, d := range batch {
		keys = append(keys, domain.NormalizeText(d.MainVariant().Lemma))
	}
	existing, err := r.im.lexemes.FindByMainLemmas(ctx, r.opts.LanguageID, keys)
	if err != nil {
		return nil, fmt.Errorf("check existing lexemes: %w", err)
	}
	if len(existing) == 0 {
		return batch, nil
	}

	kept := batch[:0]
	for i, d := range batch {
		if _, ok := existing[keys[i]]; !ok {
			kept = append(kept, d)
			continue
		}
		main := d.MainVariant()
		row := Row{Number: d.Row, Line: d.Line}
		if r.opts.OnDuplicate == OnDuplicateAdd {
			r.msgs.Info(row, main.Column, fmt.Sprintf("lexeme %q already exists, added as a homonym", main.Lemma))
			kept = append(kept, d)
			continue
		}
		r.msgs.Warning(row, main.Column, fmt.Sprintf("lexeme %q already exists, skipped", main.Lemma))
		r.report.Skipped++
	}
	return kept, nil
}

func (r *run) materialize(batch []*Draft) ([]domain.Lexeme, []domain.Variant, []domain.Sememe) {
	now := r.im.clock()
	lexemes := make([]domain.Lexeme, 0, len(batch))
	var variants []domain.Variant
	var sememes []domain.Sememe

	for _, d := range batch {
		lexID := uuid.New()
		tags := d.Lexeme.Tags
		if tags == nil {
			tags = []string{}
		}
		lexemes = append(lexemes, domain.Lexeme{
			ID:           lexID,
			LanguageID:   r.opts.LanguageID,
			PartOfSpeech: domain.PartOfSpeech(d.Lexeme.PartOfSpeech),
			Notes:        d.Lexeme.Notes,
			Tags:         tags,
			Source:       d.Lexeme.Source,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		for i, v := range d.Variants {
			variants = append(variants, domain.Variant{
				ID:              uuid.New(),
				LexemeID:        lexID,
				OrthographyID:   v.OrthographyID,
				Lemma:           v.Lemma,
				LemmaNormalized: domain.NormalizeText(v.Lemma),
				Pronunciation:   v.Pronunciation,
				IsMain:          v.IsMain,
				Position:        i,
				CreatedAt:       now,
			})
		}
		for i, s := range d.Sememes {
			sememes = append(sememes, domain.Sememe{
				ID:                 uuid.New(),
				LexemeID:           lexID,
				Gloss:              s.Gloss,
				Definition:         s.Definition,
				Example:            s.Example,
				ExampleTranslation: s.ExampleTranslation,
				Position:           i,
				DialectIDs:         s.DialectIDs,
				CreatedAt:          now,
				UpdatedAt:          now,
			})
		}
	}
	return lexemes, variants, sememes
}

func (r *run) noteUnmappedColumns(header []string) {
	known := map[string]bool{}
	for _, c := range r.opts.Profile.Header() {
		known[c] = true
	}
	for _, h := range header {
		if h != "" && !known[h] {
			r.msgs.Add(Message{Level: domain.MessageLevelInfo, Column: h, Text: "column not mapped by the profile, ignored"})
		}
	}
}

func (r *run) abort(text string) {
	r.report.Aborted = true
	r.msgs.Add(Message{Level: domain.MessageLevelError, Text: text})
}

func (r *run) finish() *Report {
	rep := r.report
	rep.Duration = r.im.clock().Sub(r.start)
	rep.DurationMS = rep.Duration.Milliseconds()
	rep.Messages = r.msgs.List()
	if rep.Messages == nil {
		rep.Messages = []Message{}
	}

	metrics.ImportRows("imported", rep.Imported)
	metrics.ImportRows("skipped", rep.Skipped)
	metrics.ImportRows("failed", rep.Failed)
	return &rep
}
