package imports

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
)

type runRepoMock struct {
	mu   sync.Mutex
	runs map[uuid.UUID]domain.ImportRun

	CreateFunc func(ctx context.Context, run domain.ImportRun) (*domain.ImportRun, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error)

	FinishCtxErr error
}

func newRunRepoMock() *runRepoMock {
	return &runRepoMock{runs: map[uuid.UUID]domain.ImportRun{}}
}

func (m *runRepoMock) Create(ctx context.Context, run domain.ImportRun) (*domain.ImportRun, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return &run, nil
}

func (m *runRepoMock) Finish(ctx context.Context, id uuid.UUID, status domain.ImportStatus, report json.RawMessage, finishedAt time.Time) (*domain.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinishCtxErr = ctx.Err()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	run.Status = status
	run.Report = report
	run.FinishedAt = &finishedAt
	m.runs[id] = run
	return &run, nil
}

func (m *runRepoMock) GetByID(_ context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

func (m *runRepoMock) List(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []domain.ImportRun{}, 0, nil
}

type languageRepoMock struct {
	langs []domain.Language
}

func (m *languageRepoMock) GetByID(_ context.Context, id uuid.UUID) (*domain.Language, error) {
	for _, l := range m.langs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *languageRepoMock) GetByCode(_ context.Context, code string) (*domain.Language, error) {
	for _, l := range m.langs {
		if l.Code == code {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

type runnerMock struct {
	RunFunc func(ctx context.Context, src io.Reader, opts importer.Options) (*importer.Report, error)

	calls []importer.Options
}

func (m *runnerMock) Run(ctx context.Context, src io.Reader, opts importer.Options) (*importer.Report, error) {
	m.calls = append(m.calls, opts)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, src, opts)
	}
	return &importer.Report{Messages: []importer.Message{}}, nil
}
