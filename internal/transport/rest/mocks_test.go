package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
	"github.com/heartmarshall/lexicon-backend/internal/service/auth"
	"github.com/heartmarshall/lexicon-backend/internal/service/imports"
	"github.com/heartmarshall/lexicon-backend/internal/service/language"
	"github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
	"github.com/heartmarshall/lexicon-backend/internal/transport/dataloader"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

// ===========================================================================
// Manual mocks (moq-style with func fields). Methods a test does not set
// fall through to the embedded nil interface and panic.
// ===========================================================================

type authServiceMock struct {
	authService
	LoginFunc       func(ctx context.Context, input auth.LoginInput) (*auth.AuthResult, error)
	CurrentUserFunc func(ctx context.Context) (*domain.User, error)
	SetUserRoleFunc func(ctx context.Context, id uuid.UUID, role domain.UserRole) (*domain.User, error)
}

func (m *authServiceMock) Login(ctx context.Context, input auth.LoginInput) (*auth.AuthResult, error) {
	return m.LoginFunc(ctx, input)
}

func (m *authServiceMock) CurrentUser(ctx context.Context) (*domain.User, error) {
	return m.CurrentUserFunc(ctx)
}

func (m *authServiceMock) SetUserRole(ctx context.Context, id uuid.UUID, role domain.UserRole) (*domain.User, error) {
	return m.SetUserRoleFunc(ctx, id, role)
}

type languageServiceMock struct {
	languageService
	ListLanguagesFunc     func(ctx context.Context) ([]domain.Language, error)
	CreateLanguageFunc    func(ctx context.Context, input language.CreateLanguageInput) (*domain.Language, error)
	DeleteLanguageFunc    func(ctx context.Context, id uuid.UUID) error
	UpdateOrthographyFunc func(ctx context.Context, id uuid.UUID, input language.UpdateOrthographyInput) (*domain.Orthography, error)
}

func (m *languageServiceMock) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	return m.ListLanguagesFunc(ctx)
}

func (m *languageServiceMock) CreateLanguage(ctx context.Context, input language.CreateLanguageInput) (*domain.Language, error) {
	return m.CreateLanguageFunc(ctx, input)
}

func (m *languageServiceMock) DeleteLanguage(ctx context.Context, id uuid.UUID) error {
	return m.DeleteLanguageFunc(ctx, id)
}

func (m *languageServiceMock) UpdateOrthography(ctx context.Context, id uuid.UUID, input language.UpdateOrthographyInput) (*domain.Orthography, error) {
	return m.UpdateOrthographyFunc(ctx, id, input)
}

type lexiconServiceMock struct {
	lexiconService
	CreateLexemeFunc   func(ctx context.Context, input lexicon.CreateLexemeInput) (*domain.LexemeDetail, error)
	GetLexemeFunc      func(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error)
	FindLexemesFunc    func(ctx context.Context, filter domain.LexemeFilter) (*lexicon.FindResult, error)
	DeleteLexemeFunc   func(ctx context.Context, id uuid.UUID) error
	PurgeDeletedFunc   func(ctx context.Context, threshold time.Time) (int64, error)
	DeleteVariantFunc  func(ctx context.Context, id uuid.UUID) error
	UpdateSememeFunc   func(ctx context.Context, id uuid.UUID, input lexicon.UpdateSememeInput) (*domain.Sememe, error)
	ReorderSememesFunc func(ctx context.Context, lexemeID uuid.UUID, input lexicon.ReorderSememesInput) ([]domain.Sememe, error)
}

func (m *lexiconServiceMock) CreateLexeme(ctx context.Context, input lexicon.CreateLexemeInput) (*domain.LexemeDetail, error) {
	return m.CreateLexemeFunc(ctx, input)
}

func (m *lexiconServiceMock) GetLexeme(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error) {
	return m.GetLexemeFunc(ctx, id)
}

func (m *lexiconServiceMock) FindLexemes(ctx context.Context, filter domain.LexemeFilter) (*lexicon.FindResult, error) {
	return m.FindLexemesFunc(ctx, filter)
}

func (m *lexiconServiceMock) DeleteLexeme(ctx context.Context, id uuid.UUID) error {
	return m.DeleteLexemeFunc(ctx, id)
}

func (m *lexiconServiceMock) PurgeDeleted(ctx context.Context, threshold time.Time) (int64, error) {
	return m.PurgeDeletedFunc(ctx, threshold)
}

func (m *lexiconServiceMock) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return m.DeleteVariantFunc(ctx, id)
}

func (m *lexiconServiceMock) UpdateSememe(ctx context.Context, id uuid.UUID, input lexicon.UpdateSememeInput) (*domain.Sememe, error) {
	return m.UpdateSememeFunc(ctx, id, input)
}

func (m *lexiconServiceMock) ReorderSememes(ctx context.Context, lexemeID uuid.UUID, input lexicon.ReorderSememesInput) ([]domain.Sememe, error) {
	return m.ReorderSememesFunc(ctx, lexemeID, input)
}

type revisionServiceMock struct {
	HistoryFunc func(ctx context.Context, et domain.EntityType, id uuid.UUID, limit int) ([]domain.Revision, error)
	ListFunc    func(ctx context.Context, filter domain.RevisionFilter) ([]domain.Revision, int, error)
}

func (m *revisionServiceMock) History(ctx context.Context, et domain.EntityType, id uuid.UUID, limit int) ([]domain.Revision, error) {
	return m.HistoryFunc(ctx, et, id, limit)
}

func (m *revisionServiceMock) List(ctx context.Context, filter domain.RevisionFilter) ([]domain.Revision, int, error) {
	return m.ListFunc(ctx, filter)
}

type importsServiceMock struct {
	ImportFunc   func(ctx context.Context, src io.Reader, input imports.ImportInput) (*imports.ImportResult, error)
	GetRunFunc   func(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error)
	ListRunsFunc func(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error)
}

func (m *importsServiceMock) Import(ctx context.Context, src io.Reader, input imports.ImportInput) (*imports.ImportResult, error) {
	return m.ImportFunc(ctx, src, input)
}

func (m *importsServiceMock) GetRun(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	return m.GetRunFunc(ctx, id)
}

func (m *importsServiceMock) ListRuns(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error) {
	return m.ListRunsFunc(ctx, limit, offset)
}

type exporterMock struct {
	ExportCSVFunc func(ctx context.Context, languageID uuid.UUID, profile *importer.Profile, w io.Writer) (*lexicon.ExportResult, error)
}

func (m *exporterMock) ExportCSV(ctx context.Context, languageID uuid.UUID, profile *importer.Profile, w io.Writer) (*lexicon.ExportResult, error) {
	return m.ExportCSVFunc(ctx, languageID, profile, w)
}

type loaderSourceMock struct {
	variantCalls int
	sememeCalls  int
	variants     map[uuid.UUID][]domain.Variant
	sememes      map[uuid.UUID][]domain.Sememe
}

func (m *loaderSourceMock) VariantsByLexemeIDs(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]domain.Variant, error) {
	m.variantCalls++
	return m.variants, nil
}

func (m *loaderSourceMock) SememesByLexemeIDs(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]domain.Sememe, error) {
	m.sememeCalls++
	return m.sememes, nil
}

// ===========================================================================
// Test server
// ===========================================================================

type testDeps struct {
	auth     *authServiceMock
	language *languageServiceMock
	lexicon  *lexiconServiceMock
	revision *revisionServiceMock
	imports  *importsServiceMock
	exporter *exporterMock
	loaders  *loaderSourceMock
	cfg      config.ImporterConfig
}

func newTestDeps() *testDeps {
	return &testDeps{
		auth:     &authServiceMock{},
		language: &languageServiceMock{},
		lexicon:  &lexiconServiceMock{},
		revision: &revisionServiceMock{},
		imports:  &importsServiceMock{},
		exporter: &exporterMock{},
		loaders:  &loaderSourceMock{},
		cfg:      config.ImporterConfig{MaxUploadBytes: 1 << 20},
	}
}

func (d *testDeps) handlers() Handlers {
	log := slog.Default()
	return Handlers{
		Health:   NewHealthHandler("test", map[string]Checker{"database": &dbPingerMock{}}),
		Auth:     NewAuthHandler(d.auth, log),
		Language: NewLanguageHandler(d.language, log),
		Lexeme:   NewLexemeHandler(d.lexicon, log),
		Revision: NewRevisionHandler(d.revision, log),
		Import:   NewImportHandler(d.imports, d.exporter, d.cfg, log),
	}
}

// handler builds the full router. A non-empty role authenticates every
// request as a fresh user with that role.
func (d *testDeps) handler(role domain.UserRole) http.Handler {
	mux := NewRouter(d.handlers(), RouterOptions{Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"}})

	var h http.Handler = dataloader.Middleware(d.loaders)(mux)
	if role == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxutil.WithUserID(r.Context(), uuid.New())
		ctx = ctxutil.WithUserRole(ctx, role.String())
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ptr[T any](v T) *T { return &v }
