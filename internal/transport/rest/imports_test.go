package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
	"github.com/heartmarshall/lexicon-backend/internal/service/imports"
	"github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
)

const customProfileYAML = `name: custom
variants:
  - column: latin
  - column: cyrillic
    orthography: cyr
columns:
  gloss: meaning
`

func multipartRequest(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func finishedRun(input imports.ImportInput, status domain.ImportStatus) *domain.ImportRun {
	now := time.Now()
	return &domain.ImportRun{
		ID:         uuid.New(),
		LanguageID: uuid.New(),
		FileName:   input.FileName,
		Profile:    "default",
		DryRun:     input.DryRun,
		Status:     status,
		Report:     json.RawMessage(`{"read":2}`),
		StartedAt:  now,
		FinishedAt: &now,
	}
}

func TestImport_Upload(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	var (
		got  imports.ImportInput
		body string
	)
	d.imports.ImportFunc = func(_ context.Context, src io.Reader, in imports.ImportInput) (*imports.ImportResult, error) {
		got = in
		data, err := io.ReadAll(src)
		require.NoError(t, err)
		body = string(data)
		return &imports.ImportResult{
			Run:    finishedRun(in, domain.ImportStatusCompleted),
			Report: &importer.Report{Read: 2, Imported: 2, DryRun: true, Messages: []importer.Message{}},
		}, nil
	}

	req := multipartRequest(t, map[string]string{
		"language_code":  "la",
		"profile":        "two-scripts",
		"skip":           "10",
		"batch_size":     "25",
		"dry_run":        "true",
		"validate_first": "1",
		"on_duplicate":   "ADD",
	}, "words.csv", "lemma,gloss\nmare,sea\n")
	rec := httptest.NewRecorder()
	d.handler(domain.UserRoleEditor).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "lemma,gloss\nmare,sea\n", body)
	assert.Equal(t, "la", got.LanguageCode)
	assert.Equal(t, "two-scripts", got.ProfileName)
	assert.Equal(t, "words.csv", got.FileName)
	assert.Equal(t, 10, got.SkipCount)
	assert.Equal(t, 25, got.BatchSize)
	assert.True(t, got.DryRun)
	assert.True(t, got.ValidateFirst)
	assert.False(t, got.StopOnError)
	assert.Equal(t, importer.OnDuplicateAdd, got.OnDuplicate)

	var resp importResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "COMPLETED", resp.Run.Status)
	assert.Nil(t, resp.Run.Report, "report is returned once, at the top level")
	require.NotNil(t, resp.Report)
	assert.Equal(t, 2, resp.Report.Imported)
	assert.Empty(t, resp.Error)
}

func TestImport_FailedRunStillReported(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.imports.ImportFunc = func(_ context.Context, _ io.Reader, in imports.ImportInput) (*imports.ImportResult, error) {
		return &imports.ImportResult{
			Run:    finishedRun(in, domain.ImportStatusFailed),
			Report: &importer.Report{Read: 1, Failed: 1, Aborted: true},
		}, errors.New("commit batch: connection reset")
	}

	req := multipartRequest(t, map[string]string{"language_id": uuid.NewString()}, "w.csv", "x")
	rec := httptest.NewRecorder()
	d.handler(domain.UserRoleEditor).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp importResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "FAILED", resp.Run.Status)
	assert.Equal(t, "commit batch: connection reset", resp.Error)
}

func TestImport_Rejected(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.imports.ImportFunc = func(context.Context, io.Reader, imports.ImportInput) (*imports.ImportResult, error) {
		return nil, domain.NewValidationError("language_id", "required")
	}
	h := d.handler(domain.UserRoleEditor)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"no file", multipartRequest(t, map[string]string{"language_code": "la"}, "", "")},
		{"bad number", multipartRequest(t, map[string]string{"skip": "many"}, "w.csv", "x")},
		{"service validation", multipartRequest(t, nil, "w.csv", "x")},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewBufferString(`{}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestImport_TooLarge(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.cfg.MaxUploadBytes = 64
	req := multipartRequest(t, nil, "w.csv", string(bytes.Repeat([]byte("a"), 1024)))
	rec := httptest.NewRecorder()
	d.handler(domain.UserRoleEditor).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListRuns_DropsReports(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.imports.ListRunsFunc = func(_ context.Context, limit, offset int) ([]domain.ImportRun, int, error) {
		assert.Equal(t, 5, limit)
		run := finishedRun(imports.ImportInput{FileName: "a.csv"}, domain.ImportStatusCompleted)
		return []domain.ImportRun{*run}, 1, nil
	}

	rec := do(d.handler(domain.UserRoleViewer), http.MethodGet, "/api/v1/imports?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"report"`)
}

func TestGetRun_IncludesReport(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.imports.GetRunFunc = func(_ context.Context, id uuid.UUID) (*domain.ImportRun, error) {
		return finishedRun(imports.ImportInput{FileName: "a.csv"}, domain.ImportStatusCompleted), nil
	}

	rec := do(d.handler(domain.UserRoleViewer), http.MethodGet, "/api/v1/imports/"+uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"report":{"read":2}`)
}

func TestExport_StreamsCSV(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	langID := uuid.New()
	d.exporter.ExportCSVFunc = func(_ context.Context, id uuid.UUID, p *importer.Profile, w io.Writer) (*lexicon.ExportResult, error) {
		assert.Equal(t, langID, id)
		assert.Equal(t, importer.DefaultProfile().Header(), p.Header())
		_, err := io.WriteString(w, "lemma,gloss\nmare,sea\n")
		return &lexicon.ExportResult{Rows: 1}, err
	}

	rec := do(d.handler(domain.UserRoleViewer), http.MethodGet, "/api/v1/languages/"+langID.String()+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf(`attachment; filename="lexemes-%s.csv"`, langID), rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "lemma,gloss\nmare,sea\n", rec.Body.String())
}

func TestExport_ErrorBeforeOutput(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.exporter.ExportCSVFunc = func(context.Context, uuid.UUID, *importer.Profile, io.Writer) (*lexicon.ExportResult, error) {
		return nil, domain.ErrNotFound
	}

	rec := do(d.handler(domain.UserRoleViewer), http.MethodGet, "/api/v1/languages/"+uuid.NewString()+"/export", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestExport_NamedProfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := newTestDeps()
	d.cfg.ProfileDir = dir
	h := d.handler(domain.UserRoleViewer)
	target := "/api/v1/languages/" + uuid.NewString() + "/export?profile="

	rec := do(h, http.MethodGet, target+"missing", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, target+"..%2Fetc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(customProfileYAML), 0o600))
	var gotProfile *importer.Profile
	d.exporter.ExportCSVFunc = func(_ context.Context, _ uuid.UUID, p *importer.Profile, _ io.Writer) (*lexicon.ExportResult, error) {
		gotProfile = p
		return &lexicon.ExportResult{}, nil
	}
	rec = do(h, http.MethodGet, target+"custom", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, gotProfile)
	assert.NotEqual(t, importer.DefaultProfile().Header(), gotProfile.Header())
}
