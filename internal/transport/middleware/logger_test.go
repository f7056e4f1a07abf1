package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

// logEntry runs h behind Logger and returns the decoded access log line.
func logEntry(t *testing.T, h http.Handler, req *http.Request) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	Logger(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusCreated, "INFO"},
		{http.StatusConflict, "WARN"},
		{http.StatusUnprocessableEntity, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		})
		entry := logEntry(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/lexemes", nil))

		assert.Equal(t, tt.level, entry["level"], "status %d", tt.status)
		assert.Equal(t, "http.request", entry["msg"])
		assert.Equal(t, "POST", entry["method"])
		assert.Equal(t, "/api/v1/lexemes", entry["path"])
		assert.EqualValues(t, tt.status, entry["status"])
		assert.Contains(t, entry, "duration")
	}
}

func TestLogger_ImplicitOKAndBytes(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("lemma,gloss\n"))
	})
	entry := logEntry(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/languages/x/export", nil))

	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.EqualValues(t, 12, entry["bytes"])
}

func TestLogger_RequestID(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ctxutil.WithRequestID(req.Context(), "req-123"))

	entry := logEntry(t, h, req)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.NotContains(t, entry, "user_id")
}

func TestLogger_UserFromAuth(t *testing.T) {
	userID := uuid.New()
	validator := &tokenValidatorMock{
		ValidateTokenFunc: func(context.Context, string) (uuid.UUID, domain.UserRole, error) {
			return userID, domain.UserRoleEditor, nil
		},
	}
	h := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")

	entry := logEntry(t, h, req)
	assert.Equal(t, userID.String(), entry["user_id"])
}
