package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/transport/middleware"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

func TestRouter_RoleBoundaries(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.language.ListLanguagesFunc = func(context.Context) ([]domain.Language, error) { return nil, nil }
	d.language.DeleteLanguageFunc = func(context.Context, uuid.UUID) error { return nil }
	d.auth.SetUserRoleFunc = func(_ context.Context, id uuid.UUID, role domain.UserRole) (*domain.User, error) {
		return &domain.User{ID: id, Role: role}, nil
	}

	langPath := "/api/v1/languages/" + uuid.NewString()
	rolePath := "/api/v1/users/" + uuid.NewString() + "/role"

	tests := []struct {
		name   string
		role   domain.UserRole
		method string
		path   string
		body   string
		want   int
	}{
		{"anonymous read", "", http.MethodGet, "/api/v1/languages", "", http.StatusUnauthorized},
		{"viewer read", domain.UserRoleViewer, http.MethodGet, "/api/v1/languages", "", http.StatusOK},
		{"viewer write", domain.UserRoleViewer, http.MethodDelete, langPath, "", http.StatusForbidden},
		{"editor write", domain.UserRoleEditor, http.MethodDelete, langPath, "", http.StatusNoContent},
		{"editor role change", domain.UserRoleEditor, http.MethodPut, rolePath, `{"role":"admin"}`, http.StatusForbidden},
		{"admin role change", domain.UserRoleAdmin, http.MethodPut, rolePath, `{"role":"editor"}`, http.StatusOK},
		{"editor purge", domain.UserRoleEditor, http.MethodPost, "/api/v1/lexemes/purge", "", http.StatusForbidden},
		{"health is public", "", http.MethodGet, "/health", "", http.StatusOK},
		{"live is public", "", http.MethodGet, "/live", "", http.StatusOK},
		{"metrics is public", "", http.MethodGet, "/metrics", "", http.StatusOK},
		{"wrong method", domain.UserRoleAdmin, http.MethodPut, "/api/v1/languages", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(d.handler(tt.role), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_LoginLimit(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	blocked := 0
	limit := middleware.Middleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			blocked++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	})
	mux := NewRouter(d.handlers(), RouterOptions{LoginLimit: limit})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, blocked)
}

func TestRouter_GraphQLRoutes(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	h := d.handlers()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h.GraphQL = ok
	h.Playground = ok
	withGraphQL := NewRouter(h, RouterOptions{})
	without := NewRouter(d.handlers(), RouterOptions{})

	asViewer := func(r *http.Request) *http.Request {
		ctx := ctxutil.WithUserID(r.Context(), uuid.New())
		return r.WithContext(ctxutil.WithUserRole(ctx, domain.UserRoleViewer.String()))
	}
	serve := func(mux http.Handler, r *http.Request) int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(withGraphQL, httptest.NewRequest(http.MethodPost, GraphQLPath, nil)))
	assert.Equal(t, http.StatusOK, serve(withGraphQL, asViewer(httptest.NewRequest(http.MethodPost, GraphQLPath, nil))))
	assert.Equal(t, http.StatusOK, serve(withGraphQL, asViewer(httptest.NewRequest(http.MethodGet, GraphQLPath, nil))))
	assert.Equal(t, http.StatusOK, serve(withGraphQL, httptest.NewRequest(http.MethodGet, GraphQLPath+"/playground", nil)))
	assert.Equal(t, http.StatusNotFound, serve(without, asViewer(httptest.NewRequest(http.MethodPost, GraphQLPath, nil))))
}
