package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/transport/middleware"
)

const apiPrefix = "/api/v1"

// GraphQLPath is where the GraphQL endpoint is served.
const GraphQLPath = apiPrefix + "/graphql"

// Handlers groups every REST handler served by the router.
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Language *LanguageHandler
	Lexeme   *LexemeHandler
	Revision *RevisionHandler
	Import   *ImportHandler

	// GraphQL serves read-only queries. Nil leaves the endpoint out.
	GraphQL http.Handler
	// Playground serves the GraphQL IDE. Nil leaves it out.
	Playground http.Handler
}

// RouterOptions holds the route-specific middleware and settings.
type RouterOptions struct {
	Metrics config.MetricsConfig
	// LoginLimit throttles POST /auth/login. Nil disables throttling.
	LoginLimit middleware.Middleware
}

// NewRouter registers all routes. Reads need the viewer role, lexicon
// writes the editor role, role management and purge the admin role.
func NewRouter(h Handlers, opts RouterOptions) *http.ServeMux {
	mux := http.NewServeMux()

	viewer := middleware.RequireViewer()
	editor := middleware.RequireEditor()
	admin := middleware.RequireAdmin()

	handle := func(pattern string, mw middleware.Middleware, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.Chain(mw)(fn))
	}
	api := func(method, path string) string { return method + " " + apiPrefix + path }

	handle("GET /live", nil, h.Health.Live)
	handle("GET /ready", nil, h.Health.Ready)
	handle("GET /health", nil, h.Health.Health)
	if opts.Metrics.Enabled {
		mux.Handle("GET "+opts.Metrics.Path, promhttp.Handler())
	}

	handle(api("POST", "/auth/login"), opts.LoginLimit, h.Auth.Login)
	handle(api("GET", "/auth/me"), viewer, h.Auth.Me)
	handle(api("PUT", "/users/{id}/role"), admin, h.Auth.SetRole)

	handle(api("GET", "/languages"), viewer, h.Language.List)
	handle(api("POST", "/languages"), editor, h.Language.Create)
	handle(api("GET", "/languages/{id}"), viewer, h.Language.Get)
	handle(api("PATCH", "/languages/{id}"), editor, h.Language.Update)
	handle(api("DELETE", "/languages/{id}"), editor, h.Language.Delete)
	handle(api("GET", "/languages/{id}/orthographies"), viewer, h.Language.ListOrthographies)
	handle(api("POST", "/languages/{id}/orthographies"), editor, h.Language.CreateOrthography)
	handle(api("PATCH", "/orthographies/{id}"), editor, h.Language.UpdateOrthography)
	handle(api("DELETE", "/orthographies/{id}"), editor, h.Language.DeleteOrthography)
	handle(api("GET", "/languages/{id}/dialects"), viewer, h.Language.ListDialects)
	handle(api("POST", "/languages/{id}/dialects"), editor, h.Language.CreateDialect)
	handle(api("DELETE", "/dialects/{id}"), editor, h.Language.DeleteDialect)
	handle(api("GET", "/languages/{id}/export"), viewer, h.Import.Export)

	handle(api("GET", "/lexemes"), viewer, h.Lexeme.List)
	handle(api("POST", "/lexemes"), editor, h.Lexeme.Create)
	handle(api("POST", "/lexemes/purge"), admin, h.Lexeme.Purge)
	handle(api("GET", "/lexemes/{id}"), viewer, h.Lexeme.Get)
	handle(api("PATCH", "/lexemes/{id}"), editor, h.Lexeme.Update)
	handle(api("DELETE", "/lexemes/{id}"), editor, h.Lexeme.Delete)
	handle(api("POST", "/lexemes/{id}/restore"), editor, h.Lexeme.Restore)
	handle(api("POST", "/lexemes/{id}/variants"), editor, h.Lexeme.AddVariant)
	handle(api("PATCH", "/variants/{id}"), editor, h.Lexeme.UpdateVariant)
	handle(api("DELETE", "/variants/{id}"), editor, h.Lexeme.DeleteVariant)
	handle(api("POST", "/variants/{id}/main"), editor, h.Lexeme.SetMainVariant)
	handle(api("POST", "/lexemes/{id}/sememes"), editor, h.Lexeme.AddSememe)
	handle(api("PUT", "/lexemes/{id}/sememes/order"), editor, h.Lexeme.ReorderSememes)
	handle(api("PATCH", "/sememes/{id}"), editor, h.Lexeme.UpdateSememe)
	handle(api("DELETE", "/sememes/{id}"), editor, h.Lexeme.DeleteSememe)

	handle(api("GET", "/revisions"), viewer, h.Revision.List)
	handle(api("GET", "/revisions/{entityType}/{id}"), viewer, h.Revision.History)

	if h.GraphQL != nil {
		handle("GET "+GraphQLPath, viewer, h.GraphQL.ServeHTTP)
		handle("POST "+GraphQLPath, viewer, h.GraphQL.ServeHTTP)
	}
	if h.Playground != nil {
		handle("GET "+GraphQLPath+"/playground", nil, h.Playground.ServeHTTP)
	}

	handle(api("POST", "/imports"), editor, h.Import.Import)
	handle(api("GET", "/imports"), viewer, h.Import.ListRuns)
	handle(api("GET", "/imports/{id}"), viewer, h.Import.GetRun)

	return mux
}
