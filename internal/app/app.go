package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/dialect"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/importrun"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/language"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/lexeme"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/orthography"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/revision"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/sememe"
	userrepo "github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/variant"
	"github.com/heartmarshall/lexicon-backend/internal/auth"
	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
	authsvc "github.com/heartmarshall/lexicon-backend/internal/service/auth"
	importssvc "github.com/heartmarshall/lexicon-backend/internal/service/imports"
	languagesvc "github.com/heartmarshall/lexicon-backend/internal/service/language"
	lexiconsvc "github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
	revisionsvc "github.com/heartmarshall/lexicon-backend/internal/service/revision"
	"github.com/heartmarshall/lexicon-backend/internal/transport/dataloader"
	gqltransport "github.com/heartmarshall/lexicon-backend/internal/transport/graphql"
	"github.com/heartmarshall/lexicon-backend/internal/transport/middleware"
	"github.com/heartmarshall/lexicon-backend/internal/transport/rest"
)

// Container holds the services built over one connection pool. The HTTP
// server and the CLI commands share it.
type Container struct {
	cfg *config.Config
	log *slog.Logger

	Pool *pgxpool.Pool

	Auth      *authsvc.Service
	Languages *languagesvc.Service
	Lexicon   *lexiconsvc.Service
	Revisions *revisionsvc.Service
	Imports   *importssvc.Service
}

// NewContainer wires repositories and services.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) *Container {
	txm := postgres.NewTxManager(pool)

	languageRepo := language.New(pool)
	orthographyRepo := orthography.New(pool)
	dialectRepo := dialect.New(pool)
	lexemeRepo := lexeme.New(pool)
	variantRepo := variant.New(pool)
	sememeRepo := sememe.New(pool)
	revisionRepo := revision.New(pool)
	importRunRepo := importrun.New(pool)
	userRepo := userrepo.New(pool)

	revisions := revisionsvc.NewService(logger, revisionRepo, cfg.Lexicon)

	imp := importer.New(logger, languageRepo, orthographyRepo, dialectRepo,
		lexemeRepo, variantRepo, sememeRepo, revisions, txm)

	return &Container{
		cfg:  cfg,
		log:  logger,
		Pool: pool,
		Auth: authsvc.NewService(logger, userRepo,
			auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
			auth.NewPasswordHasher(cfg.Auth.BcryptCost)),
		Languages: languagesvc.NewService(logger, languageRepo, orthographyRepo, dialectRepo,
			lexemeRepo, variantRepo, revisions, txm),
		Lexicon: lexiconsvc.NewService(logger, lexemeRepo, variantRepo, sememeRepo,
			languageRepo, orthographyRepo, dialectRepo, revisions, txm, cfg.Lexicon),
		Revisions: revisions,
		Imports:   importssvc.NewService(logger, importRunRepo, languageRepo, imp, cfg.Importer),
	}
}

// Open connects to the database and builds a Container. Close releases it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return NewContainer(cfg, pool, logger), nil
}

// Close closes the connection pool.
func (c *Container) Close() {
	c.Pool.Close()
}

// Handler builds the HTTP handler with the full middleware stack. The
// returned stop func releases the login rate limiter.
func (c *Container) Handler(version string) (http.Handler, func()) {
	checks := map[string]rest.Checker{"database": c.Pool}
	if dir := c.cfg.Importer.ProfileDir; dir != "" {
		checks["profiles"] = dirCheck(dir)
	}

	limiter := middleware.NewRateLimiter(c.cfg.RateLimit.LoginPerMinute, c.cfg.RateLimit.LoginBurst, c.cfg.RateLimit.CleanupInterval)

	handlers := rest.Handlers{
		Health:   rest.NewHealthHandler(version, checks),
		Auth:     rest.NewAuthHandler(c.Auth, c.log),
		Language: rest.NewLanguageHandler(c.Languages, c.log),
		Lexeme:   rest.NewLexemeHandler(c.Lexicon, c.log),
		Revision: rest.NewRevisionHandler(c.Revisions, c.log),
		Import:   rest.NewImportHandler(c.Imports, c.Lexicon, c.cfg.Importer, c.log),
	}
	if gq := c.cfg.GraphQL; gq.Enabled {
		schema := gqltransport.NewSchema(c.Languages, c.Lexicon, c.Revisions)
		handlers.GraphQL = gqltransport.NewHandler(schema, gq, c.log)
		if gq.PlaygroundEnabled {
			handlers.Playground = playground.Handler("Lexicon", rest.GraphQLPath)
		}
	}

	mux := rest.NewRouter(handlers, rest.RouterOptions{
		Metrics:    c.cfg.Metrics,
		LoginLimit: limiter.Limit(),
	})

	handler := middleware.Chain(
		middleware.Recovery(c.log),
		middleware.RequestID(),
		middleware.Logger(c.log),
		middleware.CORS(c.cfg.CORS),
		middleware.Auth(c.Auth),
		dataloader.Middleware(c.Lexicon),
	)(middleware.Metrics()(mux))

	return handler, limiter.Stop
}

// dirCheck reports a profile directory that vanished or is not a directory.
type dirCheck string

func (d dirCheck) Ping(_ context.Context) error {
	info, err := os.Stat(string(d))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", string(d))
	}
	return nil
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for at most ShutdownTimeout.
func Serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}

// Run is the server entry point: it loads configuration, connects to the
// database and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	c, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	handler, stop := c.Handler(BuildVersion())
	defer stop()

	start := time.Now()
	err = Serve(ctx, cfg.Server, handler, logger)
	logger.Info("application stopped", slog.Duration("uptime", time.Since(start)))
	return err
}
