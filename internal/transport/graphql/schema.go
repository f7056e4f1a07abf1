// Package graphql serves a read-only GraphQL view of languages, lexemes and
// revisions. The schema is executed directly against the services; lexeme
// children are batched through the request's dataloaders.
package graphql

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
	"github.com/heartmarshall/lexicon-backend/internal/transport/dataloader"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

//go:embed schema.graphql
var schemaSDL string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})

var errUnsupported = errors.New("unsupported")

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type languageReader interface {
	ListLanguages(ctx context.Context) ([]domain.Language, error)
	GetLanguage(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	ListOrthographies(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
	ListDialects(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
}

type lexiconReader interface {
	dataloader.Source
	GetLexeme(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error)
	FindLexemes(ctx context.Context, filter domain.LexemeFilter) (*lexicon.FindResult, error)
}

type revisionReader interface {
	History(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error)
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Schema is a gqlgen ExecutableSchema over the lexicon services.
type Schema struct {
	languages languageReader
	lexicon   lexiconReader
	revisions revisionReader
}

var _ graphql.ExecutableSchema = (*Schema)(nil)

// NewSchema creates a Schema.
func NewSchema(languages languageReader, lexicon lexiconReader, revisions revisionReader) *Schema {
	return &Schema{languages: languages, lexicon: lexicon, revisions: revisions}
}

// Schema returns the parsed SDL.
func (s *Schema) Schema() *ast.Schema {
	return parsedSchema
}

// Complexity weighs list fields by their requested page size.
func (s *Schema) Complexity(_ context.Context, typeName, fieldName string, childComplexity int, args map[string]any) (int, bool) {
	if typeName != "Query" {
		return 0, false
	}
	switch fieldName {
	case "lexemes", "revisions":
		limit, err := intArg(args, "limit")
		if err != nil || limit <= 0 {
			return 0, false
		}
		return 1 + limit*childComplexity, true
	}
	return 0, false
}

// Exec resolves the operation in the context.
func (s *Schema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	first := true

	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		if opCtx.Operation.Operation != ast.Query {
			return graphql.ErrorResponse(ctx, "%s operations are not supported", opCtx.Operation.Operation)
		}

		loaders := dataloader.FromContext(ctx)
		if loaders == nil {
			loaders = dataloader.NewLoaders(s.lexicon)
		}
		e := &executor{schema: s, op: opCtx, loaders: loaders}

		var buf bytes.Buffer
		e.query(ctx, opCtx.Operation.SelectionSet).MarshalGQL(&buf)
		return &graphql.Response{Data: buf.Bytes()}
	}
}

// NewHandler serves the schema over GET and POST.
func NewHandler(s *Schema, cfg config.GraphQLConfig, logger *slog.Logger) http.Handler {
	log := logger.With("handler", "graphql")

	srv := handler.New(s)
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.SetErrorPresenter(NewErrorPresenter(log))
	srv.SetRecoverFunc(func(ctx context.Context, v any) error {
		log.ErrorContext(ctx, "panic in graphql resolver",
			slog.String("panic", fmt.Sprint(v)),
			slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
		)
		return errors.New("internal error")
	})
	if cfg.ComplexityLimit > 0 {
		srv.Use(extension.FixedComplexityLimit(cfg.ComplexityLimit))
	}
	return srv
}
