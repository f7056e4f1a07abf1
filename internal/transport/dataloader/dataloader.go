// Package dataloader provides per-request DataLoaders that batch the
// variant and sememe lookups of lexeme list responses into single queries.
package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

const (
	maxBatch = 200
	wait     = 2 * time.Millisecond
)

// Source loads lexeme children keyed by lexeme ID.
type Source interface {
	VariantsByLexemeIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Variant, error)
	SememesByLexemeIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Sememe, error)
}

// Loaders holds the per-request DataLoader instances.
type Loaders struct {
	VariantsByLexemeID *dataloader.Loader[uuid.UUID, []domain.Variant]
	SememesByLexemeID  *dataloader.Loader[uuid.UUID, []domain.Sememe]
}

// NewLoaders creates a new set of DataLoaders backed by src.
// Must be called per-request (loaders cache results within a single request).
func NewLoaders(src Source) *Loaders {
	return &Loaders{
		VariantsByLexemeID: newLoader(batchFn(src.VariantsByLexemeIDs)),
		SememesByLexemeID:  newLoader(batchFn(src.SememesByLexemeIDs)),
	}
}

func newLoader[V any](fn dataloader.BatchFunc[uuid.UUID, V]) *dataloader.Loader[uuid.UUID, V] {
	return dataloader.NewBatchedLoader(
		fn,
		dataloader.WithWait[uuid.UUID, V](wait),
		dataloader.WithBatchCapacity[uuid.UUID, V](maxBatch),
	)
}

func batchFn[T any](load func(context.Context, []uuid.UUID) (map[uuid.UUID][]T, error)) dataloader.BatchFunc[uuid.UUID, []T] {
	return func(ctx context.Context, keys []uuid.UUID) []*dataloader.Result[[]T] {
		grouped, err := load(ctx, keys)
		results := make([]*dataloader.Result[[]T], len(keys))
		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[[]T]{Error: err}
				continue
			}
			items, ok := grouped[key]
			if !ok {
				items = []T{}
			}
			results[i] = &dataloader.Result[[]T]{Data: items}
		}
		return results
	}
}

// LoadDetails attaches variants and sememes to each lexeme, batching the
// lookups through the loaders.
func (l *Loaders) LoadDetails(ctx context.Context, lexemes []domain.Lexeme) ([]domain.LexemeDetail, error) {
	keys := make([]uuid.UUID, len(lexemes))
	for i, lx := range lexemes {
		keys[i] = lx.ID
	}

	variantsThunk := l.VariantsByLexemeID.LoadMany(ctx, keys)
	sememesThunk := l.SememesByLexemeID.LoadMany(ctx, keys)

	variants, errs := variantsThunk()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	sememes, errs := sememesThunk()
	if err := firstError(errs); err != nil {
		return nil, err
	}

	out := make([]domain.LexemeDetail, len(lexemes))
	for i, lx := range lexemes {
		out[i] = domain.LexemeDetail{Lexeme: lx, Variants: variants[i], Sememes: sememes[i]}
	}
	return out, nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

type contextKey string

const loadersKey contextKey = "dataloaders"

// WithLoaders stores Loaders in the context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

// FromContext retrieves Loaders from the context, or nil.
func FromContext(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// Middleware instantiates per-request DataLoaders and stores them in the
// request context.
func Middleware(src Source) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(src))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
