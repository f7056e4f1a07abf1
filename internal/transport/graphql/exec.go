package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	dl "github.com/heartmarshall/lexicon-backend/internal/transport/dataloader"
)

// executor resolves one operation.
type executor struct {
	schema  *Schema
	op      *graphql.OperationContext
	loaders *dl.Loaders
}

func (e *executor) collect(sel ast.SelectionSet, typeName string) []graphql.CollectedField {
	return graphql.CollectFields(e.op, sel, []string{typeName})
}

// fail records err at path and resolves the field to null.
func (e *executor) fail(ctx context.Context, path ast.Path, err error) graphql.Marshaler {
	graphql.AddError(ctx, &gqlerror.Error{Err: err, Message: err.Error(), Path: path})
	return graphql.Null
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

func (e *executor) query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	out := &object{}
	for _, f := range e.collect(sel, "Query") {
		path := ast.Path{ast.PathName(f.Alias)}
		args := f.ArgumentMap(e.op.Variables)

		var (
			v   graphql.Marshaler
			err error
		)
		switch f.Name {
		case "__typename":
			v = graphql.MarshalString("Query")
		case "languages":
			v, err = e.queryLanguages(ctx, path, f)
		case "language":
			v, err = e.queryLanguage(ctx, path, f, args)
		case "lexemes":
			v, err = e.queryLexemes(ctx, path, f, args)
		case "lexeme":
			v, err = e.queryLexeme(ctx, path, f, args)
		case "revisions":
			v, err = e.queryRevisions(ctx, path, f, args)
		default:
			err = fmt.Errorf("%w: %s", errUnsupported, f.Name)
		}
		if err != nil {
			v = e.fail(ctx, path, err)
		}
		out.set(f.Alias, v)
	}
	return out
}

func (e *executor) queryLanguages(ctx context.Context, path ast.Path, f graphql.CollectedField) (graphql.Marshaler, error) {
	langs, err := e.schema.languages.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}
	fields := e.collect(f.Selections, "Language")
	return list(langs, func(i int, l *domain.Language) graphql.Marshaler {
		return e.language(ctx, at(path, ast.PathIndex(i)), fields, l)
	}), nil
}

func (e *executor) queryLanguage(ctx context.Context, path ast.Path, f graphql.CollectedField, args map[string]any) (graphql.Marshaler, error) {
	id, err := requiredUUIDArg(args, "id")
	if err != nil {
		return nil, err
	}
	l, err := e.schema.languages.GetLanguage(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.language(ctx, path, e.collect(f.Selections, "Language"), l), nil
}

func (e *executor) queryLexemes(ctx context.Context, path ast.Path, f graphql.CollectedField, args map[string]any) (graphql.Marshaler, error) {
	var errs domain.FieldErrors
	languageID, err := uuidArg(args, "languageId")
	if err != nil {
		errs.Add("languageId", "invalid UUID")
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		errs.Add("limit", err.Error())
	}
	offset, err := intArg(args, "offset")
	if err != nil {
		errs.Add("offset", err.Error())
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	filter := domain.LexemeFilter{
		LanguageID:     languageID,
		Search:         stringArg(args, "search"),
		Tag:            stringArg(args, "tag"),
		IncludeDeleted: boolArg(args, "includeDeleted"),
		Limit:          limit,
		Offset:         offset,
	}
	if pos := stringArg(args, "partOfSpeech"); pos != nil {
		p, ok := domain.ParsePartOfSpeech(*pos)
		if !ok {
			p = domain.PartOfSpeech(strings.ToUpper(*pos))
		}
		filter.PartOfSpeech = &p
	}

	res, err := e.schema.lexicon.FindLexemes(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := &object{}
	for _, pf := range e.collect(f.Selections, "LexemePage") {
		switch pf.Name {
		case "__typename":
			out.set(pf.Alias, graphql.MarshalString("LexemePage"))
		case "items":
			out.set(pf.Alias, e.lexemeList(ctx, at(path, ast.PathName(pf.Alias)), pf.Selections, res.Lexemes))
		case "total":
			out.set(pf.Alias, graphql.MarshalInt(res.Total))
		case "limit":
			out.set(pf.Alias, graphql.MarshalInt(res.Limit))
		case "offset":
			out.set(pf.Alias, graphql.MarshalInt(res.Offset))
		}
	}
	return out, nil
}

func (e *executor) queryLexeme(ctx context.Context, path ast.Path, f graphql.CollectedField, args map[string]any) (graphql.Marshaler, error) {
	id, err := requiredUUIDArg(args, "id")
	if err != nil {
		return nil, err
	}
	d, err := e.schema.lexicon.GetLexeme(ctx, id)
	if err != nil {
		return nil, err
	}
	children := lexemeChildren{variants: d.Variants, sememes: d.Sememes}
	return e.lexeme(ctx, path, e.collect(f.Selections, "Lexeme"), &d.Lexeme, children), nil
}

func (e *executor) queryRevisions(ctx context.Context, path ast.Path, f graphql.CollectedField, args map[string]any) (graphql.Marshaler, error) {
	raw := stringArg(args, "entityType")
	if raw == nil {
		return nil, domain.NewValidationError("entityType", "required")
	}
	et := domain.EntityType(strings.ToUpper(strings.TrimSpace(*raw)))
	if !et.IsValid() {
		return nil, domain.NewValidationError("entityType", "unknown entity type")
	}
	id, err := requiredUUIDArg(args, "entityId")
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		return nil, domain.NewValidationError("limit", err.Error())
	}

	revs, err := e.schema.revisions.History(ctx, et, id, limit)
	if err != nil {
		return nil, err
	}
	fields := e.collect(f.Selections, "Revision")
	return list(revs, func(_ int, r *domain.Revision) graphql.Marshaler {
		return revision(fields, r)
	}), nil
}

// ---------------------------------------------------------------------------
// Object types
// ---------------------------------------------------------------------------

func (e *executor) language(ctx context.Context, path ast.Path, fields []graphql.CollectedField, l *domain.Language) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Language"))
		case "id":
			out.set(f.Alias, marshalID(l.ID))
		case "code":
			out.set(f.Alias, graphql.MarshalString(l.Code))
		case "name":
			out.set(f.Alias, graphql.MarshalString(l.Name))
		case "description":
			out.set(f.Alias, optString(l.Description))
		case "createdAt":
			out.set(f.Alias, graphql.MarshalTime(l.CreatedAt))
		case "updatedAt":
			out.set(f.Alias, graphql.MarshalTime(l.UpdatedAt))
		case "orthographies":
			p := at(path, ast.PathName(f.Alias))
			orths, err := e.schema.languages.ListOrthographies(ctx, l.ID)
			if err != nil {
				out.set(f.Alias, e.fail(ctx, p, err))
				continue
			}
			sub := e.collect(f.Selections, "Orthography")
			out.set(f.Alias, list(orths, func(_ int, o *domain.Orthography) graphql.Marshaler {
				return orthography(sub, o)
			}))
		case "dialects":
			p := at(path, ast.PathName(f.Alias))
			dialects, err := e.schema.languages.ListDialects(ctx, l.ID)
			if err != nil {
				out.set(f.Alias, e.fail(ctx, p, err))
				continue
			}
			sub := e.collect(f.Selections, "Dialect")
			out.set(f.Alias, list(dialects, func(_ int, d *domain.Dialect) graphql.Marshaler {
				return dialect(sub, d)
			}))
		}
	}
	return out
}

func orthography(fields []graphql.CollectedField, o *domain.Orthography) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Orthography"))
		case "id":
			out.set(f.Alias, marshalID(o.ID))
		case "name":
			out.set(f.Alias, graphql.MarshalString(o.Name))
		case "abbreviation":
			out.set(f.Alias, graphql.MarshalString(o.Abbreviation))
		case "description":
			out.set(f.Alias, optString(o.Description))
		case "isDefault":
			out.set(f.Alias, graphql.MarshalBoolean(o.IsDefault))
		}
	}
	return out
}

func dialect(fields []graphql.CollectedField, d *domain.Dialect) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Dialect"))
		case "id":
			out.set(f.Alias, marshalID(d.ID))
		case "name":
			out.set(f.Alias, graphql.MarshalString(d.Name))
		case "abbreviation":
			out.set(f.Alias, optString(d.Abbreviation))
		}
	}
	return out
}

// lexemeChildren carries preloaded variants and sememes of one lexeme.
type lexemeChildren struct {
	variants    []domain.Variant
	sememes     []domain.Sememe
	variantsErr error
	sememesErr  error
}

// lexemeList resolves lexemes, loading the children of all of them in one
// batch per child type.
func (e *executor) lexemeList(ctx context.Context, path ast.Path, sel ast.SelectionSet, lexemes []domain.Lexeme) graphql.Marshaler {
	fields := e.collect(sel, "Lexeme")
	ids := make([]uuid.UUID, len(lexemes))
	for i, l := range lexemes {
		ids[i] = l.ID
	}

	var (
		variantsThunk dataloader.ThunkMany[[]domain.Variant]
		sememesThunk  dataloader.ThunkMany[[]domain.Sememe]
	)
	if len(ids) > 0 && selects(fields, "variants") {
		variantsThunk = e.loaders.VariantsByLexemeID.LoadMany(ctx, ids)
	}
	if len(ids) > 0 && selects(fields, "sememes") {
		sememesThunk = e.loaders.SememesByLexemeID.LoadMany(ctx, ids)
	}

	children := make([]lexemeChildren, len(lexemes))
	if variantsThunk != nil {
		variants, errs := variantsThunk()
		for i := range children {
			children[i].variants, children[i].variantsErr = loaded(variants, errs, i)
		}
	}
	if sememesThunk != nil {
		sememes, errs := sememesThunk()
		for i := range children {
			children[i].sememes, children[i].sememesErr = loaded(sememes, errs, i)
		}
	}

	return list(lexemes, func(i int, l *domain.Lexeme) graphql.Marshaler {
		return e.lexeme(ctx, at(path, ast.PathIndex(i)), fields, l, children[i])
	})
}

func (e *executor) lexeme(ctx context.Context, path ast.Path, fields []graphql.CollectedField, l *domain.Lexeme, c lexemeChildren) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Lexeme"))
		case "id":
			out.set(f.Alias, marshalID(l.ID))
		case "languageId":
			out.set(f.Alias, marshalID(l.LanguageID))
		case "partOfSpeech":
			out.set(f.Alias, graphql.MarshalString(string(l.PartOfSpeech)))
		case "notes":
			out.set(f.Alias, optString(l.Notes))
		case "tags":
			out.set(f.Alias, list(l.Tags, func(_ int, t *string) graphql.Marshaler { return graphql.MarshalString(*t) }))
		case "source":
			out.set(f.Alias, optString(l.Source))
		case "createdAt":
			out.set(f.Alias, graphql.MarshalTime(l.CreatedAt))
		case "updatedAt":
			out.set(f.Alias, graphql.MarshalTime(l.UpdatedAt))
		case "deletedAt":
			out.set(f.Alias, optTime(l.DeletedAt))
		case "variants":
			if c.variantsErr != nil {
				out.set(f.Alias, e.fail(ctx, at(path, ast.PathName(f.Alias)), c.variantsErr))
				continue
			}
			sub := e.collect(f.Selections, "Variant")
			out.set(f.Alias, list(c.variants, func(_ int, v *domain.Variant) graphql.Marshaler {
				return variant(sub, v)
			}))
		case "sememes":
			if c.sememesErr != nil {
				out.set(f.Alias, e.fail(ctx, at(path, ast.PathName(f.Alias)), c.sememesErr))
				continue
			}
			sub := e.collect(f.Selections, "Sememe")
			out.set(f.Alias, list(c.sememes, func(_ int, s *domain.Sememe) graphql.Marshaler {
				return sememe(sub, s)
			}))
		}
	}
	return out
}

func variant(fields []graphql.CollectedField, v *domain.Variant) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Variant"))
		case "id":
			out.set(f.Alias, marshalID(v.ID))
		case "orthographyId":
			out.set(f.Alias, marshalID(v.OrthographyID))
		case "lemma":
			out.set(f.Alias, graphql.MarshalString(v.Lemma))
		case "pronunciation":
			out.set(f.Alias, optString(v.Pronunciation))
		case "isMain":
			out.set(f.Alias, graphql.MarshalBoolean(v.IsMain))
		case "position":
			out.set(f.Alias, graphql.MarshalInt(v.Position))
		}
	}
	return out
}

func sememe(fields []graphql.CollectedField, s *domain.Sememe) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Sememe"))
		case "id":
			out.set(f.Alias, marshalID(s.ID))
		case "gloss":
			out.set(f.Alias, graphql.MarshalString(s.Gloss))
		case "definition":
			out.set(f.Alias, optString(s.Definition))
		case "example":
			out.set(f.Alias, optString(s.Example))
		case "exampleTranslation":
			out.set(f.Alias, optString(s.ExampleTranslation))
		case "position":
			out.set(f.Alias, graphql.MarshalInt(s.Position))
		case "dialectIds":
			out.set(f.Alias, list(s.DialectIDs, func(_ int, id *uuid.UUID) graphql.Marshaler { return marshalID(*id) }))
		}
	}
	return out
}

func revision(fields []graphql.CollectedField, r *domain.Revision) graphql.Marshaler {
	out := &object{}
	for _, f := range fields {
		switch f.Name {
		case "__typename":
			out.set(f.Alias, graphql.MarshalString("Revision"))
		case "id":
			out.set(f.Alias, marshalID(r.ID))
		case "userId":
			if r.UserID == nil {
				out.set(f.Alias, graphql.Null)
			} else {
				out.set(f.Alias, marshalID(*r.UserID))
			}
		case "entityType":
			out.set(f.Alias, graphql.MarshalString(r.EntityType.String()))
		case "entityId":
			out.set(f.Alias, marshalID(r.EntityID))
		case "action":
			out.set(f.Alias, graphql.MarshalString(string(r.Action)))
		case "changes":
			if r.Changes == nil {
				out.set(f.Alias, graphql.Null)
			} else {
				out.set(f.Alias, graphql.MarshalMap(r.Changes))
			}
		case "createdAt":
			out.set(f.Alias, graphql.MarshalTime(r.CreatedAt))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

// object is a JSON object that keeps the order of the selection set.
type object struct {
	keys   []string
	values []graphql.Marshaler
}

func (o *object) set(key string, v graphql.Marshaler) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

func (o *object) MarshalGQL(w io.Writer) {
	_, _ = io.WriteString(w, "{")
	for i, k := range o.keys {
		if i > 0 {
			_, _ = io.WriteString(w, ",")
		}
		graphql.MarshalString(k).MarshalGQL(w)
		_, _ = io.WriteString(w, ":")
		o.values[i].MarshalGQL(w)
	}
	_, _ = io.WriteString(w, "}")
}

func list[T any](items []T, fn func(i int, item *T) graphql.Marshaler) graphql.Marshaler {
	out := make(graphql.Array, len(items))
	for i := range items {
		out[i] = fn(i, &items[i])
	}
	return out
}

func marshalID(id uuid.UUID) graphql.Marshaler {
	return graphql.MarshalID(id.String())
}

func optString(s *string) graphql.Marshaler {
	if s == nil {
		return graphql.Null
	}
	return graphql.MarshalString(*s)
}

func optTime(t *time.Time) graphql.Marshaler {
	if t == nil {
		return graphql.Null
	}
	return graphql.MarshalTime(*t)
}

func selects(fields []graphql.CollectedField, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func at(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func loaded[T any](values []T, errs []error, i int) (T, error) {
	var zero T
	if i < len(errs) && errs[i] != nil {
		return zero, errs[i]
	}
	if i < len(values) {
		return values[i], nil
	}
	return zero, nil
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func stringArg(args map[string]any, name string) *string {
	s, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &s
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

var errNotInteger = errors.New("must be an integer")

// intArg reads an Int argument; absent or null is 0.
func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errNotInteger
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, errNotInteger
		}
		return n, nil
	default:
		return 0, errNotInteger
	}
}

func uuidArg(args map[string]any, name string) (*uuid.UUID, error) {
	s := stringArg(args, name)
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func requiredUUIDArg(args map[string]any, name string) (uuid.UUID, error) {
	id, err := uuidArg(args, name)
	if err != nil || id == nil {
		return uuid.Nil, domain.NewValidationError(name, "invalid UUID")
	}
	return *id, nil
}
