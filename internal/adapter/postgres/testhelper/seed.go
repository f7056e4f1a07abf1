package testhelper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// UniqueCode returns a random lowercase language code of 8 letters, matching
// the languages.code check constraint.
func UniqueCode() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	var b strings.Builder
	for _, r := range hex {
		if r >= '0' && r <= '9' {
			r = 'g' + (r - '0')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedUser creates an editor user with a dummy password hash.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()

	suffix := uniqueSuffix()
	ts := now()
	user := domain.User{
		ID:           uuid.New(),
		Email:        "testuser-" + suffix + "@example.com",
		Username:     "testuser-" + suffix,
		PasswordHash: "$2a$04$not-a-real-hash",
		Role:         domain.UserRoleEditor,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, username, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser: %v", err)
	}

	return user
}

// SeedLanguage creates a language with a random code.
func SeedLanguage(t *testing.T, pool *pgxpool.Pool) domain.Language {
	t.Helper()

	ts := now()
	lang := domain.Language{
		ID:        uuid.New(),
		Code:      UniqueCode(),
		Name:      "Language " + uniqueSuffix(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO languages (id, code, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		lang.ID, lang.Code, lang.Name, lang.CreatedAt, lang.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLanguage: %v", err)
	}

	return lang
}

// SeedOrthography creates an orthography with the given abbreviation.
func SeedOrthography(t *testing.T, pool *pgxpool.Pool, languageID uuid.UUID, abbr string, isDefault bool) domain.Orthography {
	t.Helper()

	o := domain.Orthography{
		ID:           uuid.New(),
		LanguageID:   languageID,
		Name:         "Orthography " + abbr,
		Abbreviation: abbr,
		IsDefault:    isDefault,
		CreatedAt:    now(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO orthographies (id, language_id, name, abbreviation, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.LanguageID, o.Name, o.Abbreviation, o.IsDefault, o.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedOrthography: %v", err)
	}

	return o
}

// SeedDialect creates a dialect with the given name.
func SeedDialect(t *testing.T, pool *pgxpool.Pool, languageID uuid.UUID, name string) domain.Dialect {
	t.Helper()

	d := domain.Dialect{
		ID:         uuid.New(),
		LanguageID: languageID,
		Name:       name,
		CreatedAt:  now(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO dialects (id, language_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		d.ID, d.LanguageID, d.Name, d.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDialect: %v", err)
	}

	return d
}

// SeedLexeme creates a noun with one main variant (lemma) in the given
// orthography and one sememe (gloss).
func SeedLexeme(t *testing.T, pool *pgxpool.Pool, languageID, orthographyID uuid.UUID, lemma, gloss string) domain.LexemeDetail {
	t.Helper()
	ctx := context.Background()

	ts := now()
	lex := domain.Lexeme{
		ID:           uuid.New(),
		LanguageID:   languageID,
		PartOfSpeech: domain.PartOfSpeechNoun,
		Tags:         []string{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO lexemes (id, language_id, part_of_speech, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		lex.ID, lex.LanguageID, string(lex.PartOfSpeech), lex.Tags, lex.CreatedAt, lex.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLexeme insert lexeme: %v", err)
	}

	v := domain.Variant{
		ID:              uuid.New(),
		LexemeID:        lex.ID,
		OrthographyID:   orthographyID,
		Lemma:           lemma,
		LemmaNormalized: domain.NormalizeText(lemma),
		IsMain:          true,
		CreatedAt:       ts,
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO variants (id, lexeme_id, orthography_id, lemma, lemma_normalized, is_main, position, created_at)
		 VALUES ($1, $2, $3, $4, $5, true, 0, $6)`,
		v.ID, v.LexemeID, v.OrthographyID, v.Lemma, v.LemmaNormalized, v.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLexeme insert variant: %v", err)
	}

	s := domain.Sememe{
		ID:         uuid.New(),
		LexemeID:   lex.ID,
		Gloss:      gloss,
		DialectIDs: []uuid.UUID{},
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO sememes (id, lexeme_id, gloss, position, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, $4, $5)`,
		s.ID, s.LexemeID, s.Gloss, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLexeme insert sememe: %v", err)
	}

	return domain.LexemeDetail{Lexeme: lex, Variants: []domain.Variant{v}, Sememes: []domain.Sememe{s}}
}
