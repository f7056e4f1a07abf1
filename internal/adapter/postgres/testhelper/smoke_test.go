package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	user := SeedUser(t, pool)
	lang := SeedLanguage(t, pool)
	orth := SeedOrthography(t, pool, lang.ID, "lat", true)
	detail := SeedLexeme(t, pool, lang.ID, orth.ID, "Ghvini", "wine")

	var email string
	err := pool.QueryRow(context.Background(), `SELECT email FROM users WHERE id = $1`, user.ID).Scan(&email)
	if err != nil {
		t.Fatalf("expected user in DB, got error: %v", err)
	}
	if email != user.Email {
		t.Fatalf("expected email %q, got %q", user.Email, email)
	}

	var normalized string
	err = pool.QueryRow(context.Background(),
		`SELECT lemma_normalized FROM variants WHERE lexeme_id = $1 AND is_main`, detail.ID,
	).Scan(&normalized)
	if err != nil {
		t.Fatalf("expected main variant in DB, got error: %v", err)
	}
	if normalized != "ghvini" {
		t.Fatalf("expected normalized lemma %q, got %q", "ghvini", normalized)
	}
}

func TestUniqueCode_MatchesConstraint(t *testing.T) {
	for range 50 {
		code := UniqueCode()
		if len(code) != 8 {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if r < 'a' || r > 'z' {
				t.Fatalf("code %q contains %q", code, r)
			}
		}
	}
}
