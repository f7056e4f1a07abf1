package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret-at-least-32-chars-long-for-security"

func TestJWTManager_GenerateAndValidate_Success(t *testing.T) {
	manager := NewJWTManager(testSecret, "lexicon-test", 15*time.Minute)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "editor")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	validatedID, role, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if validatedID != userID {
		t.Errorf("expected userID %s, got %s", userID, validatedID)
	}
	if role != "editor" {
		t.Errorf("expected role 'editor', got %q", role)
	}
}

func TestJWTManager_ValidateAccessToken_Expired(t *testing.T) {
	manager := NewJWTManager(testSecret, "lexicon-test", time.Hour)
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issuedAt }

	token, err := manager.GenerateAccessToken(uuid.New(), "viewer")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	manager.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, _, err = manager.ValidateAccessToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected expiry error, got: %v", err)
	}
}

func TestJWTManager_ValidateAccessToken_InvalidSignature(t *testing.T) {
	manager1 := NewJWTManager(testSecret, "lexicon-test", 15*time.Minute)
	manager2 := NewJWTManager("different-secret-32-chars-long-for-security!!", "lexicon-test", 15*time.Minute)

	token, err := manager1.GenerateAccessToken(uuid.New(), "viewer")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, _, err = manager2.ValidateAccessToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestJWTManager_ValidateAccessToken_Malformed(t *testing.T) {
	manager := NewJWTManager(testSecret, "lexicon-test", 15*time.Minute)

	for _, token := range []string{"", "not.a.jwt", "invalid-token", "header.payload"} {
		_, _, err := manager.ValidateAccessToken(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestJWTManager_ValidateAccessToken_WrongIssuer(t *testing.T) {
	manager1 := NewJWTManager(testSecret, "lexicon-test", 15*time.Minute)
	manager2 := NewJWTManager(testSecret, "wrong-issuer", 15*time.Minute)

	token, err := manager1.GenerateAccessToken(uuid.New(), "viewer")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, _, err = manager2.ValidateAccessToken(token)
	if !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
		t.Errorf("expected invalid issuer error, got: %v", err)
	}
}

func TestJWTManager_ValidateAccessToken_RejectsNoneAlg(t *testing.T) {
	manager := NewJWTManager(testSecret, "lexicon-test", 15*time.Minute)
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "lexicon-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, _, err := manager.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected unsigned token to be rejected, got %v", err)
	}
}

func TestJWTManager_TTL(t *testing.T) {
	manager := NewJWTManager(testSecret, "lexicon-test", 42*time.Minute)
	if manager.TTL() != 42*time.Minute {
		t.Errorf("expected TTL 42m, got %s", manager.TTL())
	}
}
