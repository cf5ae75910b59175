package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(Claims{
		UserID:       id,
		Email:        "a@b.c",
		RoleCode:     "ADMIN",
		Privileges:   []string{"order:confirm"},
		TokenVersion: "v1",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != id || claims.TokenVersion != "v1" || len(claims.Privileges) != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsForeignSecretAndEmpty(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken(Claims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewManager("two", time.Hour).ValidateToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := NewManager("one", time.Hour).ValidateToken(""); err != ErrMissingToken {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
