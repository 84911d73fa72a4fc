package auth

import (
	"testing"
	"time"

	"github.com/minniexp/expense-backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{
		ID:          "user-1",
		Email:       "someone@example.com",
		AccessLevel: models.AccessAdvanced,
		IsApproved:  true,
	}

	token, err := GenerateToken("secret", user, 0)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "someone@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.AccessLevel != models.AccessAdvanced || !claims.IsApproved {
		t.Errorf("claims access = %q approved = %v", claims.AccessLevel, claims.IsApproved)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	user := &models.User{ID: "user-1"}
	token, err := GenerateToken("secret", user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Error("ParseToken() with wrong secret succeeded, want error")
	}
}

func TestParseTokenExpired(t *testing.T) {
	user := &models.User{ID: "user-1"}
	token, err := GenerateToken("secret", user, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := ParseToken("secret", token); err == nil {
		t.Error("ParseToken() accepted an expired token")
	}
}
