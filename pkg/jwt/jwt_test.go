package jwt

import (
	"testing"
	"time"
	"wassup/internal/entity"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("super-secret", time.Hour, 24*time.Hour)
	user := entity.User{Id: "u1", Email: "alice@example.com"}

	token, err := manager.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken error: %v", err)
	}
	if claims.UserId != user.Id {
		t.Fatalf("userId mismatch: got %q want %q", claims.UserId, user.Id)
	}
	if claims.Email != user.Email {
		t.Fatalf("email mismatch: got %q want %q", claims.Email, user.Email)
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", -1*time.Second, 24*time.Hour)

	token, err := manager.GenerateAccessToken(entity.User{Id: "u1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	_, err = manager.ValidateAccessToken(token)
	if err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewJWTManager("right-secret", time.Hour, 24*time.Hour)
	verifier := NewJWTManager("wrong-secret", time.Hour, 24*time.Hour)

	token, err := issuer.GenerateAccessToken(entity.User{Id: "u1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := verifier.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateAccessToken_Malformed(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", time.Hour, 24*time.Hour)
	if _, err := manager.ValidateAccessToken("not.a.jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGenerateRefreshTokenIsRandom(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", time.Hour, 24*time.Hour)

	first, err := manager.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken error: %v", err)
	}
	second, err := manager.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken error: %v", err)
	}
	if first == second {
		t.Fatal("two refresh tokens should not collide")
	}
	if len(first) == 0 {
		t.Fatal("refresh token is empty")
	}
}
