package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("a-test-secret-that-is-long-enough", time.Hour)
	author := domain.Author{DisplayName: "Mihir Parmar", AvatarURL: "/avatar.png", Bio: "Writer"}

	token, expiresAt, err := m.GenerateToken("author-1", author)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("Expected expiry in the future, got %v", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.AuthorID != "author-1" || claims.Author() != author {
		t.Errorf("Unexpected claims %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("a-test-secret-that-is-long-enough", time.Hour)
	other := NewJWTManager("a-different-secret-entirely-here", time.Hour)

	foreign, _, _ := other.GenerateToken("x", domain.Author{DisplayName: "X"})

	expired := NewJWTManager("a-test-secret-that-is-long-enough", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, _ := expired.GenerateToken("x", domain.Author{DisplayName: "X"})

	anonymous, _, _ := m.GenerateToken("x", domain.Author{})

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong secret":   foreign,
		"expired":        stale,
		"no byline name": anonymous,
	}
	for name, token := range tests {
		if _, err := m.ValidateToken(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestAuthorContext(t *testing.T) {
	if _, ok := AuthorFrom(context.Background()); ok {
		t.Errorf("Expected no author in an empty context")
	}

	ctx := WithAuthor(context.Background(), domain.Author{DisplayName: "Ada"})
	author, ok := AuthorFrom(ctx)
	if !ok || author.DisplayName != "Ada" {
		t.Errorf("Unexpected author %+v", author)
	}
}
