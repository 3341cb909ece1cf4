package auth

import (
	"context"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

type authorKey struct{}

// WithAuthor attaches the authenticated author to ctx
func WithAuthor(ctx context.Context, author domain.Author) context.Context {
	return context.WithValue(ctx, authorKey{}, author)
}

// AuthorFrom returns the authenticated author, if any
func AuthorFrom(ctx context.Context) (domain.Author, bool) {
	author, ok := ctx.Value(authorKey{}).(domain.Author)
	return author, ok
}
