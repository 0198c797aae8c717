// Package token implements session tokens bound to a user identity.
package token

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for token operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("token not found")
	ErrExpired            = errors.New("token expired")
)

// IDLength is the length of generated token ids.
const IDLength = 20

// Token is a short-lived credential proving a request acts on behalf of the
// bound email. One token per login; logins do not invalidate earlier tokens.
type Token struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

// Repository defines persistence operations for tokens.
type Repository interface {
	Create(ctx context.Context, t *Token) error
	Get(ctx context.Context, id string) (*Token, error)
	Update(ctx context.Context, t *Token) error
	Delete(ctx context.Context, id string) error
}
