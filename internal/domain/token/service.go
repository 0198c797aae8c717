package token

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/pkg/randstr"
)

// UserGetter is the slice of the identity repository the token service needs.
type UserGetter interface {
	Get(ctx context.Context, email string) (*identity.User, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(password, storedHash string) bool
}

// Service issues, verifies, extends, and revokes session tokens.
type Service struct {
	tokens   Repository
	users    UserGetter
	verifier PasswordVerifier
	lifetime time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a token Service. lifetime is how far in the future new
// and extended tokens expire.
func NewService(tokens Repository, users UserGetter, verifier PasswordVerifier, lifetime time.Duration) *Service {
	return &Service{
		tokens:   tokens,
		users:    users,
		verifier: verifier,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Issue verifies the password against the stored user and creates a new token.
// A wrong password and an unknown user are indistinguishable to the caller.
func (s *Service) Issue(ctx context.Context, email, password string) (*Token, error) {
	u, err := s.users.Get(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !s.verifier.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	id, err := randstr.New(IDLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate token id")
	}

	t := &Token{
		ID:      id,
		Email:   email,
		Expires: s.now().Add(s.lifetime),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, errors.Wrap(err, "store token")
	}
	return t, nil
}

// Get returns the token by id.
func (s *Service) Get(ctx context.Context, id string) (*Token, error) {
	return s.tokens.Get(ctx, id)
}

// Verify reports whether the token exists, is bound to email, and has not
// expired. It never returns an error; every protected operation gates on the
// boolean and maps false to an authorization failure at the boundary.
func (s *Service) Verify(ctx context.Context, id, email string) bool {
	t, err := s.tokens.Get(ctx, id)
	if err != nil {
		return false
	}
	return t.Email == email && t.Expires.After(s.now())
}

// Extend pushes the token's expiry to lifetime from now, only if it has not
// already expired.
func (s *Service) Extend(ctx context.Context, id, email string) (*Token, error) {
	t, err := s.tokens.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Email != email {
		return nil, ErrNotFound
	}
	if !t.Expires.After(s.now()) {
		return nil, ErrExpired
	}

	t.Expires = s.now().Add(s.lifetime)
	if err := s.tokens.Update(ctx, t); err != nil {
		return nil, errors.Wrap(err, "update token")
	}
	return t, nil
}

// Revoke deletes the token immediately.
func (s *Service) Revoke(ctx context.Context, id string) error {
	return s.tokens.Delete(ctx, id)
}
