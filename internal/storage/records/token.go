package records

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria-api/internal/domain/token"
	"github.com/xenking/pizzeria-api/internal/store"
)

var _ token.Repository = (*TokenRepository)(nil)

// TokenRepository persists session tokens in the tokens collection, keyed by
// token id.
type TokenRepository struct {
	store store.Store
}

// NewTokenRepository returns a TokenRepository backed by the given store.
func NewTokenRepository(s store.Store) *TokenRepository {
	return &TokenRepository{store: s}
}

func (r *TokenRepository) Create(ctx context.Context, t *token.Token) error {
	return r.store.Create(ctx, store.CollectionTokens, t.ID, t)
}

func (r *TokenRepository) Get(ctx context.Context, id string) (*token.Token, error) {
	var t token.Token
	if err := r.store.Read(ctx, store.CollectionTokens, id, &t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, token.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) Update(ctx context.Context, t *token.Token) error {
	err := r.store.Update(ctx, store.CollectionTokens, t.ID, t)
	if errors.Is(err, store.ErrNotFound) {
		return token.ErrNotFound
	}
	return err
}

func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, store.CollectionTokens, id)
	if errors.Is(err, store.ErrNotFound) {
		return token.ErrNotFound
	}
	return err
}
