// Package records implements the domain repository interfaces on top of the
// generic record store, mapping store errors to domain errors.
package records

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/store"
)

var _ identity.Repository = (*UserRepository)(nil)

// UserRepository persists users in the users collection, keyed by email.
type UserRepository struct {
	store store.Store
}

// NewUserRepository returns a UserRepository backed by the given store.
func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

func (r *UserRepository) Create(ctx context.Context, u *identity.User) error {
	err := r.store.Create(ctx, store.CollectionUsers, u.Email, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		return identity.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) Get(ctx context.Context, email string) (*identity.User, error) {
	var u identity.User
	if err := r.store.Read(ctx, store.CollectionUsers, email, &u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *identity.User) error {
	err := r.store.Update(ctx, store.CollectionUsers, u.Email, u)
	if errors.Is(err, store.ErrNotFound) {
		return identity.ErrNotFound
	}
	return err
}

func (r *UserRepository) Delete(ctx context.Context, email string) error {
	err := r.store.Delete(ctx, store.CollectionUsers, email)
	if errors.Is(err, store.ErrNotFound) {
		return identity.ErrNotFound
	}
	return err
}
