package records

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/internal/store"
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository reads and seeds the single menu record in the menus
// collection.
type MenuRepository struct {
	store store.Store
}

// NewMenuRepository returns a MenuRepository backed by the given store.
func NewMenuRepository(s store.Store) *MenuRepository {
	return &MenuRepository{store: s}
}

func (r *MenuRepository) Get(ctx context.Context) (menu.Menu, error) {
	var m menu.Menu
	if err := r.store.Read(ctx, store.CollectionMenus, menu.Key, &m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, menu.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// Put creates or replaces the menu record. Used by seeding.
func (r *MenuRepository) Put(ctx context.Context, m menu.Menu) error {
	err := r.store.Update(ctx, store.CollectionMenus, menu.Key, m)
	if errors.Is(err, store.ErrNotFound) {
		return r.store.Create(ctx, store.CollectionMenus, menu.Key, m)
	}
	return err
}
