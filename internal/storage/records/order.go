package records

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria-api/internal/domain/order"
	"github.com/xenking/pizzeria-api/internal/store"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository persists orders in the orders collection, keyed by order id.
type OrderRepository struct {
	store store.Store
}

// NewOrderRepository returns an OrderRepository backed by the given store.
func NewOrderRepository(s store.Store) *OrderRepository {
	return &OrderRepository{store: s}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.store.Create(ctx, store.CollectionOrders, o.ID, o)
	if errors.Is(err, store.ErrAlreadyExists) {
		return order.ErrAlreadyExists
	}
	return err
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := r.store.Read(ctx, store.CollectionOrders, id, &o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
