// Package menu holds the read-only product catalog.
package menu

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when the menu record does not exist.
var ErrNotFound = errors.New("menu not found")

// Key is the record key of the single menu document in the menus collection.
const Key = "menu"

// Item is a single menu entry. Price is in the smallest currency unit.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Menu maps item id to item. The whole catalog is stored as one record, so a
// read returns a consistent snapshot.
type Menu map[string]Item

// Repository defines read and seed operations for the menu.
type Repository interface {
	Get(ctx context.Context) (Menu, error)
	Put(ctx context.Context, m Menu) error
}
