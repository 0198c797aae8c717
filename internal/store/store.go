// Package store provides generic keyed persistence for named collections.
//
// Every application entity (users, tokens, menus, orders) lives in its own
// collection, addressed by a string key that is unique within the collection.
// The store treats records as opaque JSON documents and offers exactly one
// concurrency guarantee: Create fails when the key already exists. There are
// no cross-key transactions and no atomic read-modify-write; two concurrent
// updates to the same key race and the last write wins.
package store

import (
	"context"

	"github.com/go-faster/errors"
)

// Sentinel errors returned by Store implementations. Any other error indicates
// an I/O or backend failure.
var (
	ErrAlreadyExists = errors.New("record already exists")
	ErrNotFound      = errors.New("record not found")
)

// Collection names used by the application.
const (
	CollectionUsers  = "users"
	CollectionTokens = "tokens"
	CollectionMenus  = "menus"
	CollectionOrders = "orders"
)

// Store is the keyed record persistence contract.
//
// Records are marshaled to and from JSON; callers pass their own typed values.
// Read unmarshals into out, which must be a non-nil pointer.
type Store interface {
	Create(ctx context.Context, collection, key string, record any) error
	Read(ctx context.Context, collection, key string, out any) error
	Update(ctx context.Context, collection, key string, record any) error
	Delete(ctx context.Context, collection, key string) error
}
