// Package identity holds the customer account model and its lifecycle
// operations.
package identity

import (
	"context"
	"net/mail"
	"strings"

	"github.com/go-faster/errors"
)

// Sentinel errors for identity operations.
var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrInvalidEmail  = errors.New("invalid email address")
)

// User is a registered customer. The email is the primary identifier and the
// record key in the users collection.
//
// Cart and Orders live on the user record as well: the cart is the working
// state for the next order, Orders is the history of placed order ids. The
// storage key stays `users/<email>` so the layout matches existing data.
type User struct {
	Email        string         `json:"email"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	PasswordHash string         `json:"passwordHash"`
	Address      string         `json:"address"`
	TOSAgreement bool           `json:"tosAgreement"`
	Cart         map[string]int `json:"cart,omitempty"`
	Orders       []string       `json:"orders,omitempty"`
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, email string) error
}

// ValidEmail reports whether addr parses as a bare RFC 5322 address.
func ValidEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	// Reject display-name forms like `Bob <bob@example.com>`.
	return parsed.Address == strings.TrimSpace(addr)
}
