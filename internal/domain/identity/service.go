package identity

import (
	"context"

	"github.com/go-faster/errors"
)

// RegisterRequest holds the input for creating a new user.
type RegisterRequest struct {
	Email        string
	FirstName    string
	LastName     string
	Password     string
	Address      string
	TOSAgreement bool
}

// UpdateRequest holds the mutable profile fields. Empty fields keep their
// current value; a non-empty Password replaces the stored hash.
type UpdateRequest struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Address   string
}

// Service manages user accounts.
type Service struct {
	users  Repository
	hasher *Hasher
}

// NewService creates an identity Service.
func NewService(users Repository, hasher *Hasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// Register creates a new user keyed by email. The password is stored only as
// its hash.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if !ValidEmail(req.Email) {
		return nil, ErrInvalidEmail
	}

	u := &User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: s.hasher.Hash(req.Password),
		Address:      req.Address,
		TOSAgreement: req.TOSAgreement,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Get returns the user for the given email.
func (s *Service) Get(ctx context.Context, email string) (*User, error) {
	return s.users.Get(ctx, email)
}

// Update applies the non-empty fields of req to the stored user.
//
// Read-modify-write without isolation: a concurrent update to the same user
// can be lost, which the store contract allows.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*User, error) {
	u, err := s.users.Get(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.Address != "" {
		u.Address = req.Address
	}
	if req.Password != "" {
		u.PasswordHash = s.hasher.Hash(req.Password)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// Delete removes the user record. Order records referencing the user are kept;
// reconciliation of orphaned orders is outside this service.
func (s *Service) Delete(ctx context.Context, email string) error {
	return s.users.Delete(ctx, email)
}

// SetCart replaces the user's cart.
func (s *Service) SetCart(ctx context.Context, email string, cart map[string]int) error {
	u, err := s.users.Get(ctx, email)
	if err != nil {
		return err
	}
	u.Cart = cart
	return s.users.Update(ctx, u)
}

// MergeCart adds the given quantities to the user's existing cart.
func (s *Service) MergeCart(ctx context.Context, email string, items map[string]int) error {
	u, err := s.users.Get(ctx, email)
	if err != nil {
		return err
	}
	if u.Cart == nil {
		u.Cart = make(map[string]int, len(items))
	}
	for id, qty := range items {
		u.Cart[id] += qty
	}
	return s.users.Update(ctx, u)
}

// ClearCart removes the user's cart.
func (s *Service) ClearCart(ctx context.Context, email string) error {
	u, err := s.users.Get(ctx, email)
	if err != nil {
		return err
	}
	u.Cart = nil
	return s.users.Update(ctx, u)
}
