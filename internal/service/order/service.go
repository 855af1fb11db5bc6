package order

import (
	"context"
	"errors"
	"strings"

	"shopfront/internal/domain"
	orderrepo "shopfront/internal/repository/order"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart rejects checkout of a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidAddress marks a shipping address missing required
	// fields.
	ErrInvalidAddress = errors.New("incomplete shipping address")
	// ErrUnknownStatus rejects a status value outside the vocabulary.
	ErrUnknownStatus = errors.New("unknown order status")
)

type Service struct {
	repo  orderrepo.Repository
	carts cartReader
}

type cartReader interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
}

func New(repo orderrepo.Repository, carts cartReader) *Service {
	return &Service{repo: repo, carts: carts}
}

// Checkout creates an order from the user's server-held cart. The cart
// is re-read here rather than trusting any client snapshot, the total
// is computed server-side, and stock is decremented atomically by the
// repository. The cart itself is left alone: clearing it is the
// client's follow-up step.
func (s *Service) Checkout(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return s.repo.Create(ctx, domain.Order{
		UserID:          userID,
		Items:           c.Items,
		Total:           total,
		Status:          domain.StatusPending,
		ShippingAddress: addr,
	})
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetForUser returns one order scoped to its owner.
func (s *Service) GetForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	return s.repo.GetByIDForUser(ctx, userID, id)
}

// ListAll returns every order. Admin only, enforced by the caller.
func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus sets an order's status. Any known status is accepted
// from any other: transitions are deliberately unrestricted, matching
// the contract the admin UI was built against.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*domain.Order, error) {
	status, err := domain.ParseOrderStatus(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrUnknownStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func validateAddress(a domain.ShippingAddress) error {
	for _, v := range []string{a.AddressLine1, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return ErrInvalidAddress
		}
	}
	return nil
}
