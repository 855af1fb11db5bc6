package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"shopfront/internal/api"
	"shopfront/internal/domain"
)

var (
	// ErrEmptyCart rejects checkout before any network call. A
	// zero-item order must never be produced silently.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidAddress marks a shipping address missing a required
	// field.
	ErrInvalidAddress = errors.New("checkout: invalid shipping address")
)

// PartialFailureError records an order that was placed while the
// follow-up cart clear failed. The order stands; the cart may still
// hold the purchased items.
type PartialFailureError struct {
	OrderID string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("checkout: order %s placed but cart clear failed: %v", e.OrderID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// CartView is the slice of the cart store the coordinator needs.
type CartView interface {
	ItemCount() int
	Clear(ctx context.Context) (domain.Cart, error)
}

// Coordinator runs the checkout sequence: create the order from the
// server-held cart, then clear the cart. The order, once placed, is
// never retracted by a failure downstream of its creation.
type Coordinator struct {
	client *api.Client
	cart   CartView
	logger *log.Logger

	mu          sync.Mutex
	lastPartial *PartialFailureError
}

func New(client *api.Client, cart CartView, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Coordinator{client: client, cart: cart, logger: logger}
}

// Result reports a successful checkout. ClearErr is non-nil when the
// order was created but the cart clear failed; the checkout still
// counts as a success and the caller navigates to Order.ID.
type Result struct {
	Order    domain.Order
	ClearErr *PartialFailureError
}

// Checkout places an order shipped to addr. Failure before the order
// exists aborts with no side effects; failure after is partial and
// reported alongside success.
func (c *Coordinator) Checkout(ctx context.Context, addr domain.ShippingAddress) (*Result, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	if c.cart.ItemCount() == 0 {
		return nil, ErrEmptyCart
	}

	// The server re-reads its own cart; the local snapshot only gates
	// the empty-cart precondition.
	payload := map[string]domain.ShippingAddress{"shipping_address": addr}
	var ord domain.Order
	if err := c.client.Do(ctx, http.MethodPost, "/orders/checkout", payload, &ord); err != nil {
		return nil, err
	}
	c.logger.Printf("checkout: order %s placed, total=%s", ord.ID, ord.Total)

	result := &Result{Order: ord}
	if _, err := c.cart.Clear(ctx); err != nil {
		partial := &PartialFailureError{OrderID: ord.ID, Err: err}
		c.logger.Printf("%v", partial)
		c.mu.Lock()
		c.lastPartial = partial
		c.mu.Unlock()
		result.ClearErr = partial
	}
	return result, nil
}

// LastPartialFailure returns the most recent order-placed-but-cart-kept
// outcome, for passive observers.
func (c *Coordinator) LastPartialFailure() *PartialFailureError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPartial
}

func validateAddress(a domain.ShippingAddress) error {
	required := []struct {
		name  string
		value string
	}{
		{"address_line1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAddress, f.name)
		}
	}
	return nil
}
