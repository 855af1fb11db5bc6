package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"shopfront/internal/api"
	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnauthenticated is returned when a cart operation runs without
	// a session. The UI gates on the session store, so hitting this is
	// a caller bug, but the contract rejects misuse defensively.
	ErrUnauthenticated = errors.New("cart: not authenticated")
	// ErrInvalidQuantity is returned for a non-positive quantity.
	// Anything else about quantity (stock, limits) is the server's call
	// and its error is surfaced verbatim.
	ErrInvalidQuantity = errors.New("cart: quantity must be a positive integer")
)

// Sessioner gates cart access on authentication state.
type Sessioner interface {
	IsAuthenticated() bool
}

// Store holds the local view of the shopping cart. Every mutation is a
// round trip; the server response replaces the whole cart, there is no
// client-side merge or patching. Concurrent mutations are permitted and
// race: the last response to arrive wins. Callers needing strict
// ordering serialize their calls.
type Store struct {
	client  *api.Client
	session Sessioner
	logger  *log.Logger

	mu      sync.Mutex
	cart    domain.Cart
	gen     uint64
	lastErr error
	subs    map[int]func()
	nextSub int
}

// New builds a Store gated by session.
func New(client *api.Client, session Sessioner, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		client:  client,
		session: session,
		logger:  logger,
		subs:    make(map[int]func()),
	}
}

// Fetch loads the server cart and replaces local state.
func (s *Store) Fetch(ctx context.Context) (domain.Cart, error) {
	return s.roundTrip(ctx, http.MethodGet, "/cart", nil)
}

// AddItem adds quantity of a product. Stock feasibility is not checked
// here; the server is authoritative and its rejection is surfaced as-is.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		s.setError(ErrInvalidQuantity)
		return s.Cart(), ErrInvalidQuantity
	}
	payload := map[string]interface{}{"product_id": productID, "quantity": quantity}
	return s.roundTrip(ctx, http.MethodPost, "/cart/add", payload)
}

// RemoveItem drops a product's line entirely.
func (s *Store) RemoveItem(ctx context.Context, productID string) (domain.Cart, error) {
	return s.roundTrip(ctx, http.MethodPost, "/cart/remove/"+productID, nil)
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (s *Store) Clear(ctx context.Context) (domain.Cart, error) {
	return s.roundTrip(ctx, http.MethodPost, "/cart/clear", nil)
}

// Cart returns a snapshot of the local cart.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.cart)
}

// ItemCount is the derived sum of quantities, recomputed on every call.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// Total is the derived sum of price*quantity, recomputed on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// LastError returns the most recent operation failure, for passive
// observers.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset discards local cart state and invalidates in-flight responses:
// a request issued before Reset can no longer overwrite the store when
// it lands. Called on logout and on view teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	s.gen++
	s.cart = domain.Cart{}
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every cart change. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// roundTrip performs one cart request and, when the store generation is
// unchanged, replaces local state wholesale with the server's cart.
func (s *Store) roundTrip(ctx context.Context, method, path string, payload interface{}) (domain.Cart, error) {
	if !s.session.IsAuthenticated() {
		s.setError(ErrUnauthenticated)
		return domain.Cart{}, ErrUnauthenticated
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	var updated domain.Cart
	if err := s.client.Do(ctx, method, path, payload, &updated); err != nil {
		s.setError(err)
		return s.Cart(), fmt.Errorf("cart %s: %w", path, err)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cart = updated
		s.lastErr = nil
		s.mu.Unlock()
		s.notify()
	} else {
		s.mu.Unlock()
		s.logger.Printf("cart: dropping stale response for %s", path)
	}
	return snapshot(updated), nil
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// snapshot copies the cart so callers cannot alias the store's slice.
func snapshot(c domain.Cart) domain.Cart {
	out := c
	if c.Items != nil {
		out.Items = make([]domain.CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
