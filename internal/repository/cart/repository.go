package cart

import (
	"context"

	"shopfront/internal/domain"
)

type Repository interface {
	// GetOrCreate returns the user's cart with its items, creating an
	// empty cart row on first use.
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	// UpsertItem inserts a line or adds to an existing line's quantity.
	UpsertItem(ctx context.Context, cartID string, item domain.CartItem) error
	// RemoveItem deletes a line; domain.ErrNotFound when absent.
	RemoveItem(ctx context.Context, cartID, productID string) error
	// Clear removes every line. Clearing an empty cart is a no-op.
	Clear(ctx context.Context, cartID string) error
}
