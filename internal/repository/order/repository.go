package order

import (
	"context"
	"errors"

	"shopfront/internal/domain"
)

// ErrInsufficientStock is returned when a checkout would take a product
// below zero stock. The decrement and the check are one atomic
// statement, so two concurrent checkouts cannot both win the last unit.
var ErrInsufficientStock = errors.New("insufficient stock")

type Repository interface {
	// Create inserts the order and its item snapshots and decrements
	// product stock, all in one transaction.
	Create(ctx context.Context, order domain.Order) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetByIDForUser(ctx context.Context, userID, id string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}
