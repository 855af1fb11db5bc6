package product

import (
	"context"

	"shopfront/internal/domain"
)

// ListFilter narrows and pages a product listing. Zero values match
// everything.
type ListFilter struct {
	Search   string
	Category string
	Skip     int
	Limit    int
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	SetImageURL(ctx context.Context, id, url string) (*domain.Product, error)
}
