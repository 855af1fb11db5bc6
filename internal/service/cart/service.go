package cart

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/domain"
	cartrepo "shopfront/internal/repository/cart"
)

var (
	// ErrProductNotFound is returned when adding an unknown product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuantity is returned for a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInsufficientStock is returned when the requested quantity,
	// combined with what is already in the cart, exceeds stock.
	ErrInsufficientStock = errors.New("not enough stock")
	// ErrItemNotInCart is returned when removing an absent line.
	ErrItemNotInCart = errors.New("item not in cart")
)

type Service struct {
	repo     cartrepo.Repository
	products productRepo
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the user's cart, creating it on first use.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// AddItem snapshots the product's current name and price into the cart
// and increments the line's quantity. Feasibility against stock is
// checked here so a shopper cannot queue up more than exists.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	inCart := 0
	if line, ok := c.Item(productID); ok {
		inCart = line.Quantity
	}
	if inCart+quantity > product.Stock {
		return nil, fmt.Errorf("%w for product: %s", ErrInsufficientStock, product.Name)
	}

	if err := s.repo.UpsertItem(ctx, c.ID, domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}

// RemoveItem drops a product's line entirely.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, c.ID, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrItemNotInCart
		}
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Clear(ctx, c.ID); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}
