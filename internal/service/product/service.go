package product

import (
	"context"
	"errors"
	"strings"

	"shopfront/internal/domain"
	productrepo "shopfront/internal/repository/product"

	"github.com/shopspring/decimal"
)

// maxPageSize caps the listing page a client may request.
const maxPageSize = 100

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// ListParams mirrors the listing query string.
type ListParams struct {
	Search   string
	Category string
	Skip     int
	Limit    int
}

func (s *Service) List(ctx context.Context, p ListParams) ([]domain.Product, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	return s.repo.List(ctx, productrepo.ListFilter{
		Search:   strings.TrimSpace(p.Search),
		Category: strings.TrimSpace(p.Category),
		Skip:     skip,
		Limit:    limit,
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Input carries admin-settable product fields.
type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p, err := productFromInput(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	p, err := productFromInput(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SetImage records the stored image URL for a product.
func (s *Service) SetImage(ctx context.Context, id, url string) (*domain.Product, error) {
	return s.repo.SetImageURL(ctx, id, url)
}

func productFromInput(in Input) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, errors.New("name required")
	}
	price := in.Price
	if price.IsNegative() {
		return domain.Product{}, errors.New("price must not be negative")
	}
	if in.Stock < 0 {
		return domain.Product{}, errors.New("stock must not be negative")
	}
	return domain.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}, nil
}
