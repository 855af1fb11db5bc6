package catalog

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"shopfront/internal/api"
	"shopfront/internal/domain"
)

// Service is the read-side product catalog: listing with search and
// pagination, and single-product lookup. Product state lives entirely
// on the server; nothing is cached here.
type Service struct {
	client *api.Client
	logger *log.Logger
}

func New(client *api.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{client: client, logger: logger}
}

// ListParams narrows and pages the product listing. Zero values are
// omitted from the query.
type ListParams struct {
	Search   string
	Category string
	Skip     int
	Limit    int
}

// List fetches products matching p.
func (s *Service) List(ctx context.Context, p ListParams) ([]domain.Product, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Skip > 0 {
		q.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	path := "/products"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var products []domain.Product
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get fetches one product by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := s.client.Do(ctx, http.MethodGet, "/products/"+id, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
