package catalog

import (
	"context"
	"io"
	"net/http"

	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
)

// ProductInput carries the fields an administrator may set on a
// product. The server owns id and timestamps.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// Create adds a new product. Admin only; the server enforces the role.
func (s *Service) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	var product domain.Product
	if err := s.client.Do(ctx, http.MethodPost, "/admin/products", in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update rewrites product id with in.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	var product domain.Product
	if err := s.client.Do(ctx, http.MethodPut, "/admin/products/"+id, in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes product id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, http.MethodDelete, "/admin/products/"+id, nil, nil)
}

// UploadImage sends a product image as multipart form data and returns
// the URL the backend stored it under.
func (s *Service) UploadImage(ctx context.Context, id, filename string, file io.Reader) (string, error) {
	var out struct {
		ImageURL string `json:"image_url"`
	}
	if err := s.client.Upload(ctx, "/admin/products/"+id+"/upload-image", "image", filename, file, &out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}
