package order

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"shopfront/internal/api"
	"shopfront/internal/domain"
)

// Service reads orders and, for administrators, applies status changes.
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

// List fetches the session user's orders, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.client.Do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get fetches one of the session user's orders.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	var ord domain.Order
	if err := s.client.Do(ctx, http.MethodGet, "/orders/"+id, nil, &ord); err != nil {
		return nil, err
	}
	return &ord, nil
}

// ListAll fetches every order across users. Admin only.
func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.client.Do(ctx, http.MethodGet, "/admin/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus asks the backend to move an order to next. The status
// value is checked against the known vocabulary before any network
// call; which transitions are legal is the server's decision.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("order: unknown status %q", next)
	}
	payload := map[string]string{"status": string(next)}
	var ord domain.Order
	if err := s.client.Do(ctx, http.MethodPut, "/admin/orders/"+id+"/status", payload, &ord); err != nil {
		return nil, err
	}
	s.logger.Printf("order: %s status set to %s", id, ord.Status)
	return &ord, nil
}
