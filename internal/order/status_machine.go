package order

import (
	"context"
	"sync"

	"shopfront/internal/domain"
)

// StatusMachine tracks one order's lifecycle stage for an admin view.
// It presents the current status and the candidate set for manual
// selection, and applies the administrator's choice through the API.
// The server is the enforcer of legal transitions: the machine offers
// every status as a candidate, and a rejected transition leaves local
// state untouched with the server's error surfaced to the caller.
type StatusMachine struct {
	svc *Service

	mu    sync.Mutex
	order domain.Order
}

// NewStatusMachine binds a machine to an order snapshot.
func NewStatusMachine(svc *Service, order domain.Order) *StatusMachine {
	return &StatusMachine{svc: svc, order: order}
}

// Order returns the tracked order as last confirmed by the server.
func (m *StatusMachine) Order() domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order
}

// Current returns the tracked order's status.
func (m *StatusMachine) Current() domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Status
}

// Candidates returns the statuses an administrator may select. The
// observed backend contract treats every status as reachable from every
// other, including backward moves and moves out of cancelled, so the
// full vocabulary is returned.
func (m *StatusMachine) Candidates() []domain.OrderStatus {
	return domain.OrderStatuses()
}

// Apply moves the order to next via the backend and adopts the server's
// response as ground truth. On any error the local order is unchanged.
func (m *StatusMachine) Apply(ctx context.Context, next domain.OrderStatus) (domain.Order, error) {
	m.mu.Lock()
	id := m.order.ID
	m.mu.Unlock()

	updated, err := m.svc.UpdateStatus(ctx, id, next)
	if err != nil {
		return m.Order(), err
	}

	m.mu.Lock()
	m.order = *updated
	m.mu.Unlock()
	return *updated, nil
}

// Refresh re-reads the order from the backend.
func (m *StatusMachine) Refresh(ctx context.Context) (domain.Order, error) {
	m.mu.Lock()
	id := m.order.ID
	m.mu.Unlock()

	ord, err := m.svc.Get(ctx, id)
	if err != nil {
		return m.Order(), err
	}

	m.mu.Lock()
	m.order = *ord
	m.mu.Unlock()
	return *ord, nil
}
