package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shopfront/internal/api"
	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionStub struct{ authed bool }

func (s sessionStub) IsAuthenticated() bool { return s.authed }

// cartBackend keeps a server-side cart and answers the cart endpoints the
// way the storefront backend does: every response is the full cart.
type cartBackend struct {
	mu    sync.Mutex
	items []domain.CartItem
}

func (b *cartBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		b.respond(w)
	})
	mux.HandleFunc("POST /cart/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		found := false
		for i := range b.items {
			if b.items[i].ProductID == req.ProductID {
				b.items[i].Quantity += req.Quantity
				found = true
			}
		}
		if !found {
			price := map[string]string{"p1": "10.00", "p2": "5.50"}[req.ProductID]
			b.items = append(b.items, domain.CartItem{
				ProductID: req.ProductID,
				Name:      "Product " + req.ProductID,
				Price:     decimal.RequireFromString(price),
				Quantity:  req.Quantity,
			})
		}
		b.mu.Unlock()
		b.respond(w)
	})
	mux.HandleFunc("POST /cart/remove/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		kept := b.items[:0]
		removed := false
		for _, item := range b.items {
			if item.ProductID == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		b.items = kept
		b.mu.Unlock()
		if !removed {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"item not in cart"}`))
			return
		}
		b.respond(w)
	})
	mux.HandleFunc("POST /cart/clear", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.items = nil
		b.mu.Unlock()
		b.respond(w)
	})
	return mux
}

func (b *cartBackend) respond(w http.ResponseWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	if items == nil {
		items = []domain.CartItem{}
	}
	json.NewEncoder(w).Encode(domain.Cart{ID: "c1", UserID: "u1", Items: items})
}

func newTestStore(t *testing.T) (*Store, *cartBackend) {
	t.Helper()
	backend := &cartBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL)
	return New(client, sessionStub{authed: true}, nil), backend
}

func TestAddItemDerivesTotals(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "p1", 2)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "p2", 1)
	require.NoError(t, err)

	assert.Equal(t, 3, store.ItemCount())
	assert.True(t, store.Total().Equal(decimal.RequireFromString("25.50")),
		"expected 25.50, got %s", store.Total())
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "p1", 1)
	require.NoError(t, err)
	c, err := store.AddItem(ctx, "p1", 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestRemoveItemDropsWholeLine(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "p1", 2)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "p2", 1)
	require.NoError(t, err)

	c, err := store.RemoveItem(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
	assert.True(t, store.Total().Equal(decimal.RequireFromString("5.50")),
		"expected 5.50, got %s", store.Total())
}

func TestRemoveAbsentItemSurfacesServerError(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.RemoveItem(ctx, "nope")
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "item not in cart", apiErr.Message)
}

func TestClearIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "p1", 2)
	require.NoError(t, err)

	c, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	c, err = store.Clear(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, store.ItemCount())
}

func TestUnauthenticatedOperationsRejectedLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	store := New(api.NewClient(srv.URL), sessionStub{authed: false}, nil)

	_, err := store.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = store.AddItem(context.Background(), "p1", 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, called, "no request may leave the process without a session")
}

func TestInvalidQuantityRejectedLocally(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddItem(context.Background(), "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = store.AddItem(context.Background(), "p1", -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestResetDropsStaleResponses(t *testing.T) {
	enter := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(enter)
		<-release
		json.NewEncoder(w).Encode(domain.Cart{ID: "c1", Items: []domain.CartItem{{
			ProductID: "p1", Name: "Product p1", Price: decimal.RequireFromString("10.00"), Quantity: 2,
		}}})
	}))
	defer srv.Close()

	store := New(api.NewClient(srv.URL), sessionStub{authed: true}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Fetch(context.Background())
	}()

	<-enter
	store.Reset() // logout happened while the fetch was in flight
	close(release)
	<-done

	assert.Equal(t, 0, store.ItemCount(), "stale response must not resurrect the cart")
}

func TestSubscribeSeesEveryChange(t *testing.T) {
	store, _ := newTestStore(t)

	changes := 0
	cancel := store.Subscribe(func() { changes++ })

	_, err := store.AddItem(context.Background(), "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	cancel()
	_, err = store.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changes)
}
