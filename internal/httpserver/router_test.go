package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"shopfront/internal/domain"
	authsvc "shopfront/internal/service/auth"
	cartsvc "shopfront/internal/service/cart"
	ordersvc "shopfront/internal/service/order"
	productsvc "shopfront/internal/service/product"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type stubAuth struct {
	signupErr error
	loginErr  error
}

func (s *stubAuth) Signup(_ context.Context, in authsvc.SignupInput) (*domain.User, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Role: domain.RoleCustomer}, nil
}

func (s *stubAuth) Login(_ context.Context, _, _ string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return "tok-user", nil
}

func (s *stubAuth) UserFromToken(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case "tok-user":
		return &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleCustomer}, nil
	case "tok-admin":
		return &domain.User{ID: "u2", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin}, nil
	}
	return nil, authsvc.ErrInvalidToken
}

func (s *stubAuth) Logout(_ context.Context, _ string) error { return nil }

type stubProducts struct {
	getErr error
}

func (s *stubProducts) List(_ context.Context, _ productsvc.ListParams) ([]domain.Product, error) {
	return []domain.Product{{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("24.99")}}, nil
}

func (s *stubProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Product{ID: id, Name: "Lamp"}, nil
}

func (s *stubProducts) Create(_ context.Context, in productsvc.Input) (*domain.Product, error) {
	return &domain.Product{ID: "p9", Name: in.Name, Price: in.Price}, nil
}

func (s *stubProducts) Update(_ context.Context, id string, in productsvc.Input) (*domain.Product, error) {
	return &domain.Product{ID: id, Name: in.Name}, nil
}

func (s *stubProducts) Delete(_ context.Context, _ string) error { return nil }

func (s *stubProducts) SetImage(_ context.Context, id, url string) (*domain.Product, error) {
	return &domain.Product{ID: id, ImageURL: url}, nil
}

type stubCart struct {
	addErr error
}

func (s *stubCart) Get(_ context.Context, userID string) (*domain.Cart, error) {
	return &domain.Cart{ID: "c1", UserID: userID, Items: []domain.CartItem{}}, nil
}

func (s *stubCart) AddItem(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.Cart{ID: "c1", UserID: userID, Items: []domain.CartItem{
		{ProductID: productID, Quantity: quantity},
	}}, nil
}

func (s *stubCart) RemoveItem(_ context.Context, userID, _ string) (*domain.Cart, error) {
	return &domain.Cart{ID: "c1", UserID: userID, Items: []domain.CartItem{}}, nil
}

func (s *stubCart) Clear(_ context.Context, userID string) (*domain.Cart, error) {
	return &domain.Cart{ID: "c1", UserID: userID, Items: []domain.CartItem{}}, nil
}

type stubOrders struct {
	checkoutErr error
	statusErr   error
}

func (s *stubOrders) Checkout(_ context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return &domain.Order{ID: "o1", UserID: userID, Status: domain.StatusPending, ShippingAddress: addr}, nil
}

func (s *stubOrders) ListForUser(_ context.Context, _ string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrders) GetForUser(_ context.Context, _, _ string) (*domain.Order, error) {
	return nil, domain.ErrNotFound
}

func (s *stubOrders) ListAll(_ context.Context) ([]domain.Order, error) {
	return []domain.Order{{ID: "o1"}}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id, status string) (*domain.Order, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &domain.Order{ID: id, Status: domain.OrderStatus(status)}, nil
}

func testRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.AuthSvc == nil {
		deps.AuthSvc = &stubAuth{}
	}
	if deps.ProductSvc == nil {
		deps.ProductSvc = &stubProducts{}
	}
	if deps.CartSvc == nil {
		deps.CartSvc = &stubCart{}
	}
	if deps.OrderSvc == nil {
		deps.OrderSvc = &stubOrders{}
	}
	router, err := buildRouter(log.New(io.Discard, "", 0), nil, deps, Options{UploadDir: t.TempDir()})
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	return router
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterRequiresServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if _, err := buildRouter(log.New(io.Discard, "", 0), nil, Deps{}, Options{}); err == nil {
		t.Fatal("expected error for missing services")
	}
}

func TestSignup(t *testing.T) {
	router := testRouter(t, Deps{})

	w := doJSON(router, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodPost, "/auth/signup", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status = %d", w.Code)
	}

	router = testRouter(t, Deps{AuthSvc: &stubAuth{signupErr: authsvc.ErrEmailTaken}})
	w = doJSON(router, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email: status = %d", w.Code)
	}
}

func TestLoginFormContract(t *testing.T) {
	router := testRouter(t, Deps{})

	form := url.Values{}
	form.Set("username", "ada@example.com")
	form.Set("password", "s3cret1")
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["access_token"] != "tok-user" || resp["token_type"] != "bearer" {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	router := testRouter(t, Deps{AuthSvc: &stubAuth{loginErr: authsvc.ErrInvalidCredentials}})

	form := url.Values{}
	form.Set("username", "ada@example.com")
	form.Set("password", "wrong")
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatal("expected WWW-Authenticate header")
	}
}

func TestAuthGate(t *testing.T) {
	router := testRouter(t, Deps{})

	for _, path := range []string{"/products", "/cart", "/orders", "/auth/me"} {
		w := doJSON(router, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: status = %d", path, w.Code)
		}
		w = doJSON(router, http.MethodGet, path, "garbage", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s with bad token: status = %d", path, w.Code)
		}
		w = doJSON(router, http.MethodGet, path, "tok-user", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s with token: status = %d, body %s", path, w.Code, w.Body.String())
		}
	}
}

func TestAdminGate(t *testing.T) {
	router := testRouter(t, Deps{})

	w := doJSON(router, http.MethodGet, "/admin/orders", "tok-user", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer on admin route: status = %d", w.Code)
	}

	w = doJSON(router, http.MethodGet, "/admin/orders", "tok-admin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin on admin route: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAddToCartErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown product", cartsvc.ErrProductNotFound, http.StatusNotFound},
		{"insufficient stock", cartsvc.ErrInsufficientStock, http.StatusBadRequest},
		{"invalid quantity", cartsvc.ErrInvalidQuantity, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(t, Deps{CartSvc: &stubCart{addErr: tc.err}})
			w := doJSON(router, http.MethodPost, "/cart/add", "tok-user", map[string]interface{}{
				"product_id": "p1", "quantity": 1,
			})
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
		})
	}

	router := testRouter(t, Deps{})
	w := doJSON(router, http.MethodPost, "/cart/add", "tok-user", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: status = %d", w.Code)
	}
}

func TestCheckoutErrors(t *testing.T) {
	router := testRouter(t, Deps{OrderSvc: &stubOrders{checkoutErr: ordersvc.ErrEmptyCart}})
	w := doJSON(router, http.MethodPost, "/orders/checkout", "tok-user", map[string]interface{}{
		"shipping_address": map[string]string{"address_line1": "1 Main St"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: status = %d", w.Code)
	}

	router = testRouter(t, Deps{})
	w = doJSON(router, http.MethodPost, "/orders/checkout", "tok-user", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing address: status = %d", w.Code)
	}
}

func TestListsNeverNull(t *testing.T) {
	router := testRouter(t, Deps{})

	// stubOrders.ListForUser returns a nil slice; the wire shape must be [].
	w := doJSON(router, http.MethodGet, "/orders", "tok-user", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Fatalf("expected [], got %s", body)
	}
}

func TestGetProductUnknownShapedID(t *testing.T) {
	// Ids that cannot exist answer like ids that do not exist.
	router := testRouter(t, Deps{ProductSvc: &stubProducts{getErr: domain.ErrNotFound}})
	w := doJSON(router, http.MethodGet, "/products/not-a-uuid", "tok-user", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := testRouter(t, Deps{})
	w := doJSON(router, http.MethodGet, "/orders/o404", "tok-user", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	router := testRouter(t, Deps{})
	w := doJSON(router, http.MethodPut, "/admin/orders/o1/status", "tok-admin", map[string]string{"status": "shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	router = testRouter(t, Deps{OrderSvc: &stubOrders{statusErr: ordersvc.ErrUnknownStatus}})
	w = doJSON(router, http.MethodPut, "/admin/orders/o1/status", "tok-admin", map[string]string{"status": "refunded"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: status = %d", w.Code)
	}
}

func TestAdminUploadImage(t *testing.T) {
	router := testRouter(t, Deps{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "lamp.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("png-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/products/p1/upload-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok-admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp["image_url"], "/uploads/") || !strings.HasSuffix(resp["image_url"], ".png") {
		t.Fatalf("unexpected image_url %q", resp["image_url"])
	}
}

func TestAdminUploadImageRejectsExtension(t *testing.T) {
	router := testRouter(t, Deps{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "script.sh")
	part.Write([]byte("#!/bin/sh"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/products/p1/upload-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok-admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, Deps{})
	w := doJSON(router, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
