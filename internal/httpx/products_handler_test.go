package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/invstack/go-inventory-orders/internal/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductStore struct {
	products  []inventory.Product
	createErr error
	listErr   error
}

func (s *fakeProductStore) Create(_ context.Context, p *inventory.Product) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return fmt.Errorf("%w: %s", inventory.ErrDuplicateSKU, p.SKU)
		}
	}
	p.ID = fmt.Sprintf("p-%d", len(s.products)+1)
	s.products = append(s.products, *p)
	return nil
}

func (s *fakeProductStore) List(_ context.Context) ([]inventory.Product, error) {
	return s.products, s.listErr
}

func (s *fakeProductStore) ListLowStock(_ context.Context, threshold int) ([]inventory.Product, error) {
	var out []inventory.Product
	for _, p := range s.products {
		if p.Stock < threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func product(sku, name, price string, stock int) inventory.Product {
	return inventory.Product{
		ID:    "id-" + sku,
		SKU:   sku,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func newProductsRouter(store ProductStore, defaultThreshold int) *chi.Mux {
	r := chi.NewRouter()
	h := &ProductsHandler{Store: store, DefaultThreshold: defaultThreshold}
	h.Register(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateProduct_Created(t *testing.T) {
	store := &fakeProductStore{}
	r := newProductsRouter(store, 5)

	rec := doRequest(t, r, http.MethodPost, "/products", map[string]any{
		"name": "Laptop", "sku": "LAP123", "price": 1000, "stock": 5,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var got inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, "LAP123", got.SKU)
	assert.Equal(t, "1000", got.Price.String())
	assert.Equal(t, 5, got.Stock)
	assert.Len(t, store.products, 1)
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	store := &fakeProductStore{products: []inventory.Product{product("LAP123", "Laptop", "1000", 5)}}
	r := newProductsRouter(store, 5)

	rec := doRequest(t, r, http.MethodPost, "/products", map[string]any{
		"name": "Other laptop", "sku": "LAP123", "price": 900, "stock": 2,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sku already exists")
	assert.Len(t, store.products, 1)
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"invalid json", `{`},
		{"missing name", map[string]any{"sku": "X1", "price": 10, "stock": 1}},
		{"missing sku", map[string]any{"name": "X", "price": 10, "stock": 1}},
		{"zero price", map[string]any{"name": "X", "sku": "X1", "price": 0, "stock": 1}},
		{"negative price", map[string]any{"name": "X", "sku": "X1", "price": -5, "stock": 1}},
		{"negative stock", map[string]any{"name": "X", "sku": "X1", "price": 10, "stock": -1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeProductStore{}
			r := newProductsRouter(store, 5)

			rec := doRequest(t, r, http.MethodPost, "/products", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.products)
		})
	}
}

func TestListProducts(t *testing.T) {
	store := &fakeProductStore{products: []inventory.Product{
		product("LAP123", "Laptop", "1000", 5),
		product("MOU456", "Mouse", "25", 20),
	}}
	r := newProductsRouter(store, 5)

	rec := doRequest(t, r, http.MethodGet, "/products", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestListLowStock_StrictThreshold(t *testing.T) {
	store := &fakeProductStore{products: []inventory.Product{
		product("A1", "A", "10", 2),
		product("B2", "B", "10", 4),
		product("C3", "C", "10", 10),
	}}
	r := newProductsRouter(store, 5)

	rec := doRequest(t, r, http.MethodGet, "/products/low-stock?threshold=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].SKU)
	assert.Equal(t, "B2", got[1].SKU)
}

func TestListLowStock_DefaultThreshold(t *testing.T) {
	store := &fakeProductStore{products: []inventory.Product{
		product("A1", "A", "10", 2),
		product("C3", "C", "10", 10),
	}}
	r := newProductsRouter(store, 5)

	rec := doRequest(t, r, http.MethodGet, "/products/low-stock", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].SKU)
}

func TestListLowStock_BadThreshold(t *testing.T) {
	r := newProductsRouter(&fakeProductStore{}, 5)

	rec := doRequest(t, r, http.MethodGet, "/products/low-stock?threshold=abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLowStock_NoMatchesIsEmptyArray(t *testing.T) {
	store := &fakeProductStore{products: []inventory.Product{product("C3", "C", "10", 10)}}
	r := newProductsRouter(store, 5)

	rec := doRequest(t, r, http.MethodGet, "/products/low-stock?threshold=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
