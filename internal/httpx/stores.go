package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/invstack/go-inventory-orders/internal/inventory"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// ProductStore is what the product handlers need from the catalog.
type ProductStore interface {
	Create(ctx context.Context, p *inventory.Product) error
	List(ctx context.Context) ([]inventory.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]inventory.Product, error)
}

// OrderStore is what the order handlers need from the order side.
type OrderStore interface {
	PlaceOrder(ctx context.Context, items []inventory.ItemInput) (*inventory.Order, error)
	Get(ctx context.Context, orderID string) (*inventory.Order, error)
	List(ctx context.Context) ([]inventory.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status inventory.Status) error
	SummarizeValuePerProduct(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Publisher sends one already-encoded event. Satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
