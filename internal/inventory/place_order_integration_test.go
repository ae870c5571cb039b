package inventory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live Postgres with schema.sql applied. They are skipped
// unless POSTGRES_DSN is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set; skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)
	return pool
}

func createTestProduct(t *testing.T, repo *ProductRepo, name, price string, stock int) *Product {
	t.Helper()

	p := &Product{
		Name:  name,
		SKU:   "TST-" + uuid.NewString()[:8],
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func orderCount(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM orders`).Scan(&n))
	return n
}

func TestPlaceOrder_CommitsStockAndOrder(t *testing.T) {
	pool := testPool(t)
	products := &ProductRepo{DB: pool}
	orders := &OrderRepo{DB: pool}
	ctx := context.Background()

	p1 := createTestProduct(t, products, "Laptop", "1000", 5)
	p2 := createTestProduct(t, products, "Mouse", "25", 20)

	order, err := orders.PlaceOrder(ctx, []ItemInput{
		{ProductID: p1.ID, Qty: 2},
		{ProductID: p2.ID, Qty: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, p1.ID, order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Qty)

	got1, err := products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got1.Stock)
	assert.Equal(t, p1.Version+1, got1.Version)

	got2, err := products.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, got2.Stock)

	stored, err := orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Laptop", stored.Items[0].ProductName)
}

func TestPlaceOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	pool := testPool(t)
	products := &ProductRepo{DB: pool}
	orders := &OrderRepo{DB: pool}
	ctx := context.Background()

	p1 := createTestProduct(t, products, "Monitor", "200", 5)
	p2 := createTestProduct(t, products, "Printer", "150", 1)
	countBefore := orderCount(t, pool)

	// the first line is fillable; the second is not
	_, err := orders.PlaceOrder(ctx, []ItemInput{
		{ProductID: p1.ID, Qty: 2},
		{ProductID: p2.ID, Qty: 3},
	})

	var stock *InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, "Printer", stock.ProductName)
	assert.Equal(t, 3, stock.Required)
	assert.Equal(t, 1, stock.Available)

	// no stock change on any referenced product, including the fillable one
	got1, err := products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got1.Stock)
	assert.Equal(t, p1.Version, got1.Version)

	got2, err := products.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got2.Stock)

	assert.Equal(t, countBefore, orderCount(t, pool), "no order row may survive a failed placement")
}

func TestPlaceOrder_MissingProductRollsBackEverything(t *testing.T) {
	pool := testPool(t)
	products := &ProductRepo{DB: pool}
	orders := &OrderRepo{DB: pool}
	ctx := context.Background()

	p1 := createTestProduct(t, products, "Camera", "600", 6)
	countBefore := orderCount(t, pool)

	_, err := orders.PlaceOrder(ctx, []ItemInput{
		{ProductID: p1.ID, Qty: 2},
		{ProductID: uuid.NewString(), Qty: 1},
	})

	require.ErrorIs(t, err, ErrProductNotFound)

	got1, err := products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got1.Stock)
	assert.Equal(t, p1.Version, got1.Version)

	assert.Equal(t, countBefore, orderCount(t, pool))
}

func TestPlaceOrder_ListIncludesPlacedOrder(t *testing.T) {
	pool := testPool(t)
	products := &ProductRepo{DB: pool}
	orders := &OrderRepo{DB: pool}
	ctx := context.Background()

	p1 := createTestProduct(t, products, "Speaker", "100", 12)
	placed, err := orders.PlaceOrder(ctx, []ItemInput{{ProductID: p1.ID, Qty: 1}})
	require.NoError(t, err)

	all, err := orders.List(ctx)
	require.NoError(t, err)

	var found *Order
	for i := range all {
		if all[i].ID == placed.ID {
			found = &all[i]
			break
		}
	}
	require.NotNil(t, found, "placed order missing from listing")
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Speaker", found.Items[0].ProductName)
}
