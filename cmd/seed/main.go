package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/invstack/go-inventory-orders/internal/config"
	"github.com/invstack/go-inventory-orders/internal/inventory"
	"github.com/invstack/go-inventory-orders/internal/postgres"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// seed loads a small demo catalog and two orders so the API has something to
// serve out of the box. Running it against an already-seeded database is a
// no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	products := &inventory.ProductRepo{DB: db}
	orders := &inventory.OrderRepo{DB: db}

	catalog := []struct {
		name  string
		sku   string
		price string
		stock int
	}{
		{"Laptop", "LAP123", "1000", 5},
		{"Mouse", "MOU456", "25", 20},
		{"Keyboard", "KEY789", "50", 10},
		{"Monitor", "MON101", "200", 3},
		{"Phone", "PHN102", "800", 7},
		{"Charger", "CHR103", "30", 15},
		{"Tablet", "TAB104", "500", 4},
		{"Printer", "PRT105", "150", 2},
		{"Camera", "CAM106", "600", 6},
		{"Speaker", "SPK107", "100", 12},
	}

	seeded := make([]*inventory.Product, 0, len(catalog))
	for _, c := range catalog {
		p := &inventory.Product{
			Name:  c.name,
			SKU:   c.sku,
			Price: decimal.RequireFromString(c.price),
			Stock: c.stock,
		}
		if err := products.Create(ctx, p); err != nil {
			if errors.Is(err, inventory.ErrDuplicateSKU) {
				log.Printf("catalog already seeded (%s exists), nothing to do", c.sku)
				return
			}
			log.Fatalf("seed product %s: %v", c.sku, err)
		}
		seeded = append(seeded, p)
	}

	// one PENDING order, one COMPLETED
	o1, err := orders.PlaceOrder(ctx, []inventory.ItemInput{
		{ProductID: seeded[0].ID, Qty: 1},
		{ProductID: seeded[1].ID, Qty: 2},
	})
	if err != nil {
		log.Fatalf("seed order 1: %v", err)
	}

	o2, err := orders.PlaceOrder(ctx, []inventory.ItemInput{
		{ProductID: seeded[2].ID, Qty: 3},
	})
	if err != nil {
		log.Fatalf("seed order 2: %v", err)
	}
	if err := orders.UpdateStatus(ctx, o2.ID, inventory.StatusCompleted); err != nil {
		log.Fatalf("seed order 2 status: %v", err)
	}

	log.Printf("seeded %d products and 2 orders (%s PENDING, %s COMPLETED)", len(seeded), o1.ID, o2.ID)
}
