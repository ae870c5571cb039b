package stockwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/invstack/go-inventory-orders/internal/inventory"
	kafkax "github.com/invstack/go-inventory-orders/internal/kafka"
	"github.com/invstack/go-inventory-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Catalog is the product lookup the watcher needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*inventory.Product, error)
}

// Publisher sends one already-encoded event. Satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service watches order.placed events and raises stock.low alerts for
// products that dropped under the threshold.
type Service struct {
	Catalog     Catalog
	Redis       *redis.Client // dedup and alert marks; nil disables both
	Producer    Publisher
	Threshold   int
	ServiceName string
}

// HandleOrderPlaced is wired as the consumer handler.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env inventory.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != inventory.EventOrderPlaced {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[inventory.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	for _, id := range UniqueProductIDs(p.Items) {
		prod, err := s.Catalog.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				// product vanished since placement; nothing to alert on
				continue
			}
			return err
		}
		if !NeedsAlert(prod.Stock, s.Threshold) {
			continue
		}
		s.alert(ctx, prod, env.TraceID)
	}
	return nil
}

func (s *Service) alert(ctx context.Context, p *inventory.Product, trace string) {
	log.Printf("low stock: %s (%s) stock=%d threshold=%d", p.Name, p.SKU, p.Stock, s.Threshold)

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyLowStock, p.ID), p.Stock, redisx.TTLLowStock).Err()
	}
	if s.Producer == nil {
		return
	}
	ev := inventory.Envelope{
		EventID:       uuid.NewString(),
		EventType:     inventory.EventLowStock,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: p.ID,
	}
	ev.Payload = kafkax.MustMarshal(inventory.LowStockPayload{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Stock:     p.Stock,
		Threshold: s.Threshold,
	})
	s.Producer.Publish([]byte(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(inventory.EventLowStock)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// NeedsAlert reports whether a stock level is strictly under the threshold.
func NeedsAlert(stock, threshold int) bool { return stock < threshold }

// UniqueProductIDs keeps first occurrences, preserving input order.
func UniqueProductIDs(items []inventory.ItemQty) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		out = append(out, it.ProductID)
	}
	return out
}
