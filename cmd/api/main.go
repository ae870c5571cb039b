package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invstack/go-inventory-orders/internal/config"
	"github.com/invstack/go-inventory-orders/internal/httpx"
	"github.com/invstack/go-inventory-orders/internal/inventory"
	kafkax "github.com/invstack/go-inventory-orders/internal/kafka"
	"github.com/invstack/go-inventory-orders/internal/postgres"
	"github.com/invstack/go-inventory-orders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	placed := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicOrderPlaced, 1024)
	placed.Start(ctx)
	status := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicOrderStatus, 1024)
	status.Start(ctx)

	// Repos & handlers
	products := &inventory.ProductRepo{DB: db}
	orders := &inventory.OrderRepo{DB: db}

	router := httpx.NewRouter()
	ph := &httpx.ProductsHandler{
		Store:            products,
		DefaultThreshold: cfg.LowStockThreshold,
	}
	ph.Register(router)
	oh := &httpx.OrdersHandler{
		Store:   orders,
		Placed:  placed,
		Status:  status,
		Redis:   rdb,
		Service: cfg.ServiceName,
	}
	oh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// close inboxes first so the loops flush, then stop them
	placed.Close()
	status.Close()
	cancel()
	placed.WaitClosed()
	status.WaitClosed()
}
