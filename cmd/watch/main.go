// Package main is a live tail of the server's dataset: it opens a
// reconciled view (all customers, or one customer's orders) and prints the
// local map whenever it changes shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesync/pkg/liveview"
	"salesync/pkg/logger"
)

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base URL")
	customerID := flag.Int("customer", 0, "watch orders for this customer instead of customers")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	client, err := liveview.NewClient(*baseURL, log)
	if err != nil {
		log.Fatalw("invalid base url", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *customerID > 0 {
		watchOrders(ctx, client, *customerID, log)
	} else {
		watchCustomers(ctx, client, log)
	}
}

func watchCustomers(ctx context.Context, client *liveview.Client, log *logger.Logger) {
	view := client.LiveCustomers(ctx)
	defer view.Close()
	client.Start(ctx)
	defer client.Close()

	run(ctx, func() {
		for _, c := range view.Items() {
			fmt.Printf("  #%d %s %s. %s\n", c.ID, c.FirstName, c.MiddleInitial, c.LastName)
		}
	}, func() (string, int) { return view.State().String(), view.Len() }, log)
}

func watchOrders(ctx context.Context, client *liveview.Client, customerID int, log *logger.Logger) {
	view := client.LiveOrders(ctx, customerID)
	defer view.Close()
	client.Start(ctx)
	defer client.Close()

	log.Infow("watching orders", "customer_id", customerID)
	run(ctx, func() {
		for _, o := range view.Items() {
			fmt.Printf("  #%d %s x%s (salesperson %d)\n",
				o.ID, o.ProductName, o.Quantity.String(), o.SalespersonID)
		}
	}, func() (string, int) { return view.State().String(), view.Len() }, log)
}

func run(ctx context.Context, print func(), status func() (string, int), log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastState, lastLen := "", -1
	for {
		select {
		case <-quit:
			log.Info("bye")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, n := status()
			if state == lastState && n == lastLen {
				continue
			}
			lastState, lastLen = state, n
			fmt.Printf("[%s] %d entries\n", state, n)
			print()
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
