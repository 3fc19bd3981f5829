// Command seed-orders loads demo open tabs into the local cache for
// development, either from a JSON file or from a built-in sample set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/quickserve/pos-billing/internal/domain/order"
	"github.com/quickserve/pos-billing/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		ordersFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ordersFile, "orders-file", "", "path to orders JSON file (defaults to built-in samples)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, ordersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, ordersFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	orders := sampleOrders()
	if ordersFile != "" {
		raw, err := os.ReadFile(ordersFile)
		if err != nil {
			return errors.Wrap(err, "read orders file")
		}
		orders = nil
		if err := json.Unmarshal(raw, &orders); err != nil {
			return errors.Wrap(err, "decode orders file")
		}
	}

	// Seeding bypasses Refresh: there is no live backend in development.
	store := postgres.NewOrderStore(pool, nil)
	for _, o := range orders {
		if err := store.Upsert(ctx, o); err != nil {
			return err
		}
		slog.Info("seeded order",
			slog.String("master_id", o.MasterID),
			slog.String("fulfillment_type", o.FulfillmentType.String()),
			slog.Int("items", len(o.Items)),
		)
	}

	return nil
}

func sampleOrders() []*order.Order {
	return []*order.Order{
		{
			MasterID:        "demo-dine-in-1",
			FulfillmentType: order.DineIn,
			Items: []order.LineItem{
				{
					SKUCode:             "classic-burger",
					SubSKUCode:          "01",
					Quantity:            decimal.NewFromInt(2),
					TotalTaxable:        decimal.RequireFromString("240.00"),
					TotalTax:            decimal.RequireFromString("43.20"),
					KitchenTicketNumber: 12,
				},
				{
					SKUCode:      "lime-soda",
					SubSKUCode:   "02",
					Quantity:     decimal.NewFromInt(1),
					TotalTaxable: decimal.RequireFromString("60.00"),
					TotalTax:     decimal.RequireFromString("3.00"),
				},
			},
		},
		{
			MasterID:        "demo-takeaway-1",
			FulfillmentType: order.TakeAway,
			Items: []order.LineItem{
				{
					SKUCode:      "family-pizza",
					SubSKUCode:   "01",
					Quantity:     decimal.NewFromInt(1),
					TotalTaxable: decimal.RequireFromString("450.00"),
					TotalTax:     decimal.RequireFromString("81.00"),
				},
				{
					SKUCode:    "packaging",
					SubSKUCode: order.SubSKUSeparatePackaging,
					Quantity:   decimal.NewFromInt(1),
				},
			},
		},
		{
			MasterID:        "demo-delivery-1",
			FulfillmentType: order.HomeDelivery,
			CustomerPhone:   "5550199",
			Discount:        decimal.RequireFromString("25.00"),
			Items: []order.LineItem{
				{
					SKUCode:      "biryani-large",
					SubSKUCode:   "01",
					Quantity:     decimal.NewFromInt(3),
					TotalTaxable: decimal.RequireFromString("540.00"),
					TotalTax:     decimal.RequireFromString("27.00"),
				},
			},
		},
	}
}
