// catalogd is the product catalog API the till front end consumes. In
// production the till points at a real backend; catalogd stands in for it
// during development with an in-memory store.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/calepa/shoptill/internal/config"
	shoptillHttp "github.com/calepa/shoptill/internal/http"
	"github.com/calepa/shoptill/internal/http/product"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	productH := product.NewHandler()

	if cfg.Catalogd.SeedDemo {
		productH.Seed(demoProducts())
		slog.Info("seeded demo catalog", "products", len(demoProducts()))
	}

	router := shoptillHttp.New(productH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting catalog server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func demoProducts() []product.SeedProduct {
	return []product.SeedProduct{
		{Index: "SN-1001", Name: "Quantum Laptop Pro", InventoryRate: 500, BillingRate: 500, Quantity: 100},
		{Index: "SN-1002", Name: "Quantum Laptop Air", InventoryRate: 450, BillingRate: 450, Quantity: 100},
		{Index: "SN-2001", Name: "Nebula Smartphone X", InventoryRate: 300, BillingRate: 300, Quantity: 100},
		{Index: "SN-2002", Name: "Nebula Smartphone Y", InventoryRate: 280, BillingRate: 280, Quantity: 100},
		{Index: "SN-3001", Name: "Galaxy Tablet 10", InventoryRate: 250, BillingRate: 250, Quantity: 100},
		{Index: "SN-3002", Name: "Galaxy Tablet 8", InventoryRate: 220, BillingRate: 220, Quantity: 100},
		{Index: "SN-4001", Name: "Pulse Wireless Earbuds", InventoryRate: 50, BillingRate: 50, Quantity: 100},
		{Index: "SN-4002", Name: "Pulse Wireless Headphones", InventoryRate: 70, BillingRate: 70, Quantity: 100},
		{Index: "SN-5001", Name: "Aurora Smart Watch", InventoryRate: 120, BillingRate: 120, Quantity: 100},
		{Index: "SN-5002", Name: "Aurora Fitness Tracker", InventoryRate: 90, BillingRate: 90, Quantity: 100},
	}
}
