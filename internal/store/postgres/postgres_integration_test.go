package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("KASIRSTOK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KASIRSTOK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestSaleLineTriggersMoveStock(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	stamp := time.Now().UnixNano()

	product, err := s.InsertProduct(ctx, domain.Product{
		Code:            fmt.Sprintf("IT-%d", stamp),
		Name:            "Produk Integrasi",
		CurrentStock:    10,
		MinStock:        2,
		MaxStock:        50,
		SellPrice:       decimal.NewFromInt(1000),
		WeightedAvgCost: decimal.NewFromInt(600),
	})
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	now := time.Now().UTC()
	sale, err := s.InsertSale(ctx, domain.SaleHeader{
		SaleNumber: fmt.Sprintf("SAL-IT-%d", stamp),
		Status:     domain.SaleCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}
	t.Cleanup(func() {
		_ = s.DeleteSaleLines(ctx, sale.ID)
		_ = s.DeleteSale(ctx, sale.ID)
		_ = s.DeleteProduct(ctx, product.ID)
	})

	if _, err := s.InsertSale(ctx, domain.SaleHeader{SaleNumber: sale.SaleNumber, CreatedAt: now, UpdatedAt: now}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated sale number, got %v", err)
	}

	_, err = s.InsertSaleLines(ctx, sale.ID, []domain.TransactionLine{
		{ProductID: product.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(1000), UnitCost: decimal.NewFromInt(600)},
		{ProductID: product.ID, Quantity: 20, UnitPrice: decimal.NewFromInt(1000), UnitCost: decimal.NewFromInt(600)},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	got, err := s.GetProduct(ctx, product.ID)
	if err != nil || got.CurrentStock != 10 {
		t.Fatalf("expected untouched stock 10, got %+v %v", got, err)
	}

	if _, err := s.InsertSaleLines(ctx, sale.ID, []domain.TransactionLine{
		{ProductID: product.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(1000), UnitCost: decimal.NewFromInt(600)},
	}); err != nil {
		t.Fatalf("insert lines: %v", err)
	}
	got, _ = s.GetProduct(ctx, product.ID)
	if got.CurrentStock != 6 {
		t.Fatalf("expected stock 6, got %d", got.CurrentStock)
	}
	if err := s.DeleteProduct(ctx, product.ID); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse for a product with sale lines, got %v", err)
	}

	if err := s.DeleteSaleLines(ctx, sale.ID); err != nil {
		t.Fatalf("delete lines: %v", err)
	}
	got, _ = s.GetProduct(ctx, product.ID)
	if got.CurrentStock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got.CurrentStock)
	}
}
