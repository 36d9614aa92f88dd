package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/store"
)

func seedProduct(t *testing.T, s *Store, code string, stock int, cost string) domain.Product {
	t.Helper()
	p, err := s.InsertProduct(context.Background(), domain.Product{
		Code:            code,
		Name:            "Product " + code,
		CurrentStock:    stock,
		MinStock:        5,
		MaxStock:        100,
		SellPrice:       decimal.NewFromInt(1000),
		WeightedAvgCost: decimal.RequireFromString(cost),
	})
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return *p
}

func TestInsertProductRejectsDuplicateCode(t *testing.T) {
	s := New()
	seedProduct(t, s, "A-1", 10, "100")
	_, err := s.InsertProduct(context.Background(), domain.Product{Code: "A-1", Name: "Again", MinStock: 1, MaxStock: 10})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestInsertSaleRejectsDuplicateNumber(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.InsertSale(ctx, domain.SaleHeader{SaleNumber: "S-1"}); err != nil {
		t.Fatalf("insert sale: %v", err)
	}
	if _, err := s.InsertSale(ctx, domain.SaleHeader{SaleNumber: "S-1"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSaleLinesDecrementAndRestoreStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "A-1", 10, "100")
	sale, err := s.InsertSale(ctx, domain.SaleHeader{SaleNumber: "S-1", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}

	lines, err := s.InsertSaleLines(ctx, sale.ID, []domain.TransactionLine{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("insert lines: %v", err)
	}
	if len(lines) != 2 || lines[0].ID == "" || lines[0].HeaderID != sale.ID {
		t.Fatalf("unexpected stored lines: %+v", lines)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	if got.CurrentStock != 5 {
		t.Fatalf("expected stock 5 after sale, got %d", got.CurrentStock)
	}

	if err := s.DeleteSaleLines(ctx, sale.ID); err != nil {
		t.Fatalf("delete lines: %v", err)
	}
	got, _ = s.GetProduct(ctx, p.ID)
	if got.CurrentStock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got.CurrentStock)
	}
}

func TestSaleLinesAllOrNothingOnShortStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedProduct(t, s, "A-1", 10, "100")
	b := seedProduct(t, s, "B-1", 1, "100")
	sale, _ := s.InsertSale(ctx, domain.SaleHeader{SaleNumber: "S-1"})

	_, err := s.InsertSaleLines(ctx, sale.ID, []domain.TransactionLine{
		{ProductID: a.ID, Quantity: 4},
		{ProductID: b.ID, Quantity: 2},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	got, _ := s.GetProduct(ctx, a.ID)
	if got.CurrentStock != 10 {
		t.Fatalf("expected untouched stock, got %d", got.CurrentStock)
	}
	if lines, _ := s.ListSaleLines(ctx, sale.ID); len(lines) != 0 {
		t.Fatalf("expected no stored lines, got %d", len(lines))
	}
}

func TestPurchaseLinesUpdateWeightedAverageCost(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "A-1", 10, "100")
	po, err := s.InsertPurchase(ctx, domain.PurchaseHeader{OrderNumber: "PO-1", Counterparty: "Supplier"})
	if err != nil {
		t.Fatalf("insert purchase: %v", err)
	}

	if _, err := s.InsertPurchaseLines(ctx, po.ID, []domain.TransactionLine{
		{ProductID: p.ID, Quantity: 10, UnitCost: decimal.NewFromInt(200)},
	}); err != nil {
		t.Fatalf("insert purchase lines: %v", err)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	if got.CurrentStock != 20 || !got.WeightedAvgCost.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected product after purchase: stock=%d wac=%s", got.CurrentStock, got.WeightedAvgCost)
	}

	if err := s.DeletePurchaseLines(ctx, po.ID); err != nil {
		t.Fatalf("delete purchase lines: %v", err)
	}
	got, _ = s.GetProduct(ctx, p.ID)
	if got.CurrentStock != 10 {
		t.Fatalf("expected stock 10 after line removal, got %d", got.CurrentStock)
	}
}

func TestLinesForMissingHeaderFail(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "A-1", 10, "100")
	_, err := s.InsertSaleLines(context.Background(), "missing", []domain.TransactionLine{{ProductID: p.ID, Quantity: 1}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProduct(t, s, "KOPI-1", 30, "100")
	seedProduct(t, s, "TEH-1", 5, "100")
	seedProduct(t, s, "KOPI-2", 12, "100")

	got, err := s.ListProducts(ctx, domain.ProductFilter{Query: "kopi", SortBy: domain.ProductSortStock})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(got) != 2 || got[0].Code != "KOPI-2" || got[1].Code != "KOPI-1" {
		t.Fatalf("unexpected products: %+v", got)
	}
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	s := New()
	ctx := context.Background()
	c, err := s.InsertCategory(ctx, domain.Category{Name: "Snack"})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	p := seedProduct(t, s, "A-1", 10, "100")
	p.CategoryID = c.ID
	if _, err := s.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("update product: %v", err)
	}
	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	if got.CategoryID != "" {
		t.Fatalf("expected category detached, got %q", got.CategoryID)
	}
}

func TestDeleteProductRefusesReferencedProduct(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "A-1", 10, "100")
	sale, _ := s.InsertSale(ctx, domain.SaleHeader{SaleNumber: "S-1", CreatedAt: time.Now()})
	if _, err := s.InsertSaleLines(ctx, sale.ID, []domain.TransactionLine{{ProductID: p.ID, Quantity: 1}}); err != nil {
		t.Fatalf("insert lines: %v", err)
	}

	if err := s.DeleteProduct(ctx, p.ID); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if _, err := s.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("expected product to survive, got %v", err)
	}

	if err := s.DeleteSaleLines(ctx, sale.ID); err != nil {
		t.Fatalf("delete lines: %v", err)
	}
	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("expected unreferenced product delete to pass, got %v", err)
	}
	if err := s.DeleteProduct(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNewSeededHasUsersAndProducts(t *testing.T) {
	s := NewSeeded()
	users, _ := s.ListUsers(context.Background())
	if len(users) != 2 {
		t.Fatalf("expected 2 seed users, got %d", len(users))
	}
	products, _ := s.ListProducts(context.Background(), domain.ProductFilter{})
	if len(products) == 0 {
		t.Fatalf("expected seeded products")
	}
}
