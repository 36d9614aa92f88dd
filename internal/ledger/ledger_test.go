package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/domain"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestLine(t *testing.T) {
	got := Line(3, d(1000), d(600))
	if !got.Price.Equal(d(3000)) || !got.Cost.Equal(d(1800)) || !got.Margin.Equal(d(1200)) {
		t.Fatalf("unexpected line totals: %+v", got)
	}
}

func TestSaleMarginIgnoresTaxAndDiscount(t *testing.T) {
	got := Sale([]LineTotals{{Price: d(3000), Cost: d(1800), Margin: d(1200)}}, d(100), d(50))
	if !got.Subtotal.Equal(d(3000)) {
		t.Fatalf("subtotal = %s", got.Subtotal)
	}
	if !got.TotalAmount.Equal(d(3050)) {
		t.Fatalf("total amount = %s", got.TotalAmount)
	}
	if !got.TotalCost.Equal(d(1800)) {
		t.Fatalf("total cost = %s", got.TotalCost)
	}
	if !got.TotalMargin.Equal(d(1200)) {
		t.Fatalf("total margin = %s", got.TotalMargin)
	}
}

func TestSaleEmpty(t *testing.T) {
	got := Sale(nil, decimal.Zero, decimal.Zero)
	if !got.TotalAmount.IsZero() || !got.TotalMargin.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestChange(t *testing.T) {
	if got := Change(d(5000), d(3050)); !got.Equal(d(1950)) {
		t.Fatalf("change = %s, want 1950", got)
	}
	if got := Change(d(1000), d(3050)); !got.Equal(d(-2050)) {
		t.Fatalf("change = %s, want -2050", got)
	}
}

func TestAccumulationKeepsPrecision(t *testing.T) {
	unit := decimal.RequireFromString("0.335")
	lines := make([]LineTotals, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, Line(1, unit, decimal.Zero))
	}
	got := Sale(lines, decimal.Zero, decimal.Zero)
	if !got.Subtotal.Equal(decimal.RequireFromString("335")) {
		t.Fatalf("subtotal drifted: %s", got.Subtotal)
	}
}

func TestValidateLine(t *testing.T) {
	if err := ValidateLine(1, d(0), d(0)); err != nil {
		t.Fatalf("expected zero price to be allowed, got %v", err)
	}
	if err := ValidateLine(0, d(10), d(5)); err == nil {
		t.Fatalf("expected zero quantity to be rejected")
	}
	if err := ValidateLine(1, d(-1), d(5)); err == nil {
		t.Fatalf("expected negative price to be rejected")
	}
}

func TestFillLineAndPurchaseTotal(t *testing.T) {
	line := FillLine(domain.TransactionLine{Quantity: 2, UnitPrice: d(500), UnitCost: d(300)})
	if !line.LineMargin.Equal(d(400)) {
		t.Fatalf("line margin = %s", line.LineMargin)
	}
	if got := Totals(line); !got.Price.Equal(d(1000)) || !got.Cost.Equal(d(600)) || !got.Margin.Equal(d(400)) {
		t.Fatalf("totals = %+v", got)
	}
	total := PurchaseTotal([]domain.TransactionLine{
		{Quantity: 2, UnitCost: d(300)},
		{Quantity: 5, UnitCost: d(10)},
	})
	if !total.Equal(d(650)) {
		t.Fatalf("purchase total = %s", total)
	}
}

func TestWeightedAverageCost(t *testing.T) {
	if got := WeightedAverageCost(d(100), 10, d(200), 10); !got.Equal(d(150)) {
		t.Fatalf("wac = %s, want 150", got)
	}
	if got := WeightedAverageCost(decimal.Zero, 0, d(80), 5); !got.Equal(d(80)) {
		t.Fatalf("wac from empty = %s, want 80", got)
	}
	if got := WeightedAverageCost(d(90), 4, d(80), 0); !got.Equal(d(90)) {
		t.Fatalf("wac without incoming = %s, want 90", got)
	}
}

func TestTax(t *testing.T) {
	if got := Tax(d(3000), decimal.RequireFromString("11")); !got.Equal(d(330)) {
		t.Fatalf("tax = %s, want 330", got)
	}
}
