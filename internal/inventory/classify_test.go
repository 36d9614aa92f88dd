package inventory

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		current, min, max int
		want              domain.StockStatus
	}{
		{5, 10, 40, domain.StockCritical},
		{9, 10, 40, domain.StockCritical},
		{10, 10, 40, domain.StockLow},
		{14, 10, 40, domain.StockLow},
		{15, 10, 40, domain.StockGood},
		{40, 10, 40, domain.StockGood},
		{41, 10, 40, domain.StockOverstock},
		{50, 10, 40, domain.StockOverstock},
		{0, 1, 5, domain.StockCritical},
	}
	for _, tc := range cases {
		got := Classify(tc.current, tc.min, tc.max)
		if got != tc.want {
			t.Fatalf("Classify(%d,%d,%d) = %s, want %s", tc.current, tc.min, tc.max, got, tc.want)
		}
	}
}

func TestClassifyOverstockWinsForAllValidLevels(t *testing.T) {
	for min := 1; min <= 20; min++ {
		for max := min + LowBand; max <= min+30; max++ {
			for current := 0; current <= max+10; current++ {
				got := Classify(current, min, max)
				if current > max && got != domain.StockOverstock {
					t.Fatalf("Classify(%d,%d,%d) = %s, want overstock", current, min, max, got)
				}
				switch got {
				case domain.StockCritical, domain.StockLow, domain.StockGood, domain.StockOverstock:
				default:
					t.Fatalf("unexpected status %q", got)
				}
			}
		}
	}
}

func TestRefreshIgnoresCachedStatus(t *testing.T) {
	p := Refresh(domain.Product{CurrentStock: 3, MinStock: 10, MaxStock: 40, Status: domain.StockGood})
	if p.Status != domain.StockCritical {
		t.Fatalf("expected stale status to be recomputed, got %s", p.Status)
	}
}

func TestValidateLevels(t *testing.T) {
	if err := ValidateLevels(0, 10, 14); err != nil {
		t.Fatalf("expected valid levels, got %v", err)
	}
	for _, tc := range [][3]int{{-1, 10, 20}, {0, 0, 20}, {0, 10, 13}} {
		err := ValidateLevels(tc[0], tc[1], tc[2])
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("ValidateLevels(%v) expected ValidationError, got %v", tc, err)
		}
	}
}

func TestSummarizeOrdersCriticalFirst(t *testing.T) {
	products := []domain.Product{
		{ID: "p1", CurrentStock: 12, MinStock: 10, MaxStock: 40, AvgSales: decimal.NewFromInt(2), WeightedAvgCost: decimal.NewFromInt(100)},
		{ID: "p2", CurrentStock: 3, MinStock: 10, MaxStock: 40, AvgSales: decimal.NewFromInt(1), WeightedAvgCost: decimal.NewFromInt(50)},
		{ID: "p3", CurrentStock: 30, MinStock: 10, MaxStock: 40},
		{ID: "p4", CurrentStock: 60, MinStock: 10, MaxStock: 40},
	}

	summary := Summarize(products)
	if summary.Counts[domain.StockCritical] != 1 || summary.Counts[domain.StockLow] != 1 ||
		summary.Counts[domain.StockGood] != 1 || summary.Counts[domain.StockOverstock] != 1 {
		t.Fatalf("unexpected counts: %v", summary.Counts)
	}
	if len(summary.Restock) != 2 {
		t.Fatalf("expected 2 restock items, got %d", len(summary.Restock))
	}
	if summary.Restock[0].ProductID != "p2" {
		t.Fatalf("expected critical product first, got %s", summary.Restock[0].ProductID)
	}
	if summary.Restock[0].SuggestedQty != 37 {
		t.Fatalf("expected suggested qty 37, got %d", summary.Restock[0].SuggestedQty)
	}
	if !summary.Restock[0].EstimatedValue.Equal(decimal.NewFromInt(1850)) {
		t.Fatalf("expected estimated value 1850, got %s", summary.Restock[0].EstimatedValue)
	}
	if !summary.Restock[1].DaysOfCover.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected 6 days of cover, got %s", summary.Restock[1].DaysOfCover)
	}
}

func TestRefreshAllOverridesStoredStatus(t *testing.T) {
	products := []domain.Product{
		{Code: "A", CurrentStock: 2, MinStock: 10, MaxStock: 40, Status: domain.StockGood},
		{Code: "B", CurrentStock: 80, MinStock: 10, MaxStock: 40},
	}
	got := RefreshAll(products)
	if got[0].Status != domain.StockCritical || got[1].Status != domain.StockOverstock {
		t.Fatalf("unexpected statuses %s, %s", got[0].Status, got[1].Status)
	}
	if products[0].Status != domain.StockCritical {
		t.Fatalf("expected the input slice to be refreshed in place")
	}
}
