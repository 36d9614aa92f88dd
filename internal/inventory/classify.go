// Package inventory classifies stock health. Everything here is pure.
package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
)

// LowBand is how far above min_stock a product still counts as low.
const LowBand = 4

// Classify maps stock levels to a health status. The checks are ordered and
// overstock wins even when current also clears min+LowBand.
func Classify(current, min, max int) domain.StockStatus {
	switch {
	case current > max:
		return domain.StockOverstock
	case current < min:
		return domain.StockCritical
	case current <= min+LowBand:
		return domain.StockLow
	default:
		return domain.StockGood
	}
}

// Refresh recomputes the cached status from the stock fields.
func Refresh(p domain.Product) domain.Product {
	p.Status = Classify(p.CurrentStock, p.MinStock, p.MaxStock)
	return p
}

// RefreshAll refreshes every product in place and returns the same slice.
func RefreshAll(products []domain.Product) []domain.Product {
	for i := range products {
		products[i] = Refresh(products[i])
	}
	return products
}

// ValidateLevels enforces min > 0, max >= min+LowBand and non-negative stock.
func ValidateLevels(current, min, max int) error {
	if current < 0 {
		return apperr.Invalid("current_stock", "must not be negative")
	}
	if min <= 0 {
		return apperr.Invalid("min_stock", "must be greater than zero")
	}
	if max < min+LowBand {
		return apperr.Invalid("max_stock", "must be at least min_stock+%d", LowBand)
	}
	return nil
}

// Summarize counts products per status and lists what needs reordering,
// most urgent first.
func Summarize(products []domain.Product) domain.InventorySummary {
	summary := domain.InventorySummary{
		Counts: map[domain.StockStatus]int{
			domain.StockCritical:  0,
			domain.StockLow:       0,
			domain.StockGood:      0,
			domain.StockOverstock: 0,
		},
		Restock: make([]domain.RestockItem, 0),
	}

	for _, p := range products {
		status := Classify(p.CurrentStock, p.MinStock, p.MaxStock)
		summary.Counts[status]++
		if status != domain.StockCritical && status != domain.StockLow {
			continue
		}
		suggested := p.MaxStock - p.CurrentStock
		if suggested < 0 {
			suggested = 0
		}
		summary.Restock = append(summary.Restock, domain.RestockItem{
			ProductID:      p.ID,
			Code:           p.Code,
			Name:           p.Name,
			Status:         status,
			CurrentStock:   p.CurrentStock,
			SuggestedQty:   suggested,
			DaysOfCover:    DaysOfCover(p.CurrentStock, p.AvgSales),
			EstimatedValue: p.WeightedAvgCost.Mul(decimal.NewFromInt(int64(suggested))),
		})
	}

	sort.SliceStable(summary.Restock, func(i, j int) bool {
		a, b := summary.Restock[i], summary.Restock[j]
		if a.Status != b.Status {
			return a.Status == domain.StockCritical
		}
		return a.DaysOfCover.LessThan(b.DaysOfCover)
	})
	return summary
}

// DaysOfCover is how many days current stock lasts at the average daily
// sales rate. A zero rate yields zero, meaning unknown.
func DaysOfCover(current int, avgSales decimal.Decimal) decimal.Decimal {
	if !avgSales.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(current)).DivRound(avgSales, 1)
}
