// Package ledger computes line and document totals. Values keep full decimal
// precision; rounding to whole currency units happens only in display.
package ledger

import (
	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
)

type LineTotals struct {
	Price  decimal.Decimal `json:"price"`
	Cost   decimal.Decimal `json:"cost"`
	Margin decimal.Decimal `json:"margin"`
}

type SaleTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	TotalMargin decimal.Decimal `json:"total_margin"`
}

// Line computes price, cost and margin for one line. Callers reject negative
// quantity or unit price beforehand.
func Line(qty int, unitPrice, unitCost decimal.Decimal) LineTotals {
	q := decimal.NewFromInt(int64(qty))
	price := q.Mul(unitPrice)
	cost := q.Mul(unitCost)
	return LineTotals{Price: price, Cost: cost, Margin: price.Sub(cost)}
}

// Sale sums line totals. Margin is the sum of line margins so tax and
// discount never move it.
func Sale(lines []LineTotals, tax, discount decimal.Decimal) SaleTotals {
	var totals SaleTotals
	for _, l := range lines {
		totals.Subtotal = totals.Subtotal.Add(l.Price)
		totals.TotalCost = totals.TotalCost.Add(l.Cost)
		totals.TotalMargin = totals.TotalMargin.Add(l.Margin)
	}
	totals.TotalAmount = totals.Subtotal.Add(tax).Sub(discount)
	return totals
}

// Change may be negative; a negative value blocks submission.
func Change(received, totalAmount decimal.Decimal) decimal.Decimal {
	return received.Sub(totalAmount)
}

// Tax applies a percentage rate to the subtotal.
func Tax(subtotal decimal.Decimal, ratePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ratePercent).Div(decimal.NewFromInt(100))
}

// FillLine derives line_total, line_cost and line_margin on a stored line.
func FillLine(line domain.TransactionLine) domain.TransactionLine {
	t := Line(line.Quantity, line.UnitPrice, line.UnitCost)
	line.LineTotal = t.Price
	line.LineCost = t.Cost
	line.LineMargin = t.Margin
	return line
}

// Totals reads back the amounts FillLine stored on a line.
func Totals(line domain.TransactionLine) LineTotals {
	return LineTotals{Price: line.LineTotal, Cost: line.LineCost, Margin: line.LineMargin}
}

// PurchaseTotal is the sum of quantity*unit_cost over purchase lines.
func PurchaseTotal(lines []domain.TransactionLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromInt(int64(l.Quantity)).Mul(l.UnitCost))
	}
	return total
}

// ValidateLine checks the caller-side preconditions of Line.
func ValidateLine(qty int, unitPrice, unitCost decimal.Decimal) error {
	if qty <= 0 {
		return apperr.Invalid("quantity", "must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return apperr.Invalid("unit_price", "must not be negative")
	}
	if unitCost.IsNegative() {
		return apperr.Invalid("unit_cost", "must not be negative")
	}
	return nil
}

// WeightedAverageCost blends incoming stock into the running unit cost.
func WeightedAverageCost(oldCost decimal.Decimal, oldQty int, incomingCost decimal.Decimal, incomingQty int) decimal.Decimal {
	if incomingQty <= 0 {
		return oldCost
	}
	if oldQty <= 0 || !oldCost.IsPositive() {
		return incomingCost
	}
	value := oldCost.Mul(decimal.NewFromInt(int64(oldQty))).Add(incomingCost.Mul(decimal.NewFromInt(int64(incomingQty))))
	return value.Div(decimal.NewFromInt(int64(oldQty + incomingQty)))
}
