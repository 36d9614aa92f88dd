package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/ledger"
	"kasirstok/backend/internal/xid"
)

// DraftSale prices a cart from the catalog without writing anything. The
// register calls it on every edit; CanSubmit tells whether CreateSale would
// accept the same request.
func (s *Service) DraftSale(ctx context.Context, req domain.SaleRequest) (domain.SaleDraft, error) {
	lines, err := s.priceSaleLines(ctx, req.Lines)
	if err != nil {
		return domain.SaleDraft{}, err
	}

	totals := make([]ledger.LineTotals, 0, len(lines))
	for _, l := range lines {
		totals = append(totals, ledger.Totals(l))
	}
	subtotal := ledger.Sale(totals, decimal.Zero, decimal.Zero).Subtotal
	tax := s.taxFor(req, subtotal)
	sum := ledger.Sale(totals, tax, req.DiscountAmount)
	change := ledger.Change(req.AmountReceived, sum.TotalAmount)

	return domain.SaleDraft{
		Lines:          lines,
		Subtotal:       sum.Subtotal,
		TaxAmount:      tax,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    sum.TotalAmount,
		TotalCost:      sum.TotalCost,
		TotalMargin:    sum.TotalMargin,
		AmountReceived: req.AmountReceived,
		Change:         change,
		CanSubmit: len(lines) > 0 && !change.IsNegative() && !sum.TotalAmount.IsNegative() &&
			!tax.IsNegative() && !req.DiscountAmount.IsNegative(),
	}, nil
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleRequest) (domain.SaleHeader, error) {
	session, err := requireStaff(ctx, "create sales")
	if err != nil {
		return domain.SaleHeader{}, err
	}

	lines, err := s.priceSaleLines(ctx, req.Lines)
	if err != nil {
		return domain.SaleHeader{}, err
	}
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(ledger.Totals(l).Price)
	}

	now := s.now()
	number := strings.TrimSpace(req.SaleNumber)
	if number == "" {
		number = xid.SaleNumber(now)
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = "cash"
	}

	sale, err := s.saga.CreateSale(ctx, domain.SaleHeader{
		SaleNumber:     number,
		Cashier:        session.Username,
		PaymentMethod:  method,
		TaxAmount:      s.taxFor(req, subtotal),
		DiscountAmount: req.DiscountAmount,
		AmountReceived: req.AmountReceived,
		CreatedAt:      now,
	}, lines)
	if err != nil {
		return domain.SaleHeader{}, err
	}

	s.invalidateReports(ctx)
	s.logAudit(ctx, "sale_create", "sale", sale.ID,
		zap.String("sale_number", sale.SaleNumber),
		zap.String("total_amount", sale.TotalAmount.String()))
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleHeader, error) {
	sales, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence("list sales", err)
	}
	return sales, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.SaleHeader, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.SaleHeader{}, apperr.Persistence("get sale", err)
	}
	lines, err := s.repo.ListSaleLines(ctx, id)
	if err != nil {
		return domain.SaleHeader{}, apperr.Persistence("list sale lines", err)
	}
	sale.Lines = lines
	return *sale, nil
}

func (s *Service) UpdateSaleStatus(ctx context.Context, id string, status string) (domain.SaleHeader, error) {
	if _, err := requireStaff(ctx, "change sale status"); err != nil {
		return domain.SaleHeader{}, err
	}
	sale, err := s.saga.UpdateSaleStatus(ctx, id, domain.SaleStatus(strings.ToLower(strings.TrimSpace(status))))
	if err != nil {
		return domain.SaleHeader{}, err
	}
	s.invalidateReports(ctx)
	s.logAudit(ctx, "sale_status", "sale", id, zap.String("status", string(sale.Status)))
	return sale, nil
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx, "delete sales"); err != nil {
		return err
	}
	if err := s.saga.DeleteTransaction(ctx, domain.DocumentSale, id); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	s.logAudit(ctx, "sale_delete", "sale", id)
	return nil
}

func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseRequest) (domain.PurchaseHeader, error) {
	if _, err := requireAdmin(ctx, "create purchases"); err != nil {
		return domain.PurchaseHeader{}, err
	}
	if len(req.Lines) == 0 {
		return domain.PurchaseHeader{}, apperr.Invalid("lines", "at least one line is required")
	}

	products, err := s.resolveProducts(ctx, productIDs(req.Lines, func(l domain.PurchaseLineInput) string { return l.ProductID }))
	if err != nil {
		return domain.PurchaseHeader{}, err
	}
	lines := make([]domain.TransactionLine, 0, len(req.Lines))
	for _, in := range req.Lines {
		if _, ok := products[in.ProductID]; !ok {
			return domain.PurchaseHeader{}, apperr.Invalid("lines", "unknown product %q", in.ProductID)
		}
		lines = append(lines, domain.TransactionLine{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitCost:  in.UnitCost,
		})
	}

	now := s.now()
	number := strings.TrimSpace(req.OrderNumber)
	if number == "" {
		number = xid.OrderNumber(now)
	}
	purchase, err := s.saga.CreatePurchase(ctx, domain.PurchaseHeader{
		OrderNumber:  number,
		Counterparty: strings.TrimSpace(req.Counterparty),
		Account:      strings.TrimSpace(req.Account),
		CreatedAt:    now,
	}, lines)
	if err != nil {
		return domain.PurchaseHeader{}, err
	}

	s.logAudit(ctx, "purchase_create", "purchase", purchase.ID,
		zap.String("order_number", purchase.OrderNumber),
		zap.String("total_price", purchase.TotalPrice.String()))
	return purchase, nil
}

func (s *Service) ListPurchases(ctx context.Context, filter domain.PurchaseFilter) ([]domain.PurchaseHeader, error) {
	purchases, err := s.repo.ListPurchases(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence("list purchases", err)
	}
	return purchases, nil
}

func (s *Service) GetPurchase(ctx context.Context, id string) (domain.PurchaseHeader, error) {
	purchase, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return domain.PurchaseHeader{}, apperr.Persistence("get purchase", err)
	}
	lines, err := s.repo.ListPurchaseLines(ctx, id)
	if err != nil {
		return domain.PurchaseHeader{}, apperr.Persistence("list purchase lines", err)
	}
	purchase.Lines = lines
	return *purchase, nil
}

func (s *Service) UpdatePurchaseStatus(ctx context.Context, id string, status string) (domain.PurchaseHeader, error) {
	if _, err := requireAdmin(ctx, "change purchase status"); err != nil {
		return domain.PurchaseHeader{}, err
	}
	purchase, err := s.saga.UpdatePurchaseStatus(ctx, id, domain.PurchaseStatus(strings.ToLower(strings.TrimSpace(status))))
	if err != nil {
		return domain.PurchaseHeader{}, err
	}
	s.logAudit(ctx, "purchase_status", "purchase", id, zap.String("status", string(purchase.Status)))
	return purchase, nil
}

func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx, "delete purchases"); err != nil {
		return err
	}
	if err := s.saga.DeleteTransaction(ctx, domain.DocumentPurchase, id); err != nil {
		return err
	}
	s.logAudit(ctx, "purchase_delete", "purchase", id)
	return nil
}

// priceSaleLines fills unit price from sell_price and unit cost from the
// current weighted average cost.
// priceSaleLines prices lines from the catalog and rejects a cart that asks
// for more of a product than is on the shelf.
func (s *Service) priceSaleLines(ctx context.Context, inputs []domain.SaleLineInput) ([]domain.TransactionLine, error) {
	if len(inputs) == 0 {
		return []domain.TransactionLine{}, nil
	}
	products, err := s.resolveProducts(ctx, productIDs(inputs, func(l domain.SaleLineInput) string { return l.ProductID }))
	if err != nil {
		return nil, err
	}

	lines := make([]domain.TransactionLine, 0, len(inputs))
	need := make(map[string]int, len(products))
	for _, in := range inputs {
		p, ok := products[in.ProductID]
		if !ok {
			return nil, apperr.Invalid("lines", "unknown product %q", in.ProductID)
		}
		if err := ledger.ValidateLine(in.Quantity, p.SellPrice, p.WeightedAvgCost); err != nil {
			return nil, err
		}
		need[p.ID] += in.Quantity
		if need[p.ID] > p.CurrentStock {
			return nil, apperr.Invalid("lines", "insufficient stock for %s: have %d, need %d", p.Code, p.CurrentStock, need[p.ID])
		}
		lines = append(lines, ledger.FillLine(domain.TransactionLine{
			ProductID: p.ID,
			Quantity:  in.Quantity,
			UnitPrice: p.SellPrice,
			UnitCost:  p.WeightedAvgCost,
		}))
	}
	return lines, nil
}

func (s *Service) resolveProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Persistence("get products", err)
	}
	return products, nil
}

// taxFor uses the explicit tax amount when given, otherwise the configured
// rate over the subtotal.
func (s *Service) taxFor(req domain.SaleRequest, subtotal decimal.Decimal) decimal.Decimal {
	if req.TaxAmount != nil {
		return *req.TaxAmount
	}
	return ledger.Tax(subtotal, s.taxRate)
}

func productIDs[T any](lines []T, id func(T) string) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		pid := strings.TrimSpace(id(l))
		if pid == "" {
			continue
		}
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		ids = append(ids, pid)
	}
	return ids
}
