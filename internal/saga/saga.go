// Package saga writes a document header and its lines against a store that
// has no cross-table transaction. Creation pre-checks the document number,
// inserts the header, then the lines in one batch; a failed line insert is
// compensated by deleting the header. Nothing is retried.
package saga

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/ledger"
	"kasirstok/backend/internal/logger"
	"kasirstok/backend/internal/metrics"
	"kasirstok/backend/internal/store"
)

type Saga struct {
	sales     store.SaleStore
	purchases store.PurchaseStore
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(sales store.SaleStore, purchases store.PurchaseStore, m *metrics.Metrics) *Saga {
	return &Saga{
		sales:     sales,
		purchases: purchases,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// table binds one document type to its per-table store calls.
type table[H any] struct {
	document     string
	findByNumber func(ctx context.Context, number string) (*H, error)
	insertHeader func(ctx context.Context, header H) (*H, error)
	insertLines  func(ctx context.Context, headerID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error)
	deleteHeader func(ctx context.Context, id string) error
	deleteLines  func(ctx context.Context, headerID string) error
	id           func(H) string
	attach       func(H, []domain.TransactionLine) H
}

func (s *Saga) saleTable() table[domain.SaleHeader] {
	return table[domain.SaleHeader]{
		document:     domain.DocumentSale,
		findByNumber: s.sales.FindSaleByNumber,
		insertHeader: s.sales.InsertSale,
		insertLines:  s.sales.InsertSaleLines,
		deleteHeader: s.sales.DeleteSale,
		deleteLines:  s.sales.DeleteSaleLines,
		id:           func(h domain.SaleHeader) string { return h.ID },
		attach: func(h domain.SaleHeader, lines []domain.TransactionLine) domain.SaleHeader {
			h.Lines = lines
			return h
		},
	}
}

func (s *Saga) purchaseTable() table[domain.PurchaseHeader] {
	return table[domain.PurchaseHeader]{
		document:     domain.DocumentPurchase,
		findByNumber: s.purchases.FindPurchaseByNumber,
		insertHeader: s.purchases.InsertPurchase,
		insertLines:  s.purchases.InsertPurchaseLines,
		deleteHeader: s.purchases.DeletePurchase,
		deleteLines:  s.purchases.DeletePurchaseLines,
		id:           func(h domain.PurchaseHeader) string { return h.ID },
		attach: func(h domain.PurchaseHeader, lines []domain.TransactionLine) domain.PurchaseHeader {
			h.Lines = lines
			return h
		},
	}
}

// CreateSale validates the sale locally, derives every total from its lines
// and writes header plus lines. AmountReceived must cover TotalAmount.
func (s *Saga) CreateSale(ctx context.Context, header domain.SaleHeader, lines []domain.TransactionLine) (domain.SaleHeader, error) {
	header.SaleNumber = strings.TrimSpace(header.SaleNumber)
	if header.SaleNumber == "" {
		return finish(s, domain.DocumentSale, "create", domain.SaleHeader{}, apperr.Invalid("sale_number", "is required"))
	}
	filled, err := fillLines(lines, true)
	if err != nil {
		return finish(s, domain.DocumentSale, "create", domain.SaleHeader{}, err)
	}
	if header.TaxAmount.IsNegative() {
		return finish(s, domain.DocumentSale, "create", domain.SaleHeader{}, apperr.Invalid("tax_amount", "must not be negative"))
	}
	if header.DiscountAmount.IsNegative() {
		return finish(s, domain.DocumentSale, "create", domain.SaleHeader{}, apperr.Invalid("discount_amount", "must not be negative"))
	}

	totals := make([]ledger.LineTotals, 0, len(filled))
	for _, l := range filled {
		totals = append(totals, ledger.Totals(l))
	}
	sum := ledger.Sale(totals, header.TaxAmount, header.DiscountAmount)
	if sum.TotalAmount.IsNegative() {
		return finish(s, domain.DocumentSale, "create", domain.SaleHeader{}, apperr.Invalid("discount_amount", "exceeds subtotal plus tax"))
	}
	change := ledger.Change(header.AmountReceived, sum.TotalAmount)
	if change.IsNegative() {
		return finish(s, domain.DocumentSale, "create", domain.SaleHeader{}, apperr.Invalid("amount_received", "short by %s", change.Neg().String()))
	}

	now := s.now()
	header.Subtotal = sum.Subtotal
	header.TotalAmount = sum.TotalAmount
	header.TotalCost = sum.TotalCost
	header.TotalMargin = sum.TotalMargin
	header.ChangeAmount = change
	if header.Status == "" {
		header.Status = domain.SaleCompleted
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = now
	}
	header.UpdatedAt = now
	header.Lines = nil

	created, err := createWithLines(ctx, s, s.saleTable(), header.SaleNumber, header, filled)
	return finish(s, domain.DocumentSale, "create", created, err)
}

// CreatePurchase writes a purchase order; TotalPrice is derived from the lines.
func (s *Saga) CreatePurchase(ctx context.Context, header domain.PurchaseHeader, lines []domain.TransactionLine) (domain.PurchaseHeader, error) {
	header.OrderNumber = strings.TrimSpace(header.OrderNumber)
	if header.OrderNumber == "" {
		return finish(s, domain.DocumentPurchase, "create", domain.PurchaseHeader{}, apperr.Invalid("order_number", "is required"))
	}
	if strings.TrimSpace(header.Counterparty) == "" {
		return finish(s, domain.DocumentPurchase, "create", domain.PurchaseHeader{}, apperr.Invalid("counterparty", "is required"))
	}
	filled, err := fillLines(lines, false)
	if err != nil {
		return finish(s, domain.DocumentPurchase, "create", domain.PurchaseHeader{}, err)
	}

	now := s.now()
	header.TotalPrice = ledger.PurchaseTotal(filled)
	if header.Status == "" {
		header.Status = domain.PurchasePending
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = now
	}
	header.UpdatedAt = now
	header.Lines = nil

	created, err := createWithLines(ctx, s, s.purchaseTable(), header.OrderNumber, header, filled)
	return finish(s, domain.DocumentPurchase, "create", created, err)
}

func createWithLines[H any](ctx context.Context, s *Saga, t table[H], number string, header H, lines []domain.TransactionLine) (H, error) {
	var zero H
	log := logger.FromContext(ctx).With(zap.String("document", t.document), zap.String("number", number))

	// Best-effort early hint only; the store's unique constraint is what
	// actually guarantees uniqueness.
	stop := s.metrics.TrackStoreCall(t.document + "_find_by_number")
	_, err := t.findByNumber(ctx, number)
	stop()
	switch {
	case err == nil:
		return zero, &apperr.ConflictError{Document: t.document, Number: number}
	case !errors.Is(err, store.ErrNotFound):
		return zero, apperr.Persistence("find "+t.document+" by number", err)
	}

	stop = s.metrics.TrackStoreCall(t.document + "_insert_header")
	created, err := t.insertHeader(ctx, header)
	stop()
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return zero, &apperr.ConflictError{Document: t.document, Number: number}
		}
		return zero, apperr.Persistence("insert "+t.document+" header", err)
	}
	headerID := t.id(*created)

	for i := range lines {
		lines[i].HeaderID = headerID
	}
	stop = s.metrics.TrackStoreCall(t.document + "_insert_lines")
	insertedLines, err := t.insertLines(ctx, headerID, lines)
	stop()
	if err != nil {
		cause := apperr.Persistence("insert "+t.document+" lines", err)
		consistency := &apperr.ConsistencyError{Op: "create " + t.document, HeaderID: headerID, Cause: cause}

		// The caller may have given up; the rollback still has to run.
		stop = s.metrics.TrackStoreCall(t.document + "_delete_header")
		rollbackErr := t.deleteHeader(context.WithoutCancel(ctx), headerID)
		stop()
		if rollbackErr != nil && !errors.Is(rollbackErr, store.ErrNotFound) {
			consistency.RollbackErr = rollbackErr
			consistency.OrphanHeader = true
			s.metrics.OrphanHeader(t.document)
			log.Error("compensating header delete failed",
				zap.String("header_id", headerID),
				zap.Bool("needs_operator_attention", true),
				zap.NamedError("cause", err),
				zap.NamedError("rollback_error", rollbackErr))
			return zero, consistency
		}
		s.metrics.Compensated(t.document)
		log.Warn("line insert failed, header rolled back",
			zap.String("header_id", headerID),
			zap.Error(err))
		return zero, consistency
	}

	log.Info("document created", zap.String("header_id", headerID), zap.Int("lines", len(insertedLines)))
	return t.attach(*created, insertedLines), nil
}

// UpdateStatus changes only the header status. Setting the current status
// again is a successful no-op, so the call is safe to repeat.
func (s *Saga) UpdateStatus(ctx context.Context, document string, id string, status string) error {
	var err error
	switch document {
	case domain.DocumentSale:
		_, err = s.UpdateSaleStatus(ctx, id, domain.SaleStatus(status))
	case domain.DocumentPurchase:
		_, err = s.UpdatePurchaseStatus(ctx, id, domain.PurchaseStatus(status))
	default:
		err = apperr.Invalid("document", "unknown document type %q", document)
	}
	return err
}

var saleTransitions = map[domain.SaleStatus][]domain.SaleStatus{
	domain.SaleCompleted: {domain.SaleCancelled, domain.SaleReturned},
}

var purchaseTransitions = map[domain.PurchaseStatus][]domain.PurchaseStatus{
	domain.PurchasePending: {domain.PurchaseShipped, domain.PurchaseCancelled},
	domain.PurchaseShipped: {domain.PurchaseCompleted, domain.PurchaseCancelled},
}

func (s *Saga) UpdateSaleStatus(ctx context.Context, id string, target domain.SaleStatus) (domain.SaleHeader, error) {
	switch target {
	case domain.SaleCompleted, domain.SaleCancelled, domain.SaleReturned:
	default:
		return finish(s, domain.DocumentSale, "status", domain.SaleHeader{}, apperr.Invalid("status", "unknown sale status %q", target))
	}

	current, err := s.sales.GetSale(ctx, id)
	if err != nil {
		return finish(s, domain.DocumentSale, "status", domain.SaleHeader{}, apperr.Persistence("get sale", err))
	}
	if current.Status == target {
		return *current, nil
	}
	if !allowed(saleTransitions[current.Status], target) {
		return finish(s, domain.DocumentSale, "status", domain.SaleHeader{}, apperr.Invalid("status", "sale cannot move from %s to %s", current.Status, target))
	}

	at := s.now()
	if err := s.sales.UpdateSaleStatus(ctx, id, target, at); err != nil {
		return finish(s, domain.DocumentSale, "status", domain.SaleHeader{}, apperr.Persistence("update sale status", err))
	}
	current.Status = target
	current.UpdatedAt = at
	return finish(s, domain.DocumentSale, "status", *current, nil)
}

func (s *Saga) UpdatePurchaseStatus(ctx context.Context, id string, target domain.PurchaseStatus) (domain.PurchaseHeader, error) {
	switch target {
	case domain.PurchasePending, domain.PurchaseShipped, domain.PurchaseCompleted, domain.PurchaseCancelled:
	default:
		return finish(s, domain.DocumentPurchase, "status", domain.PurchaseHeader{}, apperr.Invalid("status", "unknown purchase status %q", target))
	}

	current, err := s.purchases.GetPurchase(ctx, id)
	if err != nil {
		return finish(s, domain.DocumentPurchase, "status", domain.PurchaseHeader{}, apperr.Persistence("get purchase", err))
	}
	if current.Status == target {
		return *current, nil
	}
	if !allowed(purchaseTransitions[current.Status], target) {
		return finish(s, domain.DocumentPurchase, "status", domain.PurchaseHeader{}, apperr.Invalid("status", "purchase cannot move from %s to %s", current.Status, target))
	}

	at := s.now()
	if err := s.purchases.UpdatePurchaseStatus(ctx, id, target, at); err != nil {
		return finish(s, domain.DocumentPurchase, "status", domain.PurchaseHeader{}, apperr.Persistence("update purchase status", err))
	}
	current.Status = target
	current.UpdatedAt = at
	return finish(s, domain.DocumentPurchase, "status", *current, nil)
}

// DeleteTransaction removes lines first, then the header. If the lines
// cannot be deleted the header is left untouched.
func (s *Saga) DeleteTransaction(ctx context.Context, document string, id string) error {
	var err error
	switch document {
	case domain.DocumentSale:
		err = deleteWithLines(ctx, s, s.saleTable(), id)
	case domain.DocumentPurchase:
		err = deleteWithLines(ctx, s, s.purchaseTable(), id)
	default:
		return apperr.Invalid("document", "unknown document type %q", document)
	}
	_, err = finish(s, document, "delete", struct{}{}, err)
	return err
}

func deleteWithLines[H any](ctx context.Context, s *Saga, t table[H], id string) error {
	log := logger.FromContext(ctx).With(zap.String("document", t.document), zap.String("header_id", id))

	stop := s.metrics.TrackStoreCall(t.document + "_delete_lines")
	err := t.deleteLines(ctx, id)
	stop()
	if err != nil {
		log.Warn("line delete failed, header kept", zap.Error(err))
		return apperr.Persistence("delete "+t.document+" lines", err)
	}

	stop = s.metrics.TrackStoreCall(t.document + "_delete_header")
	err = t.deleteHeader(ctx, id)
	stop()
	if err != nil {
		return apperr.Persistence("delete "+t.document+" header", err)
	}
	log.Info("document deleted")
	return nil
}

func fillLines(lines []domain.TransactionLine, sale bool) ([]domain.TransactionLine, error) {
	if len(lines) == 0 {
		return nil, apperr.Invalid("lines", "at least one line is required")
	}
	filled := make([]domain.TransactionLine, 0, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, apperr.Invalid("lines", "line %d has no product", i+1)
		}
		if err := ledger.ValidateLine(l.Quantity, l.UnitPrice, l.UnitCost); err != nil {
			return nil, err
		}
		l = ledger.FillLine(l)
		if !sale {
			l.LineTotal = l.LineCost
			l.LineMargin = decimal.Zero
		}
		filled = append(filled, l)
	}
	return filled, nil
}

func allowed[T comparable](next []T, target T) bool {
	for _, n := range next {
		if n == target {
			return true
		}
	}
	return false
}

// finish records the saga outcome and returns v, or the zero value on error.
func finish[T any](s *Saga, document, op string, v T, err error) (T, error) {
	s.metrics.Saga(document, op, outcome(err))
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return metrics.OutcomeValidation
	case apperr.KindConflict:
		return metrics.OutcomeConflict
	case apperr.KindConsistency:
		return metrics.OutcomeConsistency
	default:
		return metrics.OutcomePersistence
	}
}
