package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/inventory"
	"kasirstok/backend/internal/store"
)

// ListProducts returns products with freshly classified stock status. The
// status filter is applied after classification since stored status is not
// trusted.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	switch filter.Status {
	case "", domain.StockCritical, domain.StockLow, domain.StockGood, domain.StockOverstock:
	default:
		return nil, apperr.Invalid("status", "unknown stock status %q", filter.Status)
	}
	switch filter.SortBy {
	case "", domain.ProductSortName, domain.ProductSortStock, domain.ProductSortCode:
	default:
		return nil, apperr.Invalid("sort", "unknown sort key %q", filter.SortBy)
	}

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence("list products", err)
	}
	products = inventory.RefreshAll(products)
	if filter.Status == "" {
		return products, nil
	}

	filtered := products[:0]
	for _, p := range products {
		if p.Status == filter.Status {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, apperr.Persistence("get product", err)
	}
	return inventory.Refresh(*p), nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := requireAdmin(ctx, "create products"); err != nil {
		return domain.Product{}, err
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	req.CategoryID = strings.TrimSpace(req.CategoryID)
	if req.Code == "" {
		return domain.Product{}, apperr.Invalid("code", "is required")
	}
	if req.Name == "" {
		return domain.Product{}, apperr.Invalid("name", "is required")
	}
	if err := inventory.ValidateLevels(req.CurrentStock, req.MinStock, req.MaxStock); err != nil {
		return domain.Product{}, err
	}
	product := domain.Product{
		Code:            req.Code,
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		CurrentStock:    req.CurrentStock,
		MinStock:        req.MinStock,
		MaxStock:        req.MaxStock,
		AvgSales:        req.AvgSales,
		SellPrice:       req.SellPrice,
		WeightedAvgCost: req.WeightedAvgCost,
	}
	if err := s.validateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}

	product = inventory.Refresh(product)
	created, err := s.repo.InsertProduct(ctx, product)
	if err != nil {
		return domain.Product{}, conflictOr("insert product", err, "product", product.Code)
	}

	s.logAudit(ctx, "product_create", "product", created.ID, zap.String("code", created.Code))
	return inventory.Refresh(*created), nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if _, err := requireAdmin(ctx, "update products"); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, apperr.Persistence("get product", err)
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, apperr.Invalid("name", "must not be empty")
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		updated.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.MinStock != nil {
		updated.MinStock = *req.MinStock
	}
	if req.MaxStock != nil {
		updated.MaxStock = *req.MaxStock
	}
	if req.AvgSales != nil {
		updated.AvgSales = *req.AvgSales
	}
	if req.SellPrice != nil {
		updated.SellPrice = *req.SellPrice
	}
	if err := inventory.ValidateLevels(updated.CurrentStock, updated.MinStock, updated.MaxStock); err != nil {
		return domain.Product{}, err
	}
	if err := s.validateProduct(ctx, updated); err != nil {
		return domain.Product{}, err
	}

	saved, err := s.repo.UpdateProduct(ctx, inventory.Refresh(updated))
	if err != nil {
		return domain.Product{}, conflictOr("update product", err, "product", updated.Code)
	}

	s.logAudit(ctx, "product_update", "product", saved.ID,
		zap.Int("min_stock", saved.MinStock),
		zap.Int("max_stock", saved.MaxStock),
		zap.String("sell_price", saved.SellPrice.String()))
	return inventory.Refresh(*saved), nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx, "delete products"); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrInUse) {
			return &apperr.ConflictError{Document: "product", Number: id, Reason: "is still referenced by sale or purchase lines"}
		}
		return apperr.Persistence("delete product", err)
	}
	s.logAudit(ctx, "product_delete", "product", id)
	return nil
}

func (s *Service) validateProduct(ctx context.Context, p domain.Product) error {
	if p.SellPrice.IsNegative() {
		return apperr.Invalid("sell_price", "must not be negative")
	}
	if p.WeightedAvgCost.IsNegative() {
		return apperr.Invalid("weighted_avg_cost", "must not be negative")
	}
	if p.AvgSales.IsNegative() {
		return apperr.Invalid("avg_sales", "must not be negative")
	}
	if p.CategoryID == "" {
		return nil
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return apperr.Persistence("list categories", err)
	}
	for _, c := range categories {
		if c.ID == p.CategoryID {
			return nil
		}
	}
	return apperr.Invalid("category_id", "unknown category %q", p.CategoryID)
}

// InventorySummary counts products per stock status and lists what needs
// reordering.
func (s *Service) InventorySummary(ctx context.Context) (domain.InventorySummary, error) {
	products, err := s.repo.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		return domain.InventorySummary{}, apperr.Persistence("list products", err)
	}
	return inventory.Summarize(products), nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Persistence("list categories", err)
	}
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (domain.Category, error) {
	if _, err := requireAdmin(ctx, "create categories"); err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, apperr.Invalid("name", "is required")
	}

	created, err := s.repo.InsertCategory(ctx, domain.Category{Name: name, Description: strings.TrimSpace(req.Description)})
	if err != nil {
		return domain.Category{}, conflictOr("insert category", err, "category", name)
	}
	s.logAudit(ctx, "category_create", "category", created.ID)
	return *created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, req domain.CategoryRequest) (domain.Category, error) {
	if _, err := requireAdmin(ctx, "update categories"); err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, apperr.Invalid("name", "is required")
	}

	updated, err := s.repo.UpdateCategory(ctx, domain.Category{ID: id, Name: name, Description: strings.TrimSpace(req.Description)})
	if err != nil {
		return domain.Category{}, conflictOr("update category", err, "category", name)
	}
	s.logAudit(ctx, "category_update", "category", id)
	return *updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx, "delete categories"); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return apperr.Persistence("delete category", err)
	}
	s.logAudit(ctx, "category_delete", "category", id)
	return nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, apperr.Persistence("list suppliers", err)
	}
	return suppliers, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierRequest) (domain.Supplier, error) {
	if _, err := requireAdmin(ctx, "create suppliers"); err != nil {
		return domain.Supplier{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Supplier{}, apperr.Invalid("name", "is required")
	}

	created, err := s.repo.InsertSupplier(ctx, domain.Supplier{
		Name:        name,
		Marketplace: strings.TrimSpace(req.Marketplace),
		Contact:     strings.TrimSpace(req.Contact),
	})
	if err != nil {
		return domain.Supplier{}, conflictOr("insert supplier", err, "supplier", name)
	}
	s.logAudit(ctx, "supplier_create", "supplier", created.ID)
	return *created, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx, "delete suppliers"); err != nil {
		return err
	}
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return apperr.Persistence("delete supplier", err)
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id)
	return nil
}

func (s *Service) ListSupplierAccounts(ctx context.Context, supplierID string) ([]domain.SupplierAccount, error) {
	if _, err := s.repo.GetSupplier(ctx, supplierID); err != nil {
		return nil, apperr.Persistence("get supplier", err)
	}
	accounts, err := s.repo.ListSupplierAccounts(ctx, supplierID)
	if err != nil {
		return nil, apperr.Persistence("list supplier accounts", err)
	}
	return accounts, nil
}

func (s *Service) CreateSupplierAccount(ctx context.Context, supplierID string, req domain.SupplierAccountRequest) (domain.SupplierAccount, error) {
	if _, err := requireAdmin(ctx, "create supplier accounts"); err != nil {
		return domain.SupplierAccount{}, err
	}
	name := strings.TrimSpace(req.AccountName)
	if name == "" {
		return domain.SupplierAccount{}, apperr.Invalid("account_name", "is required")
	}

	created, err := s.repo.InsertSupplierAccount(ctx, domain.SupplierAccount{
		SupplierID:  supplierID,
		AccountName: name,
		Reference:   strings.TrimSpace(req.Reference),
	})
	if err != nil {
		return domain.SupplierAccount{}, conflictOr("insert supplier account", err, "supplier account", name)
	}
	s.logAudit(ctx, "supplier_account_create", "supplier_account", created.ID, zap.String("supplier_id", supplierID))
	return *created, nil
}

func (s *Service) DeleteSupplierAccount(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx, "delete supplier accounts"); err != nil {
		return err
	}
	if err := s.repo.DeleteSupplierAccount(ctx, id); err != nil {
		return apperr.Persistence("delete supplier account", err)
	}
	s.logAudit(ctx, "supplier_account_delete", "supplier_account", id)
	return nil
}
