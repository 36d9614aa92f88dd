package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/ledger"
	"kasirstok/backend/internal/logger"
	"kasirstok/backend/internal/store"
	"kasirstok/backend/internal/xid"
)

// Store keeps every table in maps behind one RWMutex. Line inserts and
// deletes apply the same stock side effects the postgres triggers do.
type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	categories      map[string]domain.Category
	suppliers       map[string]domain.Supplier
	accounts        map[string]domain.SupplierAccount
	sales           map[string]domain.SaleHeader
	saleLines       map[string][]domain.TransactionLine
	purchases       map[string]domain.PurchaseHeader
	purchaseLines   map[string][]domain.TransactionLine
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		categories:      make(map[string]domain.Category),
		suppliers:       make(map[string]domain.Supplier),
		accounts:        make(map[string]domain.SupplierAccount),
		sales:           make(map[string]domain.SaleHeader),
		saleLines:       make(map[string][]domain.TransactionLine),
		purchases:       make(map[string]domain.PurchaseHeader),
		purchaseLines:   make(map[string][]domain.TransactionLine),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the dev/demo accounts. Passwords come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD, with dev defaults otherwise.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logger.L().Warn("memory store using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
		name     string
	}{
		{"admin", adminPwd, domain.RoleAdmin, "Store Admin"},
		{"cashier", cashierPwd, domain.RoleCashier, "Front Cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logger.L().Fatal("hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:    u.username,
			Password:    string(hash),
			Role:        u.role,
			DisplayName: u.name,
			Email:       u.username + "@kasirstok.local",
			Active:      true,
			CreatedAt:   now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with demo categories, products, one supplier and
// the seed users.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	categories := []domain.Category{
		{ID: "cat-grocery", Name: "Grocery"},
		{ID: "cat-beverage", Name: "Beverage"},
		{ID: "cat-household", Name: "Household"},
	}
	for _, c := range categories {
		c.CreatedAt = now
		s.categories[c.ID] = c
	}

	for _, p := range []struct {
		code, name, category string
		stock, min, max      int
		sell, cost, avg      string
	}{
		{"MIE-01", "Mie Goreng Instan", "cat-grocery", 120, 20, 150, "3500", "2700", "12"},
		{"TELUR-01", "Telur 10 Butir", "cat-grocery", 18, 15, 60, "26500", "23000", "4"},
		{"GULA-01", "Gula 1kg", "cat-grocery", 8, 10, 50, "17400", "15300", "3"},
		{"KOPI-01", "Kopi Sachet", "cat-beverage", 240, 30, 200, "2600", "1700", "20"},
		{"TEH-01", "Teh Celup", "cat-beverage", 45, 10, 80, "9800", "7200", "2.5"},
		{"AIR-01", "Air Mineral 600ml", "cat-beverage", 60, 24, 144, "3900", "3200", "10"},
		{"SABUN-01", "Sabun Mandi", "cat-household", 30, 10, 60, "7400", "5000", "1.5"},
	} {
		id := xid.New()
		s.products[id] = domain.Product{
			ID:              id,
			Code:            p.code,
			Name:            p.name,
			CategoryID:      p.category,
			CurrentStock:    p.stock,
			MinStock:        p.min,
			MaxStock:        p.max,
			AvgSales:        decimal.RequireFromString(p.avg),
			SellPrice:       decimal.RequireFromString(p.sell),
			WeightedAvgCost: decimal.RequireFromString(p.cost),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	supplierID := xid.New()
	s.suppliers[supplierID] = domain.Supplier{
		ID:          supplierID,
		Name:        "Toko Grosir Sentosa",
		Marketplace: "offline",
		Contact:     "0812-0000-1111",
		CreatedAt:   now,
	}
	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) && !strings.Contains(strings.ToLower(p.Code), query) {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		var c int
		switch filter.SortBy {
		case domain.ProductSortStock:
			c = a.CurrentStock - b.CurrentStock
		case domain.ProductSortCode:
			c = strings.Compare(a.Code, b.Code)
		default:
			c = strings.Compare(a.Name, b.Name)
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if filter.Desc {
			return -c
		}
		return c
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) InsertProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.Code == product.Code {
			return nil, store.ErrDuplicate
		}
	}
	if product.ID == "" {
		product.ID = xid.New()
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, other := range s.products {
		if other.ID != product.ID && other.Code == product.Code {
			return nil, store.ErrDuplicate
		}
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	if s.productReferenced(id) {
		return store.ErrInUse
	}
	delete(s.products, id)
	return nil
}

func (s *Store) productReferenced(id string) bool {
	for _, lines := range s.saleLines {
		for _, line := range lines {
			if line.ProductID == id {
				return true
			}
		}
	}
	for _, lines := range s.purchaseLines {
		for _, line := range lines {
			if line.ProductID == id {
				return true
			}
		}
	}
	return false
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return categories, nil
}

func (s *Store) InsertCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil, store.ErrDuplicate
		}
	}
	if category.ID == "" {
		category.ID = xid.New()
	}
	category.CreatedAt = time.Now().UTC()
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, other := range s.categories {
		if other.ID != category.ID && strings.EqualFold(other.Name, category.Name) {
			return nil, store.ErrDuplicate
		}
	}
	category.CreatedAt = existing.CreatedAt
	s.categories[category.ID] = category
	return &category, nil
}

// DeleteCategory detaches the category from its products, like ON DELETE SET NULL.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.CategoryID == id {
			p.CategoryID = ""
			s.products[pid] = p
		}
	}
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		suppliers = append(suppliers, sup)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return strings.Compare(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sup, nil
}

func (s *Store) InsertSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.ID == "" {
		supplier.ID = xid.New()
	}
	supplier.CreatedAt = time.Now().UTC()
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.suppliers, id)
	for aid, a := range s.accounts {
		if a.SupplierID == id {
			delete(s.accounts, aid)
		}
	}
	return nil
}

func (s *Store) ListSupplierAccounts(_ context.Context, supplierID string) ([]domain.SupplierAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.SupplierAccount, 0)
	for _, a := range s.accounts {
		if supplierID == "" || a.SupplierID == supplierID {
			accounts = append(accounts, a)
		}
	}
	slices.SortFunc(accounts, func(a, b domain.SupplierAccount) int {
		return strings.Compare(a.AccountName, b.AccountName)
	})
	return accounts, nil
}

func (s *Store) InsertSupplierAccount(_ context.Context, account domain.SupplierAccount) (*domain.SupplierAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[account.SupplierID]; !ok {
		return nil, store.ErrNotFound
	}
	if account.ID == "" {
		account.ID = xid.New()
	}
	account.CreatedAt = time.Now().UTC()
	s.accounts[account.ID] = account
	return &account, nil
}

func (s *Store) DeleteSupplierAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.SaleHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.SaleHeader, 0, len(s.sales))
	for _, sale := range s.sales {
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && sale.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !sale.CreatedAt.Before(filter.To) {
			continue
		}
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.SaleHeader) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.SaleHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

func (s *Store) FindSaleByNumber(_ context.Context, number string) (*domain.SaleHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sale := range s.sales {
		if sale.SaleNumber == number {
			return &sale, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertSale(_ context.Context, sale domain.SaleHeader) (*domain.SaleHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sales {
		if existing.SaleNumber == sale.SaleNumber {
			return nil, store.ErrDuplicate
		}
	}
	if sale.ID == "" {
		sale.ID = xid.New()
	}
	sale.Lines = nil
	s.sales[sale.ID] = sale
	return &sale, nil
}

func (s *Store) UpdateSaleStatus(_ context.Context, id string, status domain.SaleStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return store.ErrNotFound
	}
	sale.Status = status
	sale.UpdatedAt = at
	s.sales[id] = sale
	return nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sales, id)
	return nil
}

// InsertSaleLines checks every line before touching stock, so a short
// product fails the whole batch.
func (s *Store) InsertSaleLines(_ context.Context, saleID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[saleID]; !ok {
		return nil, store.ErrNotFound
	}
	need := make(map[string]int, len(lines))
	for _, l := range lines {
		if _, ok := s.products[l.ProductID]; !ok {
			return nil, store.ErrNotFound
		}
		need[l.ProductID] += l.Quantity
	}
	for id, qty := range need {
		if s.products[id].CurrentStock < qty {
			return nil, store.ErrInsufficientStock
		}
	}

	now := time.Now().UTC()
	for id, qty := range need {
		p := s.products[id]
		p.CurrentStock -= qty
		p.UpdatedAt = now
		s.products[id] = p
	}
	stored := make([]domain.TransactionLine, 0, len(lines))
	for _, l := range lines {
		l.ID = xid.New()
		l.HeaderID = saleID
		stored = append(stored, l)
	}
	s.saleLines[saleID] = append(s.saleLines[saleID], stored...)
	return slices.Clone(stored), nil
}

func (s *Store) ListSaleLines(_ context.Context, saleID string) ([]domain.TransactionLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.saleLines[saleID]), nil
}

// DeleteSaleLines puts the sold quantities back on the shelf.
func (s *Store) DeleteSaleLines(_ context.Context, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, l := range s.saleLines[saleID] {
		if p, ok := s.products[l.ProductID]; ok {
			p.CurrentStock += l.Quantity
			p.UpdatedAt = now
			s.products[l.ProductID] = p
		}
	}
	delete(s.saleLines, saleID)
	return nil
}

func (s *Store) ListPurchases(_ context.Context, filter domain.PurchaseFilter) ([]domain.PurchaseHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]domain.PurchaseHeader, 0, len(s.purchases))
	for _, p := range s.purchases {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Counterparty != "" && p.Counterparty != filter.Counterparty {
			continue
		}
		purchases = append(purchases, p)
	}
	slices.SortFunc(purchases, func(a, b domain.PurchaseHeader) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return purchases, nil
}

func (s *Store) GetPurchase(_ context.Context, id string) (*domain.PurchaseHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) FindPurchaseByNumber(_ context.Context, number string) (*domain.PurchaseHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.purchases {
		if p.OrderNumber == number {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertPurchase(_ context.Context, purchase domain.PurchaseHeader) (*domain.PurchaseHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.purchases {
		if existing.OrderNumber == purchase.OrderNumber {
			return nil, store.ErrDuplicate
		}
	}
	if purchase.ID == "" {
		purchase.ID = xid.New()
	}
	purchase.Lines = nil
	s.purchases[purchase.ID] = purchase
	return &purchase, nil
}

func (s *Store) UpdatePurchaseStatus(_ context.Context, id string, status domain.PurchaseStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = at
	s.purchases[id] = p
	return nil
}

func (s *Store) DeletePurchase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.purchases, id)
	return nil
}

// InsertPurchaseLines adds the received quantity to stock and folds the unit
// cost into the product's weighted average cost.
func (s *Store) InsertPurchaseLines(_ context.Context, purchaseID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[purchaseID]; !ok {
		return nil, store.ErrNotFound
	}
	for _, l := range lines {
		if _, ok := s.products[l.ProductID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	now := time.Now().UTC()
	stored := make([]domain.TransactionLine, 0, len(lines))
	for _, l := range lines {
		p := s.products[l.ProductID]
		p.WeightedAvgCost = ledger.WeightedAverageCost(p.WeightedAvgCost, p.CurrentStock, l.UnitCost, l.Quantity)
		p.CurrentStock += l.Quantity
		p.UpdatedAt = now
		s.products[l.ProductID] = p

		l.ID = xid.New()
		l.HeaderID = purchaseID
		stored = append(stored, l)
	}
	s.purchaseLines[purchaseID] = append(s.purchaseLines[purchaseID], stored...)
	return slices.Clone(stored), nil
}

func (s *Store) ListPurchaseLines(_ context.Context, purchaseID string) ([]domain.TransactionLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.purchaseLines[purchaseID]), nil
}

// DeletePurchaseLines takes received quantities back out of stock, never
// below zero. The weighted average cost is left as is.
func (s *Store) DeletePurchaseLines(_ context.Context, purchaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, l := range s.purchaseLines[purchaseID] {
		if p, ok := s.products[l.ProductID]; ok {
			p.CurrentStock = max(p.CurrentStock-l.Quantity, 0)
			p.UpdatedAt = now
			s.products[l.ProductID] = p
		}
	}
	delete(s.purchaseLines, purchaseID)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.usersByUsername[username] = u
	return nil
}

var _ store.Repository = (*Store)(nil)
