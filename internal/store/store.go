package store

import (
	"context"
	"errors"
	"time"

	"kasirstok/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInUse             = errors.New("still referenced")
)

// The record store offers per-table calls only. No method spans a header and
// its lines; callers that need both go through the saga package.

type ProductStore interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	InsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	InsertCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type SupplierStore interface {
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	InsertSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	ListSupplierAccounts(ctx context.Context, supplierID string) ([]domain.SupplierAccount, error)
	InsertSupplierAccount(ctx context.Context, account domain.SupplierAccount) (*domain.SupplierAccount, error)
	DeleteSupplierAccount(ctx context.Context, id string) error
}

type SaleStore interface {
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleHeader, error)
	GetSale(ctx context.Context, id string) (*domain.SaleHeader, error)
	FindSaleByNumber(ctx context.Context, number string) (*domain.SaleHeader, error)
	InsertSale(ctx context.Context, sale domain.SaleHeader) (*domain.SaleHeader, error)
	UpdateSaleStatus(ctx context.Context, id string, status domain.SaleStatus, at time.Time) error
	DeleteSale(ctx context.Context, id string) error
	// InsertSaleLines is a single batch call: all lines are stored or none.
	InsertSaleLines(ctx context.Context, saleID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error)
	ListSaleLines(ctx context.Context, saleID string) ([]domain.TransactionLine, error)
	DeleteSaleLines(ctx context.Context, saleID string) error
}

type PurchaseStore interface {
	ListPurchases(ctx context.Context, filter domain.PurchaseFilter) ([]domain.PurchaseHeader, error)
	GetPurchase(ctx context.Context, id string) (*domain.PurchaseHeader, error)
	FindPurchaseByNumber(ctx context.Context, number string) (*domain.PurchaseHeader, error)
	InsertPurchase(ctx context.Context, purchase domain.PurchaseHeader) (*domain.PurchaseHeader, error)
	UpdatePurchaseStatus(ctx context.Context, id string, status domain.PurchaseStatus, at time.Time) error
	DeletePurchase(ctx context.Context, id string) error
	InsertPurchaseLines(ctx context.Context, purchaseID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error)
	ListPurchaseLines(ctx context.Context, purchaseID string) ([]domain.TransactionLine, error)
	DeletePurchaseLines(ctx context.Context, purchaseID string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	ProductStore
	CategoryStore
	SupplierStore
	SaleStore
	PurchaseStore
	UserStore
}
