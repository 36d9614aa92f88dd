package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockCritical  StockStatus = "critical"
	StockLow       StockStatus = "low"
	StockGood      StockStatus = "good"
	StockOverstock StockStatus = "overstock"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Product.Status is a cached copy of inventory.Classify over the three stock
// fields. Readers must not trust it as input.
type Product struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	CategoryID      string          `json:"category_id"`
	CurrentStock    int             `json:"current_stock"`
	MinStock        int             `json:"min_stock"`
	MaxStock        int             `json:"max_stock"`
	AvgSales        decimal.Decimal `json:"avg_sales"`
	Status          StockStatus     `json:"status"`
	SellPrice       decimal.Decimal `json:"sell_price"`
	WeightedAvgCost decimal.Decimal `json:"weighted_avg_cost"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	CategoryID      string          `json:"category_id"`
	CurrentStock    int             `json:"current_stock"`
	MinStock        int             `json:"min_stock"`
	MaxStock        int             `json:"max_stock"`
	AvgSales        decimal.Decimal `json:"avg_sales"`
	SellPrice       decimal.Decimal `json:"sell_price"`
	WeightedAvgCost decimal.Decimal `json:"weighted_avg_cost"`
}

type ProductUpdateRequest struct {
	Name       *string          `json:"name,omitempty"`
	CategoryID *string          `json:"category_id,omitempty"`
	MinStock   *int             `json:"min_stock,omitempty"`
	MaxStock   *int             `json:"max_stock,omitempty"`
	AvgSales   *decimal.Decimal `json:"avg_sales,omitempty"`
	SellPrice  *decimal.Decimal `json:"sell_price,omitempty"`
}

const (
	ProductSortName  = "name"
	ProductSortStock = "stock"
	ProductSortCode  = "code"
)

type ProductFilter struct {
	Query      string
	CategoryID string
	Status     StockStatus
	SortBy     string
	Desc       bool
}

type Supplier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Marketplace string    `json:"marketplace"`
	Contact     string    `json:"contact,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SupplierRequest struct {
	Name        string `json:"name"`
	Marketplace string `json:"marketplace"`
	Contact     string `json:"contact"`
}

type SupplierAccount struct {
	ID          string    `json:"id"`
	SupplierID  string    `json:"supplier_id"`
	AccountName string    `json:"account_name"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SupplierAccountRequest struct {
	AccountName string `json:"account_name"`
	Reference   string `json:"reference"`
}

// TransactionLine is shared by sale and purchase lines. LineMargin is only
// meaningful for sales.
type TransactionLine struct {
	ID         string          `json:"id"`
	HeaderID   string          `json:"header_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	LineTotal  decimal.Decimal `json:"line_total"`
	LineCost   decimal.Decimal `json:"line_cost"`
	LineMargin decimal.Decimal `json:"line_margin"`
}

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleReturned  SaleStatus = "returned"
)

type SaleHeader struct {
	ID             string            `json:"id"`
	SaleNumber     string            `json:"sale_number"`
	Cashier        string            `json:"cashier"`
	PaymentMethod  string            `json:"payment_method"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	TotalCost      decimal.Decimal   `json:"total_cost"`
	TotalMargin    decimal.Decimal   `json:"total_margin"`
	AmountReceived decimal.Decimal   `json:"amount_received"`
	ChangeAmount   decimal.Decimal   `json:"change_amount"`
	Status         SaleStatus        `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Lines          []TransactionLine `json:"lines"`
}

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseShipped   PurchaseStatus = "shipped"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type PurchaseHeader struct {
	ID           string            `json:"id"`
	OrderNumber  string            `json:"order_number"`
	Counterparty string            `json:"counterparty"`
	Account      string            `json:"account"`
	Status       PurchaseStatus    `json:"status"`
	TotalPrice   decimal.Decimal   `json:"total_price"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Lines        []TransactionLine `json:"lines"`
}

type SaleFilter struct {
	Status SaleStatus
	From   time.Time
	To     time.Time
}

type PurchaseFilter struct {
	Status       PurchaseStatus
	Counterparty string
}

type SaleLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SaleRequest struct {
	SaleNumber     string           `json:"sale_number"`
	PaymentMethod  string           `json:"payment_method"`
	AmountReceived decimal.Decimal  `json:"amount_received"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Lines          []SaleLineInput  `json:"lines"`
}

// SaleDraft is the live preview recomputed on each cart edit.
type SaleDraft struct {
	Lines          []TransactionLine `json:"lines"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	TotalCost      decimal.Decimal   `json:"total_cost"`
	TotalMargin    decimal.Decimal   `json:"total_margin"`
	AmountReceived decimal.Decimal   `json:"amount_received"`
	Change         decimal.Decimal   `json:"change"`
	CanSubmit      bool              `json:"can_submit"`
}

type PurchaseLineInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type PurchaseRequest struct {
	OrderNumber  string              `json:"order_number"`
	Counterparty string              `json:"counterparty"`
	Account      string              `json:"account"`
	Lines        []PurchaseLineInput `json:"lines"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

type Range string

const (
	RangeCurrent  Range = "current"
	RangePrevious Range = "previous"
)

// TimeBucket covers [PeriodStart, PeriodEnd). It is never persisted.
type TimeBucket struct {
	Label       string          `json:"label"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	SalesSum    decimal.Decimal `json:"sales_sum"`
	MarginSum   decimal.Decimal `json:"margin_sum"`
}

// SalesChart is anchored at the start of the period that contained "now"
// when it was computed.
type SalesChart struct {
	Period      Period          `json:"period"`
	Range       Range           `json:"range"`
	Anchor      time.Time       `json:"anchor"`
	Buckets     []TimeBucket    `json:"buckets"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalMargin decimal.Decimal `json:"total_margin"`
}

type RestockItem struct {
	ProductID      string          `json:"product_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Status         StockStatus     `json:"status"`
	CurrentStock   int             `json:"current_stock"`
	SuggestedQty   int             `json:"suggested_qty"`
	DaysOfCover    decimal.Decimal `json:"days_of_cover"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
}

type InventorySummary struct {
	Counts  map[StockStatus]int `json:"counts"`
	Restock []RestockItem       `json:"restock"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type Profile struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// Session is the caller identity threaded explicitly through the service.
type Session struct {
	Username string
	Role     string
	Profile  Profile
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	Role        string  `json:"role"`
	Profile     Profile `json:"profile"`
	ExpiresAt   string  `json:"expires_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username    string
	Password    string
	Role        string
	DisplayName string
	Email       string
	Active      bool
	CreatedAt   time.Time
}

const (
	DocumentSale     = "sale"
	DocumentPurchase = "purchase"
)

type CashierCreateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Profile   Profile   `json:"profile"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
