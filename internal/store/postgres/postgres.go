package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/store"
	"kasirstok/backend/internal/xid"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const productColumns = `id, code, name, category_id, current_stock, min_stock, max_stock,
	avg_sales, sell_price, weighted_avg_cost, created_at, updated_at`

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		category sql.NullString
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &category, &p.CurrentStock, &p.MinStock, &p.MaxStock,
		&p.AvgSales, &p.SellPrice, &p.WeightedAvgCost, &p.CreatedAt, &p.UpdatedAt)
	p.CategoryID = category.String
	return p, err
}

var productOrder = map[string]string{
	domain.ProductSortName:  "name",
	domain.ProductSortStock: "current_stock",
	domain.ProductSortCode:  "code",
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args), len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	order, ok := productOrder[filter.SortBy]
	if !ok {
		order = "name"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id", order, direction)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (s *Store) InsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = xid.New()
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		INSERT INTO products (id, code, name, category_id, current_stock, min_stock, max_stock,
			avg_sales, sell_price, weighted_avg_cost, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
		RETURNING `+productColumns,
		product.ID, product.Code, product.Name, nullIfEmpty(product.CategoryID), product.CurrentStock,
		product.MinStock, product.MaxStock, product.AvgSales, product.SellPrice, product.WeightedAvgCost))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		UPDATE products
		SET code = $2, name = $3, category_id = $4, current_stock = $5, min_stock = $6, max_stock = $7,
			avg_sales = $8, sell_price = $9, weighted_avg_cost = $10, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		product.ID, product.Code, product.Name, nullIfEmpty(product.CategoryID), product.CurrentStock,
		product.MinStock, product.MaxStock, product.AvgSales, product.SellPrice, product.WeightedAvgCost))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM products WHERE id = $1`, id)
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) InsertCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" {
		category.ID = xid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, description, created_at)
		VALUES ($1,$2,$3,now())
		RETURNING created_at
	`, category.ID, category.Name, category.Description).Scan(&category.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories SET name = $2, description = $3
		WHERE id = $1
		RETURNING created_at
	`, category.ID, category.Name, category.Description).Scan(&category.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM categories WHERE id = $1`, id)
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, marketplace, contact, created_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var sup domain.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Marketplace, &sup.Contact, &sup.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var sup domain.Supplier
	err := s.db.QueryRowContext(ctx, `SELECT id, name, marketplace, contact, created_at FROM suppliers WHERE id = $1`, id).
		Scan(&sup.ID, &sup.Name, &sup.Marketplace, &sup.Contact, &sup.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sup, nil
}

func (s *Store) InsertSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.ID == "" {
		supplier.ID = xid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO suppliers (id, name, marketplace, contact, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING created_at
	`, supplier.ID, supplier.Name, supplier.Marketplace, supplier.Contact).Scan(&supplier.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
}

func (s *Store) ListSupplierAccounts(ctx context.Context, supplierID string) ([]domain.SupplierAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, account_name, reference, created_at
		FROM supplier_accounts
		WHERE $1 = '' OR supplier_id = $1
		ORDER BY account_name
	`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.SupplierAccount, 0, 16)
	for rows.Next() {
		var a domain.SupplierAccount
		if err := rows.Scan(&a.ID, &a.SupplierID, &a.AccountName, &a.Reference, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) InsertSupplierAccount(ctx context.Context, account domain.SupplierAccount) (*domain.SupplierAccount, error) {
	if account.ID == "" {
		account.ID = xid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO supplier_accounts (id, supplier_id, account_name, reference, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING created_at
	`, account.ID, account.SupplierID, account.AccountName, account.Reference).Scan(&account.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &account, nil
}

func (s *Store) DeleteSupplierAccount(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM supplier_accounts WHERE id = $1`, id)
}

const saleColumns = `id, sale_number, cashier, payment_method, subtotal, tax_amount, discount_amount,
	total_amount, total_cost, total_margin, amount_received, change_amount, status, created_at, updated_at`

func scanSale(row rowScanner) (domain.SaleHeader, error) {
	var h domain.SaleHeader
	err := row.Scan(&h.ID, &h.SaleNumber, &h.Cashier, &h.PaymentMethod, &h.Subtotal, &h.TaxAmount, &h.DiscountAmount,
		&h.TotalAmount, &h.TotalCost, &h.TotalMargin, &h.AmountReceived, &h.ChangeAmount, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleHeader, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleHeader, 0, 64)
	for rows.Next() {
		h, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, h)
	}
	return sales, rows.Err()
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.SaleHeader, error) {
	return s.findSale(ctx, `id = $1`, id)
}

func (s *Store) FindSaleByNumber(ctx context.Context, number string) (*domain.SaleHeader, error) {
	return s.findSale(ctx, `sale_number = $1`, number)
}

func (s *Store) findSale(ctx context.Context, cond string, arg string) (*domain.SaleHeader, error) {
	h, err := scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE `+cond, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (s *Store) InsertSale(ctx context.Context, sale domain.SaleHeader) (*domain.SaleHeader, error) {
	if sale.ID == "" {
		sale.ID = xid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, sale.ID, sale.SaleNumber, sale.Cashier, sale.PaymentMethod, sale.Subtotal, sale.TaxAmount, sale.DiscountAmount,
		sale.TotalAmount, sale.TotalCost, sale.TotalMargin, sale.AmountReceived, sale.ChangeAmount, string(sale.Status),
		sale.CreatedAt, sale.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	sale.Lines = nil
	return &sale, nil
}

func (s *Store) UpdateSaleStatus(ctx context.Context, id string, status domain.SaleStatus, at time.Time) error {
	return s.updateStatus(ctx, `UPDATE sales SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM sales WHERE id = $1`, id)
}

// InsertSaleLines writes the whole batch in one INSERT so a stock trigger
// failure on any row rejects them all.
func (s *Store) InsertSaleLines(ctx context.Context, saleID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error) {
	if len(lines) == 0 {
		return []domain.TransactionLine{}, nil
	}
	stored := make([]domain.TransactionLine, 0, len(lines))
	values := make([]string, 0, len(lines))
	args := make([]any, 0, len(lines)*9)
	for _, l := range lines {
		l.ID = xid.New()
		l.HeaderID = saleID
		stored = append(stored, l)

		n := len(args)
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9))
		args = append(args, l.ID, saleID, l.ProductID, l.Quantity, l.UnitPrice, l.UnitCost, l.LineTotal, l.LineCost, l.LineMargin)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, unit_cost, line_total, line_cost, line_margin)
		VALUES `+strings.Join(values, ","), args...)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return stored, nil
}

func (s *Store) ListSaleLines(ctx context.Context, saleID string) ([]domain.TransactionLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, unit_cost, line_total, line_cost, line_margin
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.TransactionLine, 0, 8)
	for rows.Next() {
		var l domain.TransactionLine
		if err := rows.Scan(&l.ID, &l.HeaderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.UnitCost,
			&l.LineTotal, &l.LineCost, &l.LineMargin); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) DeleteSaleLines(ctx context.Context, saleID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sale_lines WHERE sale_id = $1`, saleID)
	return err
}

const purchaseColumns = `id, order_number, counterparty, account, status, total_price, created_at, updated_at`

func scanPurchase(row rowScanner) (domain.PurchaseHeader, error) {
	var h domain.PurchaseHeader
	err := row.Scan(&h.ID, &h.OrderNumber, &h.Counterparty, &h.Account, &h.Status, &h.TotalPrice, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func (s *Store) ListPurchases(ctx context.Context, filter domain.PurchaseFilter) ([]domain.PurchaseHeader, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR counterparty = $2)
		ORDER BY created_at DESC
	`, string(filter.Status), filter.Counterparty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.PurchaseHeader, 0, 32)
	for rows.Next() {
		h, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, h)
	}
	return purchases, rows.Err()
}

func (s *Store) GetPurchase(ctx context.Context, id string) (*domain.PurchaseHeader, error) {
	return s.findPurchase(ctx, `id = $1`, id)
}

func (s *Store) FindPurchaseByNumber(ctx context.Context, number string) (*domain.PurchaseHeader, error) {
	return s.findPurchase(ctx, `order_number = $1`, number)
}

func (s *Store) findPurchase(ctx context.Context, cond string, arg string) (*domain.PurchaseHeader, error) {
	h, err := scanPurchase(s.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE `+cond, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (s *Store) InsertPurchase(ctx context.Context, purchase domain.PurchaseHeader) (*domain.PurchaseHeader, error) {
	if purchase.ID == "" {
		purchase.ID = xid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, purchase.ID, purchase.OrderNumber, purchase.Counterparty, purchase.Account, string(purchase.Status),
		purchase.TotalPrice, purchase.CreatedAt, purchase.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	purchase.Lines = nil
	return &purchase, nil
}

func (s *Store) UpdatePurchaseStatus(ctx context.Context, id string, status domain.PurchaseStatus, at time.Time) error {
	return s.updateStatus(ctx, `UPDATE purchases SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
}

func (s *Store) DeletePurchase(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM purchases WHERE id = $1`, id)
}

func (s *Store) InsertPurchaseLines(ctx context.Context, purchaseID string, lines []domain.TransactionLine) ([]domain.TransactionLine, error) {
	if len(lines) == 0 {
		return []domain.TransactionLine{}, nil
	}
	stored := make([]domain.TransactionLine, 0, len(lines))
	values := make([]string, 0, len(lines))
	args := make([]any, 0, len(lines)*8)
	for _, l := range lines {
		l.ID = xid.New()
		l.HeaderID = purchaseID
		stored = append(stored, l)

		n := len(args)
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8))
		args = append(args, l.ID, purchaseID, l.ProductID, l.Quantity, l.UnitPrice, l.UnitCost, l.LineTotal, l.LineCost)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchase_lines (id, purchase_id, product_id, quantity, unit_price, unit_cost, line_total, line_cost)
		VALUES `+strings.Join(values, ","), args...)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return stored, nil
}

func (s *Store) ListPurchaseLines(ctx context.Context, purchaseID string) ([]domain.TransactionLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_id, product_id, quantity, unit_price, unit_cost, line_total, line_cost
		FROM purchase_lines
		WHERE purchase_id = $1
		ORDER BY id
	`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.TransactionLine, 0, 8)
	for rows.Next() {
		var l domain.TransactionLine
		if err := rows.Scan(&l.ID, &l.HeaderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.UnitCost,
			&l.LineTotal, &l.LineCost); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) DeletePurchaseLines(ctx context.Context, purchaseID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM purchase_lines WHERE purchase_id = $1`, purchaseID)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, display_name, email, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.Username, user.Password, user.Role, user.DisplayName, user.Email, user.Active, user.CreatedAt)
	return mapWriteError(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, display_name, email, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.DisplayName, &u.Email, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE username = $1`, username, password)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Store) updateStatus(ctx context.Context, query string, id string, status string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// deleteByID reports a row still referenced by a foreign key as ErrInUse.
func (s *Store) deleteByID(ctx context.Context, query string, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: %s", store.ErrInUse, pgErr.ConstraintName)
		}
		return mapWriteError(err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// mapWriteError turns constraint violations into store sentinels. A negative
// stock from the sale line trigger surfaces as ErrInsufficientStock.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	case "23503":
		return fmt.Errorf("%w: %s", store.ErrNotFound, pgErr.ConstraintName)
	case "23514":
		if pgErr.ConstraintName == "products_stock_non_negative" {
			return store.ErrInsufficientStock
		}
	}
	return err
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

var _ store.Repository = (*Store)(nil)
