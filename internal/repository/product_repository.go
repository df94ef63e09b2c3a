package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/gusto-eats/internal/model"
)

// ProductRepo provides CRUD operations for products.  The discounted price
// column is always written together with price and discount so the two can
// never drift apart.
type ProductRepo struct{ db *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = "id,category_id,name,description,type,price,discount,discounted_price,count_in_stock,total_review,average_rating,image_path,telegram_file_id,created_at,updated_at"

func scanProduct(s rowScanner) (model.Product, error) {
	var (
		p      model.Product
		fileID sql.NullString
	)
	err := s.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Type, &p.Price, &p.Discount,
		&p.DiscountedPrice, &p.CountInStock, &p.TotalReview, &p.AverageRating, &p.ImagePath, &fileID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if fileID.Valid {
		p.TelegramFileID = &fileID.String
	}
	return p, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewProduct carries the fields needed to create a product.
type NewProduct struct {
	CategoryID   uint64
	Name         string
	Description  string
	Type         string
	Price        decimal.Decimal
	Discount     int
	CountInStock int
	ImagePath    string
}

// Create inserts a product.  ErrCategoryNotFound is returned for an
// unknown category.
func (r *ProductRepo) Create(ctx context.Context, in NewProduct) (model.Product, error) {
	if err := categoryExists(ctx, r.db, in.CategoryID); err != nil {
		return model.Product{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (category_id, name, description, type, price, discount, discounted_price, count_in_stock, image_path) VALUES (?,?,?,?,?,?,?,?,?)",
		in.CategoryID, in.Name, in.Description, in.Type, in.Price, in.Discount,
		model.DiscountedPrice(in.Price, in.Discount), in.CountInStock, in.ImagePath)
	if err != nil {
		if isForeignKey(err) {
			return model.Product{}, ErrCategoryNotFound
		}
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Product{}, err
	}
	return r.Get(ctx, uint64(id))
}

func categoryExists(ctx context.Context, q queryer, id uint64) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id=?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCategoryNotFound
	}
	return err
}

// Get returns one product or ErrProductNotFound.
func (r *ProductRepo) Get(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProductNotFound
	}
	return p, err
}

// GetDetail returns a product with its category and reviews.
func (r *ProductRepo) GetDetail(ctx context.Context, id uint64) (model.ProductDetail, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return model.ProductDetail{}, err
	}
	d := model.ProductDetail{Product: p}
	c, err := scanCategory(r.db.QueryRowContext(ctx, "SELECT "+categoryCols+" FROM categories WHERE id=?", p.CategoryID))
	switch {
	case err == nil:
		d.Category = &c
	case !errors.Is(err, sql.ErrNoRows):
		return d, err
	}
	d.Reviews, err = listReviews(ctx, r.db, id)
	return d, err
}

// List returns products ordered by id, optionally filtered by category.
func (r *ProductRepo) List(ctx context.Context, categoryID uint64) ([]model.Product, error) {
	q := "SELECT " + productCols + " FROM products"
	var args []any
	if categoryID > 0 {
		q += " WHERE category_id=?"
		args = append(args, categoryID)
	}
	return r.query(ctx, q+" ORDER BY id", args...)
}

// TopRated returns the best rated products, most reviewed first on ties.
func (r *ProductRepo) TopRated(ctx context.Context, limit int) ([]model.Product, error) {
	return r.query(ctx, "SELECT "+productCols+" FROM products ORDER BY average_rating DESC, total_review DESC, id LIMIT ?", limit)
}

func (r *ProductRepo) query(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProductPatch lists optional changes; nil fields are left untouched.
type ProductPatch struct {
	CategoryID   *uint64
	Name         *string
	Description  *string
	Type         *string
	Price        *decimal.Decimal
	Discount     *int
	CountInStock *int
	ImagePath    *string
}

// Update applies p under a row lock and recomputes the discounted price from
// the resulting price and discount.
func (r *ProductRepo) Update(ctx context.Context, id uint64, p ProductPatch) (model.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Product{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanProduct(tx.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id=? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	if p.CategoryID != nil && *p.CategoryID != cur.CategoryID {
		if err := categoryExists(ctx, tx, *p.CategoryID); err != nil {
			return model.Product{}, err
		}
		cur.CategoryID = *p.CategoryID
	}
	if p.Name != nil {
		cur.Name = *p.Name
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.Type != nil {
		cur.Type = *p.Type
	}
	if p.Price != nil {
		cur.Price = *p.Price
	}
	if p.Discount != nil {
		cur.Discount = *p.Discount
	}
	if p.CountInStock != nil {
		cur.CountInStock = *p.CountInStock
	}
	fileID := cur.TelegramFileID
	if p.ImagePath != nil {
		cur.ImagePath = *p.ImagePath
		fileID = nil
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE products SET category_id=?, name=?, description=?, type=?, price=?, discount=?, discounted_price=?, count_in_stock=?, image_path=?, telegram_file_id=? WHERE id=?",
		cur.CategoryID, cur.Name, cur.Description, cur.Type, cur.Price, cur.Discount,
		model.DiscountedPrice(cur.Price, cur.Discount), cur.CountInStock, cur.ImagePath, fileID, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Product{}, err
	}
	committed = true
	return r.Get(ctx, id)
}

// Delete removes a product and, by cascade, its reviews.  Products that
// appear in orders cannot be deleted.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) (model.Product, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return p, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items WHERE product_id=?", id).Scan(&n); err != nil {
		return p, err
	}
	if n > 0 {
		return p, fmt.Errorf("product is part of %d order items: %w", n, ErrConflict)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id); err != nil {
		if isForeignKey(err) {
			return p, fmt.Errorf("product in use: %w", ErrConflict)
		}
		return p, err
	}
	return p, nil
}

// SetTelegramFileID caches the file id Telegram assigned to the image.
func (r *ProductRepo) SetTelegramFileID(ctx context.Context, id uint64, fileID string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE products SET telegram_file_id=? WHERE id=?", fileID, id)
	return err
}

// ByIDs returns the products with the given ids keyed by id.  Unknown ids
// are absent from the map.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Product, error) {
	out := make(map[uint64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT " + productCols + " FROM products WHERE id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
	list, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}
