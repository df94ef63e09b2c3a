package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/gusto-eats/internal/model"
)

// OrderRepo places orders and manages their lifecycle.  All stock changes
// happen inside the same transaction as the order rows they belong to.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// maxLineQuantity is the largest quantity order_items.quantity (INT) holds.
const maxLineQuantity = math.MaxInt32

// mergeLines validates quantities and folds repeated products into one
// line.  Merged quantities must stay within maxLineQuantity.  The result
// is sorted by product id, which is also the lock order.
func mergeLines(lines []model.OrderLine) ([]model.OrderLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	qty := make(map[uint64]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > maxLineQuantity-qty[l.ProductID] {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, ErrInvalidQuantity)
		}
		qty[l.ProductID] += l.Quantity
	}
	out := make([]model.OrderLine, 0, len(qty))
	for id, q := range qty {
		out = append(out, model.OrderLine{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Place creates an order for userID.  Within one transaction every product
// row is locked with SELECT ... FOR UPDATE in ascending id order, checked
// for existence and stock, and decremented; the order and its items are
// then inserted with prices taken from the locked rows.  Any failure rolls
// the whole order back.
func (r *OrderRepo) Place(ctx context.Context, userID uint64, lines []model.OrderLine) (model.Order, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return model.Order{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	items := make([]model.OrderItem, 0, len(merged))
	for _, l := range merged {
		var (
			name  string
			price decimal.Decimal
			stock int
		)
		err := tx.QueryRowContext(ctx,
			"SELECT name, discounted_price, count_in_stock FROM products WHERE id=? FOR UPDATE",
			l.ProductID).Scan(&name, &price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, fmt.Errorf("product %d: %w", l.ProductID, ErrProductNotFound)
		}
		if err != nil {
			return model.Order{}, err
		}
		if stock < l.Quantity {
			return model.Order{}, &StockError{ProductID: l.ProductID, Name: name, Available: stock, Requested: l.Quantity}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET count_in_stock = count_in_stock - ? WHERE id=?", l.Quantity, l.ProductID); err != nil {
			return model.Order{}, fmt.Errorf("decrement stock: %w", err)
		}
		items = append(items, model.OrderItem{ProductID: l.ProductID, ProductName: name, Quantity: l.Quantity, UnitPrice: price})
	}

	total := model.OrderTotal(items)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, total_price, status) VALUES (?,?,?)",
		userID, total, model.OrderPending)
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Order{}, err
	}
	orderID := uint64(id)

	query := "INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES "
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, orderID, it.ProductID, it.Quantity, it.UnitPrice)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return model.Order{}, fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	committed = true

	now := time.Now().UTC()
	for i := range items {
		items[i].OrderID = orderID
	}
	return model.Order{
		ID:         orderID,
		UserID:     userID,
		TotalPrice: total,
		Status:     model.OrderPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      items,
	}, nil
}

const orderCols = "id,user_id,total_price,status,created_at,updated_at,paid_at"

func scanOrder(s rowScanner) (model.Order, error) {
	var (
		o      model.Order
		paidAt sql.NullTime
	)
	if err := s.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt, &paidAt); err != nil {
		return o, err
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	o.Items = []model.OrderItem{}
	return o, nil
}

// Get returns one order with its items.
func (r *OrderRepo) Get(ctx context.Context, id uint64) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderCols+" FROM orders WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	if err != nil {
		return o, err
	}
	list := []model.Order{o}
	if err := r.attachItems(ctx, list); err != nil {
		return o, err
	}
	return list[0], nil
}

// GetForUser returns an order owned by userID.  Orders of other users
// yield ErrForbidden.
func (r *OrderRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return o, err
	}
	if o.UserID != userID {
		return model.Order{}, ErrForbidden
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first, with items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderCols+" FROM orders WHERE user_id=? ORDER BY id DESC", userID)
}

// ListAll returns every order, newest first.
func (r *OrderRepo) ListAll(ctx context.Context, skip, limit int) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderCols+" FROM orders ORDER BY id DESC LIMIT ? OFFSET ?", limit, skip)
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items of all given orders with one query.
func (r *OrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		idx[o.ID] = i
		args[i] = o.ID
	}
	q := `SELECT oi.id, oi.order_id, oi.product_id, p.name, p.image_path, COALESCE(p.telegram_file_id, ''), oi.quantity, oi.unit_price
          FROM order_items oi
          JOIN products p ON p.id = oi.product_id
          WHERE oi.order_id IN (?` + strings.Repeat(",?", len(orders)-1) + `)
          ORDER BY oi.order_id, oi.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ImagePath, &it.FileID, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		if i, ok := idx[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

// UpdateStatus moves an order to status.  Moving to paid stamps paid_at;
// cancelling returns the items to stock in the same transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var cur string
	err = tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id=? FOR UPDATE", id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	if !model.CanTransition(cur, status) {
		return model.Order{}, fmt.Errorf("%s -> %s: %w", cur, status, ErrInvalidTransition)
	}

	if status == model.OrderCancelled {
		if err := restock(ctx, tx, id); err != nil {
			return model.Order{}, err
		}
	}
	q := "UPDATE orders SET status=? WHERE id=?"
	if status == model.OrderPaid {
		q = "UPDATE orders SET status=?, paid_at=UTC_TIMESTAMP() WHERE id=?"
	}
	if _, err := tx.ExecContext(ctx, q, status, id); err != nil {
		return model.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	committed = true
	return r.Get(ctx, id)
}

// restock adds an order's quantities back to its products, locking them in
// ascending id order like Place does.
func restock(ctx context.Context, tx *sql.Tx, orderID uint64) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT product_id, SUM(quantity) FROM order_items WHERE order_id=? GROUP BY product_id ORDER BY product_id", orderID)
	if err != nil {
		return err
	}
	var lines []model.OrderLine
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET count_in_stock = count_in_stock + ? WHERE id=?", l.Quantity, l.ProductID); err != nil {
			return fmt.Errorf("restock product %d: %w", l.ProductID, err)
		}
	}
	return nil
}

// Delete removes an order; its items cascade.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
