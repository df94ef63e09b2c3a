package repository

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gusto-eats/internal/model"
)

var lockProduct = regexp.QuoteMeta("SELECT name, discounted_price, count_in_stock FROM products WHERE id=? FOR UPDATE")

func stockRow(name, price string, stock int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"name", "discounted_price", "count_in_stock"}).AddRow(name, price, stock)
}

func TestMergeLines(t *testing.T) {
	got, err := mergeLines([]model.OrderLine{{ProductID: 9, Quantity: 1}, {ProductID: 2, Quantity: 2}, {ProductID: 9, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, []model.OrderLine{{ProductID: 2, Quantity: 2}, {ProductID: 9, Quantity: 4}}, got)

	_, err = mergeLines(nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
	_, err = mergeLines([]model.OrderLine{{ProductID: 1, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = mergeLines([]model.OrderLine{{ProductID: 1, Quantity: math.MaxInt}, {ProductID: 1, Quantity: math.MaxInt}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = mergeLines([]model.OrderLine{{ProductID: 1, Quantity: maxLineQuantity}, {ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	got, err = mergeLines([]model.OrderLine{{ProductID: 1, Quantity: maxLineQuantity - 1}, {ProductID: 1, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, []model.OrderLine{{ProductID: 1, Quantity: maxLineQuantity}}, got)
}

func TestPlaceOrderRejectsOverflowingQuantity(t *testing.T) {
	db, _ := newMock(t)
	repo := NewOrderRepo(db)

	_, err := repo.Place(context.Background(), 4, []model.OrderLine{{ProductID: 1, Quantity: math.MaxInt}, {ProductID: 1, Quantity: math.MaxInt}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlaceOrderLocksInIDOrderAndTotals(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockProduct).WithArgs(uint64(2)).WillReturnRows(stockRow("Cola", "8000.00", 10))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET count_in_stock = count_in_stock - ?")).WithArgs(3, uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(lockProduct).WithArgs(uint64(7)).WillReturnRows(stockRow("Plov", "22500.00", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET count_in_stock = count_in_stock - ?")).WithArgs(1, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WithArgs(uint64(4), "46500", model.OrderPending).
		WillReturnResult(sqlmock.NewResult(30, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?),(?, ?, ?, ?)")).
		WithArgs(uint64(30), uint64(2), 3, "8000", uint64(30), uint64(7), 1, "22500").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	o, err := repo.Place(context.Background(), 4, []model.OrderLine{{ProductID: 7, Quantity: 1}, {ProductID: 2, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, uint64(30), o.ID)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(46500)))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Cola", o.Items[0].ProductName)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockProduct).WithArgs(uint64(2)).WillReturnRows(stockRow("Cola", "8000.00", 10))
	mock.ExpectExec("UPDATE products SET count_in_stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(lockProduct).WithArgs(uint64(7)).WillReturnRows(stockRow("Plov", "22500.00", 1))
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), 4, []model.OrderLine{{ProductID: 2, Quantity: 1}, {ProductID: 7, Quantity: 2}})
	require.ErrorIs(t, err, ErrInsufficientStock)
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, uint64(7), se.ProductID)
	assert.Equal(t, 1, se.Available)
	assert.Equal(t, 2, se.Requested)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockProduct).WithArgs(uint64(99)).WillReturnRows(sqlmock.NewRows([]string{"name", "discounted_price", "count_in_stock"}))
	mock.ExpectRollback()

	_, err := repo.Place(context.Background(), 4, []model.OrderLine{{ProductID: 99, Quantity: 1}})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

var orderColumns = []string{"id", "user_id", "total_price", "status", "created_at", "updated_at", "paid_at"}
var itemColumns = []string{"id", "order_id", "product_id", "name", "image_path", "file_id", "quantity", "unit_price"}

func TestUpdateStatusCancelRestocks(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id=? FOR UPDATE")).WithArgs(uint64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("paid"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id=? GROUP BY product_id")).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "qty"}).AddRow(2, 3).AddRow(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("count_in_stock = count_in_stock + ?")).WithArgs(3, uint64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("count_in_stock = count_in_stock + ?")).WithArgs(1, uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status=? WHERE id=?")).WithArgs("cancelled", uint64(30)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=?")).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(30, 4, "46500.00", "cancelled", now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(1, 30, 2, "Cola", "p/c.png", "", 3, "8000.00"))

	o, err := repo.UpdateStatus(context.Background(), 30, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, o.Status)
	require.Len(t, o.Items, 1)
	assert.NotNil(t, o.PaidAt)
}

func TestUpdateStatusRejectsTransition(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("delivered"))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), 30, model.OrderPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetForUserForbidden(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=?")).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(30, 4, "10.00", "pending", now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).WillReturnRows(sqlmock.NewRows(itemColumns))

	_, err := repo.GetForUser(context.Background(), 30, 5)
	assert.ErrorIs(t, err, ErrForbidden)
}
