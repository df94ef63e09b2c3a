// Package repository holds the MySQL data access layer.  Repositories
// return the sentinel values below, usually wrapped with context, so that
// handlers and the chat bot can map failures with errors.Is.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound means the addressed row does not exist.  Handlers translate
// it into a 404 response.
var ErrNotFound = errors.New("not found")

// Not-found variants name the missing entity in the error text.
var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else (HTTP 403).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed because
// of dependent rows, such as deleting a category that still has products
// (HTTP 409).
var ErrConflict = errors.New("conflict")

var (
	ErrPhoneExists       = fmt.Errorf("phone number already registered: %w", ErrConflict)
	ErrChatLinked        = fmt.Errorf("chat already linked to an account: %w", ErrConflict)
	ErrDuplicateReview   = fmt.Errorf("product already reviewed by this user: %w", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("status transition not allowed: %w", ErrConflict)
)

// ErrInvalidQuantity rejects order lines with a quantity below one (400).
var ErrInvalidQuantity = errors.New("quantity must be positive")

// ErrEmptyOrder rejects orders without lines (400).
var ErrEmptyOrder = errors.New("order has no items")

// ErrInsufficientStock is the sentinel behind StockError.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockError reports which product could not satisfy an order line.
type StockError struct {
	ProductID uint64
	Name      string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// isDuplicate reports whether err is a MySQL unique-key violation (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isForeignKey reports whether err is a MySQL foreign key violation on
// delete (1451) or insert (1452).
func isForeignKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1451 || me.Number == 1452)
}
