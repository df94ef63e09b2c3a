package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryRow(id uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "image_path", "telegram_file_id", "created_at"}).
		AddRow(id, "Drinks", "categories/d.png", "AgAD", time.Now())
}

func TestCategoryDeleteBlockedByProducts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id=?")).WithArgs(uint64(2)).WillReturnRows(categoryRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products WHERE category_id=?")).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))

	_, err := repo.Delete(context.Background(), 2)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCategoryDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id=?")).WillReturnRows(categoryRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id=?")).WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, c.TelegramFileID)
	assert.Equal(t, "AgAD", *c.TelegramFileID)
}

func TestCategoryGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectQuery("FROM categories").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
