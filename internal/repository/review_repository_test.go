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

func TestReviewCreateRecomputesAverage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE id=? FOR UPDATE")).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).WithArgs(uint64(5), uint64(2), "Ali", 4, "tasty").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rating FROM reviews WHERE product_id=?")).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(5).AddRow(4).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET total_review=?, average_rating=? WHERE id=?")).
		WithArgs(3, 4.333, uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews WHERE id=?")).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "user_id", "name", "rating", "comment", "created_at"}).
			AddRow(11, 5, 2, "Ali", 4, "tasty", time.Now()))
	mock.ExpectCommit()

	rv, err := repo.Create(context.Background(), 2, NewReview{ProductID: 5, Name: "Ali", Rating: 4, Comment: "tasty"})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), rv.ID)
	assert.Equal(t, 4, rv.Rating)
}

func TestReviewCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO reviews").WillReturnError(dupErr("uq_reviews_user_product"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 2, NewReview{ProductID: 5, Rating: 4})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestReviewCreateUnknownProduct(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 2, NewReview{ProductID: 5, Rating: 4})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
