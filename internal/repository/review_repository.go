package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/gusto-eats/internal/model"
)

// ReviewRepo stores product reviews and keeps the product's review count
// and average rating in step with them.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// NewReview is the client-supplied part of a review.
type NewReview struct {
	ProductID uint64
	Name      string
	Rating    int
	Comment   string
}

// Create inserts a review and recomputes the product aggregates in one
// transaction.  The product row is locked first so concurrent reviews of
// the same product serialize on the recomputation.
func (r *ReviewRepo) Create(ctx context.Context, userID uint64, in NewReview) (model.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Review{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var pid uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM products WHERE id=? FOR UPDATE", in.ProductID).Scan(&pid)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrProductNotFound
	}
	if err != nil {
		return model.Review{}, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (product_id, user_id, name, rating, comment) VALUES (?,?,?,?,?)",
		in.ProductID, userID, in.Name, in.Rating, in.Comment)
	if err != nil {
		if isDuplicate(err) {
			return model.Review{}, ErrDuplicateReview
		}
		return model.Review{}, fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}

	if err := recomputeRating(ctx, tx, in.ProductID); err != nil {
		return model.Review{}, err
	}

	rv, err := scanReview(tx.QueryRowContext(ctx, "SELECT "+reviewCols+" FROM reviews WHERE id=?", id))
	if err != nil {
		return model.Review{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Review{}, err
	}
	committed = true
	return rv, nil
}

// recomputeRating rewrites total_review and average_rating from the
// product's current reviews.
func recomputeRating(ctx context.Context, tx *sql.Tx, productID uint64) error {
	rows, err := tx.QueryContext(ctx, "SELECT rating FROM reviews WHERE product_id=?", productID)
	if err != nil {
		return err
	}
	var ratings []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		ratings = append(ratings, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "UPDATE products SET total_review=?, average_rating=? WHERE id=?",
		len(ratings), model.AverageRating(ratings), productID)
	return err
}

// ListByProduct returns a product's reviews, newest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id=?", productID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return listReviews(ctx, r.db, productID)
}

const reviewCols = "id,product_id,user_id,name,rating,comment,created_at"

func scanReview(s rowScanner) (model.Review, error) {
	var rv model.Review
	err := s.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

func listReviews(ctx context.Context, q queryer, productID uint64) ([]model.Review, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+reviewCols+" FROM reviews WHERE product_id=? ORDER BY created_at DESC, id DESC", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
