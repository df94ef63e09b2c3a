package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/gusto-eats/internal/model"
)

// CategoryRepo provides CRUD operations for menu categories.
type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = "id,name,image_path,telegram_file_id,created_at"

func scanCategory(s rowScanner) (model.Category, error) {
	var (
		c      model.Category
		fileID sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &c.ImagePath, &fileID, &c.CreatedAt); err != nil {
		return c, err
	}
	if fileID.Valid {
		c.TelegramFileID = &fileID.String
	}
	return c, nil
}

// Create inserts a category and returns it.
func (r *CategoryRepo) Create(ctx context.Context, name, imagePath string) (model.Category, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name, image_path) VALUES (?,?)", name, imagePath)
	if err != nil {
		return model.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, err
	}
	return r.Get(ctx, uint64(id))
}

// Get returns one category or ErrCategoryNotFound.
func (r *CategoryRepo) Get(ctx context.Context, id uint64) (model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, "SELECT "+categoryCols+" FROM categories WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCategoryNotFound
	}
	return c, err
}

// List returns all categories ordered by id.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+categoryCols+" FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update changes the name and/or image.  A new image clears the cached
// Telegram file id.
func (r *CategoryRepo) Update(ctx context.Context, id uint64, name, imagePath *string) (model.Category, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return model.Category{}, err
	}
	if name != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE categories SET name=? WHERE id=?", *name, id); err != nil {
			return model.Category{}, err
		}
	}
	if imagePath != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE categories SET image_path=?, telegram_file_id=NULL WHERE id=?", *imagePath, id); err != nil {
			return model.Category{}, err
		}
	}
	return r.Get(ctx, id)
}

// Delete removes a category.  It returns ErrConflict while products still
// reference it.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) (model.Category, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return c, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE category_id=?", id).Scan(&n); err != nil {
		return c, err
	}
	if n > 0 {
		return c, fmt.Errorf("category has %d products: %w", n, ErrConflict)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id=?", id); err != nil {
		if isForeignKey(err) {
			return c, fmt.Errorf("category in use: %w", ErrConflict)
		}
		return c, err
	}
	return c, nil
}

// SetTelegramFileID caches the file id Telegram assigned to the image.
func (r *CategoryRepo) SetTelegramFileID(ctx context.Context, id uint64, fileID string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE categories SET telegram_file_id=? WHERE id=?", fileID, id)
	return err
}
