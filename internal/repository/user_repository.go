package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/gusto-eats/internal/model"
	"github.com/iliyamo/gusto-eats/internal/utils"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = "id,chat_id,phone_number,first_name,last_name,gender,password_hash,is_active,is_staff,is_superuser,created_at,updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u           model.User
		chatID      sql.NullInt64
		first, last sql.NullString
		gender      sql.NullString
	)
	err := s.Scan(&u.ID, &chatID, &u.PhoneNumber, &first, &last, &gender, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if chatID.Valid {
		id := chatID.Int64
		u.ChatID = &id
	}
	u.FirstName, u.LastName, u.Gender = first.String, last.String, gender.String
	return u, nil
}

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

// NewUser carries the fields needed to create an account.
type NewUser struct {
	ChatID      *int64
	PhoneNumber string
	Password    string
	FirstName   string
	LastName    string
	Gender      string
	IsStaff     bool
	IsSuperuser bool
}

// Create hashes the password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	var chat sql.NullInt64
	if in.ChatID != nil {
		chat = sql.NullInt64{Int64: *in.ChatID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (chat_id, phone_number, first_name, last_name, gender, password_hash, is_staff, is_superuser) VALUES (?,?,?,?,?,?,?,?)",
		chat, in.PhoneNumber, nullStr(in.FirstName), nullStr(in.LastName), nullStr(in.Gender), hash, in.IsStaff, in.IsSuperuser)
	if err != nil {
		if isDuplicate(err) {
			if strings.Contains(err.Error(), "uq_users_chat") {
				return model.User{}, ErrChatLinked
			}
			return model.User{}, ErrPhoneExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE "+where+" LIMIT 1", arg))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

// GetByPhone fetches a user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.getOne(ctx, "phone_number=?", phone)
}

// GetByChatID fetches the account linked to a Telegram chat.
func (r *UserRepo) GetByChatID(ctx context.Context, chatID int64) (model.User, error) {
	return r.getOne(ctx, "chat_id=?", chatID)
}

// IsActive reports whether the account exists and is enabled.
func (r *UserRepo) IsActive(ctx context.Context, id uint64) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx, "SELECT is_active FROM users WHERE id=?", id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return active, err
}

// List returns users ordered by id.
func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserPatch lists optional changes; nil fields are left untouched.
type UserPatch struct {
	PhoneNumber *string
	Password    *string
	FirstName   *string
	LastName    *string
	Gender      *string
	IsActive    *bool
	IsStaff     *bool
}

// Update applies p to user id and returns the updated row.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch, cost int) (model.User, error) {
	var (
		sets []string
		args []any
	)
	if p.PhoneNumber != nil {
		sets, args = append(sets, "phone_number=?"), append(args, *p.PhoneNumber)
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password, cost)
		if err != nil {
			return model.User{}, err
		}
		sets, args = append(sets, "password_hash=?"), append(args, hash)
	}
	if p.FirstName != nil {
		sets, args = append(sets, "first_name=?"), append(args, nullStr(*p.FirstName))
	}
	if p.LastName != nil {
		sets, args = append(sets, "last_name=?"), append(args, nullStr(*p.LastName))
	}
	if p.Gender != nil {
		sets, args = append(sets, "gender=?"), append(args, nullStr(*p.Gender))
	}
	if p.IsActive != nil {
		sets, args = append(sets, "is_active=?"), append(args, *p.IsActive)
	}
	if p.IsStaff != nil {
		sets, args = append(sets, "is_staff=?"), append(args, *p.IsStaff)
	}
	if len(sets) > 0 {
		args = append(args, id)
		// MySQL reports 0 affected rows for unchanged values, so existence
		// is settled by the read below.
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
			if isDuplicate(err) {
				return model.User{}, ErrPhoneExists
			}
			return model.User{}, fmt.Errorf("update user: %w", err)
		}
	}
	return r.GetByID(ctx, id)
}

// LinkChat binds a Telegram chat to an existing account.
func (r *UserRepo) LinkChat(ctx context.Context, id uint64, chatID int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET chat_id=? WHERE id=?", chatID, id)
	if isDuplicate(err) {
		return ErrChatLinked
	}
	return err
}

// Delete removes a user.  Reviews, orders and refresh tokens cascade.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
