package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
)

const userColumns = "id, handle, email, password_hash, nickname, phone, avatar_url, created_at, updated_at"

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u. Email and handle collisions surface as ErrEmailExists
// and ErrHandleExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :handle, :email, :password_hash, :nickname, :phone, :avatar_url, :created_at, :updated_at)`, u)
	if isDuplicate(err) {
		return duplicateUserErr(err)
	}
	return err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return u, notFound(err)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	return u, notFound(err)
}

// Update rewrites the mutable profile columns of u.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.DB.NamedExecContext(ctx,
		`UPDATE users SET handle = :handle, password_hash = :password_hash, nickname = :nickname,
		 phone = :phone, avatar_url = :avatar_url, updated_at = :updated_at WHERE id = :id`, u)
	if isDuplicate(err) {
		return duplicateUserErr(err)
	}
	return affected(res, err)
}

// Delete removes the user together with everything they own, in one
// transaction. It returns the relative paths of the image files that were
// attached to the removed rows so the caller can delete them from disk.
func (r *UserRepo) Delete(ctx context.Context, id string) (paths []string, err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists int
	if err = tx.GetContext(ctx, &exists, "SELECT COUNT(*) FROM users WHERE id = ?", id); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}
	if err = tx.SelectContext(ctx, &paths, "SELECT rel_path FROM images WHERE user_id = ?", id); err != nil {
		return nil, err
	}
	for _, q := range []string{
		"DELETE FROM images WHERE user_id = ?",
		"DELETE FROM humidity_readings WHERE plant_id IN (SELECT id FROM plants WHERE user_id = ?)",
		"DELETE FROM plants WHERE user_id = ?",
		"DELETE FROM diaries WHERE user_id = ?",
		"DELETE FROM user_preferences WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
