package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
)

type PreferencesRepo struct{ DB *sqlx.DB }

func NewPreferencesRepo(db *sqlx.DB) *PreferencesRepo { return &PreferencesRepo{DB: db} }

// Get returns the stored preferences of userID or ErrNotFound.
func (r *PreferencesRepo) Get(ctx context.Context, userID string) (model.Preferences, error) {
	var p model.Preferences
	err := r.DB.GetContext(ctx, &p,
		"SELECT user_id, location_code, location_name, updated_at FROM user_preferences WHERE user_id = ?", userID)
	return p, notFound(err)
}

// Upsert inserts p, or updates the existing row when the user already has
// one. The two statements are portable across MySQL and SQLite.
func (r *PreferencesRepo) Upsert(ctx context.Context, p model.Preferences) error {
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO user_preferences (user_id, location_code, location_name, updated_at)
		 VALUES (:user_id, :location_code, :location_name, :updated_at)`, p)
	if !isDuplicate(err) {
		return insertErr(err)
	}
	_, err = r.DB.NamedExecContext(ctx,
		`UPDATE user_preferences SET location_code = :location_code, location_name = :location_name,
		 updated_at = :updated_at WHERE user_id = :user_id`, p)
	return err
}
