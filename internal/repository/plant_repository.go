package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

const plantColumns = "id, user_id, nickname, species, pest_id, met_on, location, created_at, updated_at"

// PlantRepo persists plants and answers the keyset listing of a user's
// plants ordered by (created_at DESC, id DESC).
type PlantRepo struct{ DB *sqlx.DB }

func NewPlantRepo(db *sqlx.DB) *PlantRepo { return &PlantRepo{DB: db} }

func PlantKey(p model.Plant) pagination.Key { return pagination.Key{p.CreatedAt, p.ID} }

func (r *PlantRepo) Create(ctx context.Context, p model.Plant) error {
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO plants (`+plantColumns+`)
		 VALUES (:id, :user_id, :nickname, :species, :pest_id, :met_on, :location, :created_at, :updated_at)`, p)
	return insertErr(err)
}

func (r *PlantRepo) Get(ctx context.Context, id string) (model.Plant, error) {
	var p model.Plant
	err := r.DB.GetContext(ctx, &p, "SELECT "+plantColumns+" FROM plants WHERE id = ?", id)
	return p, notFound(err)
}

func (r *PlantRepo) Update(ctx context.Context, p model.Plant) error {
	res, err := r.DB.NamedExecContext(ctx,
		`UPDATE plants SET nickname = :nickname, species = :species, pest_id = :pest_id, met_on = :met_on,
		 location = :location, updated_at = :updated_at WHERE id = :id`, p)
	return affected(res, err)
}

// Delete removes a plant with its readings and images and returns the
// relative paths of the removed image files.
func (r *PlantRepo) Delete(ctx context.Context, id string) (paths []string, err error) {
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

	if err = tx.SelectContext(ctx, &paths,
		"SELECT rel_path FROM images WHERE owner_kind = ? AND owner_id = ?", model.OwnerPlant, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM images WHERE owner_kind = ? AND owner_id = ?", model.OwnerPlant, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM humidity_readings WHERE plant_id = ?", id); err != nil {
		return nil, err
	}
	if err = affected(tx.ExecContext(ctx, "DELETE FROM plants WHERE id = ?", id)); err != nil {
		return nil, err
	}
	return paths, nil
}

// ListByUser returns one page of the user's plants, newest first.
func (r *PlantRepo) ListByUser(ctx context.Context, userID string, req pagination.Request) (pagination.Page[model.Plant], error) {
	seek, args := seekTimeID(req.Cursor, "created_at", "id")
	q := "SELECT " + plantColumns + " FROM plants WHERE user_id = ?" + seek +
		" ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append([]any{userID}, args...)
	args = append(args, req.Limit+1)

	var rows []model.Plant
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return pagination.Page[model.Plant]{}, err
	}
	return pagination.Window(rows, req.Limit, PlantKey), nil
}
