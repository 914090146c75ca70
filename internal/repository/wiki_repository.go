package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

const (
	plantWikiColumns = "id, species, wiki_img, sunlight, watering, flowering, fertilizer, toxic"
	pestWikiColumns  = "id, pest_id, cause, cure"
)

// WikiRepo serves the public plant and pest reference tables. Both are
// listed by id descending.
type WikiRepo struct{ DB *sqlx.DB }

func NewWikiRepo(db *sqlx.DB) *WikiRepo { return &WikiRepo{DB: db} }

func PlantWikiKey(w model.PlantWiki) pagination.Key { return pagination.Key{w.ID} }
func PestWikiKey(w model.PestWiki) pagination.Key   { return pagination.Key{w.ID} }

// CreatePlant inserts w and fills in its generated id.
func (r *WikiRepo) CreatePlant(ctx context.Context, w *model.PlantWiki) error {
	res, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO plant_wiki (species, wiki_img, sunlight, watering, flowering, fertilizer, toxic)
		 VALUES (:species, :wiki_img, :sunlight, :watering, :flowering, :fertilizer, :toxic)`, w)
	if isDuplicate(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	w.ID, err = res.LastInsertId()
	return err
}

func (r *WikiRepo) GetPlant(ctx context.Context, id int64) (model.PlantWiki, error) {
	var w model.PlantWiki
	err := r.DB.GetContext(ctx, &w, "SELECT "+plantWikiColumns+" FROM plant_wiki WHERE id = ?", id)
	return w, notFound(err)
}

func (r *WikiRepo) GetPlantBySpecies(ctx context.Context, species string) (model.PlantWiki, error) {
	var w model.PlantWiki
	err := r.DB.GetContext(ctx, &w, "SELECT "+plantWikiColumns+" FROM plant_wiki WHERE species = ?", species)
	return w, notFound(err)
}

func (r *WikiRepo) UpdatePlant(ctx context.Context, w model.PlantWiki) error {
	res, err := r.DB.NamedExecContext(ctx,
		`UPDATE plant_wiki SET species = :species, wiki_img = :wiki_img, sunlight = :sunlight, watering = :watering,
		 flowering = :flowering, fertilizer = :fertilizer, toxic = :toxic WHERE id = :id`, w)
	if isDuplicate(err) {
		return ErrConflict
	}
	return affected(res, err)
}

func (r *WikiRepo) DeletePlant(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, "DELETE FROM plant_wiki WHERE id = ?", id))
}

func (r *WikiRepo) ListPlants(ctx context.Context, req pagination.Request) (pagination.Page[model.PlantWiki], error) {
	seek, args := seekInt64(req.Cursor, "id")
	q := "SELECT " + plantWikiColumns + " FROM plant_wiki WHERE 1 = 1" + seek + " ORDER BY id DESC LIMIT ?"
	args = append(args, req.Limit+1)

	var rows []model.PlantWiki
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return pagination.Page[model.PlantWiki]{}, err
	}
	return pagination.Window(rows, req.Limit, PlantWikiKey), nil
}

// CreatePest inserts w and fills in its generated id.
func (r *WikiRepo) CreatePest(ctx context.Context, w *model.PestWiki) error {
	res, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO pest_wiki (pest_id, cause, cure) VALUES (:pest_id, :cause, :cure)`, w)
	if isDuplicate(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	w.ID, err = res.LastInsertId()
	return err
}

func (r *WikiRepo) GetPest(ctx context.Context, id int64) (model.PestWiki, error) {
	var w model.PestWiki
	err := r.DB.GetContext(ctx, &w, "SELECT "+pestWikiColumns+" FROM pest_wiki WHERE id = ?", id)
	return w, notFound(err)
}

func (r *WikiRepo) GetPestByPestID(ctx context.Context, pestID string) (model.PestWiki, error) {
	var w model.PestWiki
	err := r.DB.GetContext(ctx, &w, "SELECT "+pestWikiColumns+" FROM pest_wiki WHERE pest_id = ?", pestID)
	return w, notFound(err)
}

func (r *WikiRepo) UpdatePest(ctx context.Context, w model.PestWiki) error {
	res, err := r.DB.NamedExecContext(ctx,
		`UPDATE pest_wiki SET pest_id = :pest_id, cause = :cause, cure = :cure WHERE id = :id`, w)
	if isDuplicate(err) {
		return ErrConflict
	}
	return affected(res, err)
}

func (r *WikiRepo) DeletePest(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, "DELETE FROM pest_wiki WHERE id = ?", id))
}

func (r *WikiRepo) ListPests(ctx context.Context, req pagination.Request) (pagination.Page[model.PestWiki], error) {
	seek, args := seekInt64(req.Cursor, "id")
	q := "SELECT " + pestWikiColumns + " FROM pest_wiki WHERE 1 = 1" + seek + " ORDER BY id DESC LIMIT ?"
	args = append(args, req.Limit+1)

	var rows []model.PestWiki
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return pagination.Page[model.PestWiki]{}, err
	}
	return pagination.Window(rows, req.Limit, PestWikiKey), nil
}
