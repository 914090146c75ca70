package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

type HumidityRepo struct{ DB *sqlx.DB }

func NewHumidityRepo(db *sqlx.DB) *HumidityRepo { return &HumidityRepo{DB: db} }

func HumidityKey(h model.HumidityReading) pagination.Key { return pagination.Key{h.MeasuredAt} }

// Insert stores h. When a reading for the same (plant, measured_at) already
// exists the stored row is returned and created is false.
func (r *HumidityRepo) Insert(ctx context.Context, h model.HumidityReading) (model.HumidityReading, bool, error) {
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO humidity_readings (plant_id, measured_at, humidity) VALUES (:plant_id, :measured_at, :humidity)`, h)
	if err == nil {
		return h, true, nil
	}
	if !isDuplicate(err) {
		return model.HumidityReading{}, false, insertErr(err)
	}
	var existing model.HumidityReading
	err = r.DB.GetContext(ctx, &existing,
		"SELECT plant_id, measured_at, humidity FROM humidity_readings WHERE plant_id = ? AND measured_at = ?",
		h.PlantID, h.MeasuredAt)
	return existing, false, notFound(err)
}

// ListByPlant pages through the readings of a plant, newest first.
func (r *HumidityRepo) ListByPlant(ctx context.Context, plantID string, req pagination.Request) (pagination.Page[model.HumidityReading], error) {
	seek, args := seekTime(req.Cursor, "measured_at")
	q := "SELECT plant_id, measured_at, humidity FROM humidity_readings WHERE plant_id = ?" + seek +
		" ORDER BY measured_at DESC LIMIT ?"
	args = append([]any{plantID}, args...)
	args = append(args, req.Limit+1)

	var rows []model.HumidityReading
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return pagination.Page[model.HumidityReading]{}, err
	}
	return pagination.Window(rows, req.Limit, HumidityKey), nil
}

// Latest returns the most recent reading of a plant, nil when there is none.
func (r *HumidityRepo) Latest(ctx context.Context, plantID string) (*model.HumidityReading, error) {
	var h model.HumidityReading
	err := r.DB.GetContext(ctx, &h,
		"SELECT plant_id, measured_at, humidity FROM humidity_readings WHERE plant_id = ? ORDER BY measured_at DESC LIMIT 1",
		plantID)
	if err = notFound(err); err == ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &h, nil
}
