package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

const diaryColumns = "id, user_id, title, content, hashtags, plant_content, weather, created_at, updated_at"

type DiaryRepo struct{ DB *sqlx.DB }

func NewDiaryRepo(db *sqlx.DB) *DiaryRepo { return &DiaryRepo{DB: db} }

func DiaryKey(d model.Diary) pagination.Key { return pagination.Key{d.CreatedAt, d.ID} }

func (r *DiaryRepo) Create(ctx context.Context, d model.Diary) error {
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO diaries (`+diaryColumns+`)
		 VALUES (:id, :user_id, :title, :content, :hashtags, :plant_content, :weather, :created_at, :updated_at)`, d)
	return insertErr(err)
}

func (r *DiaryRepo) Get(ctx context.Context, id string) (model.Diary, error) {
	var d model.Diary
	err := r.DB.GetContext(ctx, &d, "SELECT "+diaryColumns+" FROM diaries WHERE id = ?", id)
	return d, notFound(err)
}

func (r *DiaryRepo) Update(ctx context.Context, d model.Diary) error {
	res, err := r.DB.NamedExecContext(ctx,
		`UPDATE diaries SET title = :title, content = :content, hashtags = :hashtags,
		 plant_content = :plant_content, weather = :weather, updated_at = :updated_at WHERE id = :id`, d)
	return affected(res, err)
}

// Delete removes a diary and its images, returning the image file paths.
func (r *DiaryRepo) Delete(ctx context.Context, id string) (paths []string, err error) {
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
		"SELECT rel_path FROM images WHERE owner_kind = ? AND owner_id = ?", model.OwnerDiary, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM images WHERE owner_kind = ? AND owner_id = ?", model.OwnerDiary, id); err != nil {
		return nil, err
	}
	if err = affected(tx.ExecContext(ctx, "DELETE FROM diaries WHERE id = ?", id)); err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *DiaryRepo) ListByUser(ctx context.Context, userID string, req pagination.Request) (pagination.Page[model.Diary], error) {
	seek, args := seekTimeID(req.Cursor, "created_at", "id")
	q := "SELECT " + diaryColumns + " FROM diaries WHERE user_id = ?" + seek +
		" ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append([]any{userID}, args...)
	args = append(args, req.Limit+1)

	var rows []model.Diary
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return pagination.Page[model.Diary]{}, err
	}
	return pagination.Window(rows, req.Limit, DiaryKey), nil
}
