package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

const imageColumns = "id, user_id, owner_kind, owner_id, rel_path, url, type, note, content_type, size_bytes, uploaded_at"

// ImageRepo stores image metadata. The files themselves live under the
// media root and are managed by the media package.
type ImageRepo struct{ DB *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{DB: db} }

func ImageKey(i model.Image) pagination.Key { return pagination.Key{i.UploadedAt, i.ID} }

func (r *ImageRepo) Create(ctx context.Context, img model.Image) error {
	_, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO images (`+imageColumns+`)
		 VALUES (:id, :user_id, :owner_kind, :owner_id, :rel_path, :url, :type, :note, :content_type, :size_bytes, :uploaded_at)`, img)
	return insertErr(err)
}

func (r *ImageRepo) Get(ctx context.Context, id string) (model.Image, error) {
	var img model.Image
	err := r.DB.GetContext(ctx, &img, "SELECT "+imageColumns+" FROM images WHERE id = ?", id)
	return img, notFound(err)
}

func (r *ImageRepo) Delete(ctx context.Context, id string) error {
	return affected(r.DB.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id))
}

// ListByOwner pages through the images attached to one plant or diary,
// newest upload first.
func (r *ImageRepo) ListByOwner(ctx context.Context, kind, ownerID string, req pagination.Request) (pagination.Page[model.Image], error) {
	seek, args := seekTimeID(req.Cursor, "uploaded_at", "id")
	q := "SELECT " + imageColumns + " FROM images WHERE owner_kind = ? AND owner_id = ?" + seek +
		" ORDER BY uploaded_at DESC, id DESC LIMIT ?"
	args = append([]any{kind, ownerID}, args...)
	args = append(args, req.Limit+1)

	var rows []model.Image
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return pagination.Page[model.Image]{}, err
	}
	return pagination.Window(rows, req.Limit, ImageKey), nil
}

// LatestForOwner returns the newest image of an owner or nil.
func (r *ImageRepo) LatestForOwner(ctx context.Context, kind, ownerID string) (*model.Image, error) {
	var img model.Image
	err := r.DB.GetContext(ctx, &img,
		"SELECT "+imageColumns+" FROM images WHERE owner_kind = ? AND owner_id = ? ORDER BY uploaded_at DESC, id DESC LIMIT 1",
		kind, ownerID)
	if err = notFound(err); err == ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &img, nil
}
