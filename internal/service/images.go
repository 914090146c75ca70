package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/media"
	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
)

// UploadRecorder counts rejected uploads by reason. *metrics.Metrics
// satisfies it.
type UploadRecorder interface {
	UploadRejected(reason string)
}

type UploadInput struct {
	OwnerKind string
	OwnerID   string
	Filename  string
	Body      io.Reader
	Type      string
	Note      string
}

type ImageService struct {
	Deps
	images  ImageStore
	plants  *PlantService
	diaries *DiaryService
	files   FileStore
	rec     UploadRecorder
}

func NewImageService(deps Deps, images ImageStore, plants *PlantService, diaries *DiaryService, files FileStore, rec UploadRecorder) *ImageService {
	return &ImageService{Deps: deps.withDefaults(), images: images, plants: plants, diaries: diaries, files: files, rec: rec}
}

func (s *ImageService) checkOwner(ctx context.Context, userID, kind, ownerID string) error {
	switch kind {
	case model.OwnerPlant:
		_, err := s.plants.Owned(ctx, userID, ownerID)
		return err
	case model.OwnerDiary:
		_, err := s.diaries.Owned(ctx, userID, ownerID)
		return err
	}
	return invalid("unknown image owner")
}

func (s *ImageService) reject(reason string, err error) error {
	if s.rec != nil {
		s.rec.UploadRejected(reason)
	}
	return err
}

// Upload validates and stores an image for a plant or diary. Checks run in
// order: ownership, extension, content signature, extension/signature
// agreement, size cap. An oversized body leaves no file behind.
func (s *ImageService) Upload(ctx context.Context, userID string, in UploadInput) (model.Image, error) {
	if err := s.checkOwner(ctx, userID, in.OwnerKind, in.OwnerID); err != nil {
		return model.Image{}, err
	}
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if typ == "" {
		typ = model.ImageGeneral
	}
	if !model.ValidImageType(typ) {
		return model.Image{}, invalid("type must be one of profile, diary, general")
	}
	if err := checkLen("note", in.Note, 0, 500); err != nil {
		return model.Image{}, err
	}
	if in.Body == nil {
		return model.Image{}, invalid("file is required")
	}

	if _, err := media.Ext(in.Filename); err != nil {
		return model.Image{}, s.reject("extension", apperror.UnsupportedMediaType(apperror.CodeUnsupportedMediaType, "only jpg/png allowed"))
	}
	header := make([]byte, media.SniffLen)
	n, err := io.ReadFull(in.Body, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return model.Image{}, apperror.Internal(err)
	}
	header = header[:n]
	ext, contentType, err := media.Check(in.Filename, header)
	switch {
	case errors.Is(err, media.ErrInvalidContent):
		return model.Image{}, s.reject("signature", apperror.UnsupportedMediaType(apperror.CodeUnsupportedMediaType, "invalid file type"))
	case errors.Is(err, media.ErrTypeMismatch):
		return model.Image{}, s.reject("mismatch", apperror.UnsupportedMediaType(apperror.CodeUnsupportedMediaType, "file extension does not match its content"))
	case err != nil:
		return model.Image{}, s.reject("extension", apperror.UnsupportedMediaType(apperror.CodeUnsupportedMediaType, err.Error()))
	}

	now := s.now()
	id := uuid.NewString()
	rel := media.RelPath(now, id, ext)
	size, err := s.files.Save(io.MultiReader(bytes.NewReader(header), in.Body), rel)
	if errors.Is(err, media.ErrTooLarge) {
		return model.Image{}, s.reject("size", apperror.PayloadTooLarge(apperror.CodePayloadTooLarge, "file exceeds upload limit"))
	}
	if err != nil {
		return model.Image{}, apperror.Internal(err)
	}

	img := model.Image{
		ID:          id,
		UserID:      userID,
		OwnerKind:   in.OwnerKind,
		OwnerID:     in.OwnerID,
		RelPath:     rel,
		URL:         s.files.URL(rel),
		Type:        typ,
		Note:        strings.TrimSpace(in.Note),
		ContentType: contentType,
		SizeBytes:   size,
		UploadedAt:  now,
	}
	if err := s.images.Create(ctx, img); err != nil {
		if rmErr := s.files.Remove(rel); rmErr != nil {
			s.Log.Warn().Err(rmErr).Str("path", rel).Msg("remove orphaned upload")
		}
		return model.Image{}, storeErr(err, "owner")
	}
	s.Log.Info().Str("image_id", id).Str("owner", in.OwnerKind).Int64("bytes", size).Msg("image uploaded")
	s.publish(ctx, queue.EventImageUploaded, userID, id)
	return img, nil
}

func (s *ImageService) List(ctx context.Context, userID, kind, ownerID string, limit int, cursor string) (pagination.Page[model.Image], error) {
	if err := s.checkOwner(ctx, userID, kind, ownerID); err != nil {
		return pagination.Page[model.Image]{}, err
	}
	page, err := s.images.ListByOwner(ctx, kind, ownerID, pageRequest(limit, cursor, ImagesDefaultLimit, pagination.MaxLimit))
	return page, storeErr(err, "image")
}

// Get returns an image that must be attached to the given owner.
func (s *ImageService) Get(ctx context.Context, userID, kind, ownerID, imageID string) (model.Image, error) {
	if err := s.checkOwner(ctx, userID, kind, ownerID); err != nil {
		return model.Image{}, err
	}
	img, err := s.images.Get(ctx, imageID)
	if err != nil {
		return model.Image{}, storeErr(err, "image")
	}
	if img.OwnerKind != kind || img.OwnerID != ownerID {
		return model.Image{}, apperror.NotFound(apperror.CodeNotFound, "image not found")
	}
	return img, nil
}

func (s *ImageService) Delete(ctx context.Context, userID, kind, ownerID, imageID string) error {
	img, err := s.Get(ctx, userID, kind, ownerID, imageID)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, img.ID); err != nil {
		return storeErr(err, "image")
	}
	if err := s.files.Remove(img.RelPath); err != nil {
		s.Log.Warn().Err(err).Str("image_id", img.ID).Msg("remove image file")
	}
	return nil
}
