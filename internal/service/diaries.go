package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
)

type DiaryInput struct {
	Title        string
	Content      string
	Hashtags     string
	PlantContent string
	Weather      string
}

type DiaryPatch struct {
	Title        *string
	Content      *string
	Hashtags     *string
	PlantContent *string
	Weather      *string
}

type DiaryService struct {
	Deps
	diaries DiaryStore
	files   FileStore
}

func NewDiaryService(deps Deps, diaries DiaryStore, files FileStore) *DiaryService {
	return &DiaryService{Deps: deps.withDefaults(), diaries: diaries, files: files}
}

func (in *DiaryInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Hashtags = strings.TrimSpace(in.Hashtags)
	in.Weather = strings.TrimSpace(in.Weather)
	if err := checkLen("title", in.Title, 1, 500); err != nil {
		return err
	}
	if err := checkLen("hashtags", in.Hashtags, 0, 500); err != nil {
		return err
	}
	return checkLen("weather", in.Weather, 0, 10)
}

func (s *DiaryService) Create(ctx context.Context, userID string, in DiaryInput) (model.Diary, error) {
	if err := in.validate(); err != nil {
		return model.Diary{}, err
	}
	now := s.now()
	d := model.Diary{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        in.Title,
		Content:      in.Content,
		Hashtags:     in.Hashtags,
		PlantContent: in.PlantContent,
		Weather:      in.Weather,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.diaries.Create(ctx, d); err != nil {
		return model.Diary{}, storeErr(err, "user")
	}
	s.publish(ctx, queue.EventDiaryCreated, userID, d.ID)
	return d, nil
}

func (s *DiaryService) Owned(ctx context.Context, userID, diaryID string) (model.Diary, error) {
	d, err := s.diaries.Get(ctx, diaryID)
	if err != nil {
		return model.Diary{}, storeErr(err, "diary")
	}
	if d.UserID != userID {
		return model.Diary{}, forbidden("diary")
	}
	return d, nil
}

func (s *DiaryService) Update(ctx context.Context, userID, diaryID string, patch DiaryPatch) (model.Diary, error) {
	d, err := s.Owned(ctx, userID, diaryID)
	if err != nil {
		return model.Diary{}, err
	}
	in := DiaryInput{Title: d.Title, Content: d.Content, Hashtags: d.Hashtags, PlantContent: d.PlantContent, Weather: d.Weather}
	setIf(&in.Title, patch.Title)
	setIf(&in.Content, patch.Content)
	setIf(&in.Hashtags, patch.Hashtags)
	setIf(&in.PlantContent, patch.PlantContent)
	setIf(&in.Weather, patch.Weather)
	if err := in.validate(); err != nil {
		return model.Diary{}, err
	}
	d.Title, d.Content, d.Hashtags, d.PlantContent, d.Weather = in.Title, in.Content, in.Hashtags, in.PlantContent, in.Weather
	d.UpdatedAt = s.now()
	if err := s.diaries.Update(ctx, d); err != nil {
		return model.Diary{}, storeErr(err, "diary")
	}
	return d, nil
}

func setIf(dst, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (s *DiaryService) Delete(ctx context.Context, userID, diaryID string) error {
	if _, err := s.Owned(ctx, userID, diaryID); err != nil {
		return err
	}
	paths, err := s.diaries.Delete(ctx, diaryID)
	if err != nil {
		return storeErr(err, "diary")
	}
	if err := s.files.Remove(paths...); err != nil {
		s.Log.Warn().Err(err).Str("diary_id", diaryID).Msg("remove diary files")
	}
	return nil
}

func (s *DiaryService) List(ctx context.Context, userID string, limit int, cursor string) (pagination.Page[model.Diary], error) {
	page, err := s.diaries.ListByUser(ctx, userID, pageRequest(limit, cursor, DiariesDefaultLimit, pagination.MaxLimit))
	return page, storeErr(err, "diary")
}
