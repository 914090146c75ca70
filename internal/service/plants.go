package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
)

type PlantInput struct {
	Nickname string
	Species  string
	PestID   string
	MetOn    *time.Time
	Location string
}

// PlantPatch carries optional changes; nil fields are left alone.
type PlantPatch struct {
	Nickname *string
	Species  *string
	PestID   *string
	MetOn    *time.Time
	Location *string
}

type PlantService struct {
	Deps
	plants   PlantStore
	humidity HumidityStore
	files    FileStore
}

func NewPlantService(deps Deps, plants PlantStore, humidity HumidityStore, files FileStore) *PlantService {
	return &PlantService{Deps: deps.withDefaults(), plants: plants, humidity: humidity, files: files}
}

func checkLen(field, v string, min, max int) error {
	if n := len([]rune(v)); n >= min && n <= max {
		return nil
	}
	if min > 0 {
		return invalid(fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return invalid(fmt.Sprintf("%s must be at most %d characters", field, max))
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func (in *PlantInput) validate() error {
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Species = strings.TrimSpace(in.Species)
	in.PestID = strings.TrimSpace(in.PestID)
	in.Location = strings.TrimSpace(in.Location)
	if err := checkLen("nickname", in.Nickname, 1, 100); err != nil {
		return err
	}
	if err := checkLen("species", in.Species, 0, 100); err != nil {
		return err
	}
	if err := checkLen("pest_id", in.PestID, 0, 100); err != nil {
		return err
	}
	return checkLen("location", in.Location, 0, 100)
}

func (s *PlantService) Create(ctx context.Context, userID string, in PlantInput) (model.Plant, error) {
	if err := in.validate(); err != nil {
		return model.Plant{}, err
	}
	now := s.now()
	p := model.Plant{
		ID:        uuid.NewString(),
		UserID:    userID,
		Nickname:  in.Nickname,
		Species:   in.Species,
		PestID:    in.PestID,
		MetOn:     dateOnly(in.MetOn),
		Location:  in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.plants.Create(ctx, p); err != nil {
		return model.Plant{}, storeErr(err, "user")
	}
	s.publish(ctx, queue.EventPlantCreated, userID, p.ID)
	return p, nil
}

// Owned loads a plant and checks it belongs to userID: unknown ids are 404,
// plants of other users 403.
func (s *PlantService) Owned(ctx context.Context, userID, plantID string) (model.Plant, error) {
	p, err := s.plants.Get(ctx, plantID)
	if err != nil {
		return model.Plant{}, storeErr(err, "plant")
	}
	if p.UserID != userID {
		return model.Plant{}, forbidden("plant")
	}
	return p, nil
}

func (s *PlantService) Update(ctx context.Context, userID, plantID string, patch PlantPatch) (model.Plant, error) {
	p, err := s.Owned(ctx, userID, plantID)
	if err != nil {
		return model.Plant{}, err
	}
	in := PlantInput{Nickname: p.Nickname, Species: p.Species, PestID: p.PestID, MetOn: p.MetOn, Location: p.Location}
	if patch.Nickname != nil {
		in.Nickname = *patch.Nickname
	}
	if patch.Species != nil {
		in.Species = *patch.Species
	}
	if patch.PestID != nil {
		in.PestID = *patch.PestID
	}
	if patch.MetOn != nil {
		in.MetOn = patch.MetOn
	}
	if patch.Location != nil {
		in.Location = *patch.Location
	}
	if err := in.validate(); err != nil {
		return model.Plant{}, err
	}
	p.Nickname, p.Species, p.PestID, p.Location = in.Nickname, in.Species, in.PestID, in.Location
	p.MetOn = dateOnly(in.MetOn)
	p.UpdatedAt = s.now()
	if err := s.plants.Update(ctx, p); err != nil {
		return model.Plant{}, storeErr(err, "plant")
	}
	return p, nil
}

// Delete removes the plant, its readings and its images.
func (s *PlantService) Delete(ctx context.Context, userID, plantID string) error {
	if _, err := s.Owned(ctx, userID, plantID); err != nil {
		return err
	}
	paths, err := s.plants.Delete(ctx, plantID)
	if err != nil {
		return storeErr(err, "plant")
	}
	if err := s.files.Remove(paths...); err != nil {
		s.Log.Warn().Err(err).Str("plant_id", plantID).Msg("remove plant files")
	}
	return nil
}

// List pages through the user's plants, newest first.
func (s *PlantService) List(ctx context.Context, userID string, limit int, cursor string) (pagination.Page[model.Plant], error) {
	page, err := s.plants.ListByUser(ctx, userID, pageRequest(limit, cursor, PlantsDefaultLimit, pagination.MaxLimit))
	return page, storeErr(err, "plant")
}

// RecordHumidity stores a reading. A nil measuredAt means now. Posting the
// same (plant, measured_at) twice returns the stored reading and
// created=false.
func (s *PlantService) RecordHumidity(ctx context.Context, userID, plantID string, measuredAt *time.Time, humidity float64) (model.HumidityReading, bool, error) {
	if math.IsNaN(humidity) || humidity < 0 || humidity > 100 {
		return model.HumidityReading{}, false, invalid("humidity must be between 0 and 100")
	}
	if _, err := s.Owned(ctx, userID, plantID); err != nil {
		return model.HumidityReading{}, false, err
	}
	at := s.now()
	if measuredAt != nil {
		at = measuredAt.UTC().Truncate(time.Microsecond)
	}
	h, created, err := s.humidity.Insert(ctx, model.HumidityReading{PlantID: plantID, MeasuredAt: at, Humidity: humidity})
	if err != nil {
		return model.HumidityReading{}, false, storeErr(err, "plant")
	}
	return h, created, nil
}

func (s *PlantService) ListHumidity(ctx context.Context, userID, plantID string, limit int, cursor string) (pagination.Page[model.HumidityReading], error) {
	if _, err := s.Owned(ctx, userID, plantID); err != nil {
		return pagination.Page[model.HumidityReading]{}, err
	}
	page, err := s.humidity.ListByPlant(ctx, plantID, pageRequest(limit, cursor, HumidityDefaultLimit, pagination.MaxLimit))
	return page, storeErr(err, "humidity reading")
}
