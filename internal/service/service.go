// Package service holds the application logic behind the HTTP handlers.
// Services validate input, enforce resource ownership and translate store
// errors into *apperror.Error values; they never touch HTTP types.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) ([]string, error)
}

type PreferencesStore interface {
	Get(ctx context.Context, userID string) (model.Preferences, error)
	Upsert(ctx context.Context, p model.Preferences) error
}

type PlantStore interface {
	Create(ctx context.Context, p model.Plant) error
	Get(ctx context.Context, id string) (model.Plant, error)
	Update(ctx context.Context, p model.Plant) error
	Delete(ctx context.Context, id string) ([]string, error)
	ListByUser(ctx context.Context, userID string, req pagination.Request) (pagination.Page[model.Plant], error)
}

type HumidityStore interface {
	Insert(ctx context.Context, h model.HumidityReading) (model.HumidityReading, bool, error)
	ListByPlant(ctx context.Context, plantID string, req pagination.Request) (pagination.Page[model.HumidityReading], error)
	Latest(ctx context.Context, plantID string) (*model.HumidityReading, error)
}

type DiaryStore interface {
	Create(ctx context.Context, d model.Diary) error
	Get(ctx context.Context, id string) (model.Diary, error)
	Update(ctx context.Context, d model.Diary) error
	Delete(ctx context.Context, id string) ([]string, error)
	ListByUser(ctx context.Context, userID string, req pagination.Request) (pagination.Page[model.Diary], error)
}

type ImageStore interface {
	Create(ctx context.Context, img model.Image) error
	Get(ctx context.Context, id string) (model.Image, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, kind, ownerID string, req pagination.Request) (pagination.Page[model.Image], error)
	LatestForOwner(ctx context.Context, kind, ownerID string) (*model.Image, error)
}

type WikiStore interface {
	CreatePlant(ctx context.Context, w *model.PlantWiki) error
	GetPlant(ctx context.Context, id int64) (model.PlantWiki, error)
	GetPlantBySpecies(ctx context.Context, species string) (model.PlantWiki, error)
	UpdatePlant(ctx context.Context, w model.PlantWiki) error
	DeletePlant(ctx context.Context, id int64) error
	ListPlants(ctx context.Context, req pagination.Request) (pagination.Page[model.PlantWiki], error)

	CreatePest(ctx context.Context, w *model.PestWiki) error
	GetPest(ctx context.Context, id int64) (model.PestWiki, error)
	GetPestByPestID(ctx context.Context, pestID string) (model.PestWiki, error)
	UpdatePest(ctx context.Context, w model.PestWiki) error
	DeletePest(ctx context.Context, id int64) error
	ListPests(ctx context.Context, req pagination.Request) (pagination.Page[model.PestWiki], error)
}

// Stores bundles one implementation of every store, SQL or in-memory.
type Stores struct {
	Users       UserStore
	Preferences PreferencesStore
	Plants      PlantStore
	Humidity    HumidityStore
	Diaries     DiaryStore
	Images      ImageStore
	Wiki        WikiStore
}

// FileStore keeps uploaded files. *media.Store satisfies it.
type FileStore interface {
	Save(r io.Reader, rel string) (int64, error)
	Remove(rels ...string) error
	URL(rel string) string
}

// EventPublisher is satisfied by *queue.Publisher and queue.Discard.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Deps carries what every service shares.
type Deps struct {
	Log    zerolog.Logger
	Events EventPublisher
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = queue.Discard{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// now returns the current time at the precision the stores keep.
func (d Deps) now() time.Time { return d.Now().UTC().Truncate(time.Microsecond) }

// publish emits a domain event. Failures are logged by the publisher and
// never reach the caller.
func (d Deps) publish(ctx context.Context, typ, userID, resourceID string) {
	_ = d.Events.Publish(context.WithoutCancel(ctx), queue.NewEvent(typ, userID, resourceID, d.Now()))
}

// Page sizes per collection.
const (
	PlantsDefaultLimit   = 10
	HumidityDefaultLimit = 20
	DiariesDefaultLimit  = 20
	ImagesDefaultLimit   = 20
	WikiDefaultLimit     = 20
	DashboardDefault     = 5
	DashboardMax         = 50
)

func pageRequest(limit int, cursor string, def, max int) pagination.Request {
	return pagination.Request{Limit: pagination.ClampLimit(limit, def, max), Cursor: cursor}
}

// storeErr maps repository sentinels onto API errors; what names the
// resource for the not-found message.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(apperror.CodeNotFound, what+" not found")
	case errors.Is(err, repository.ErrEmailExists):
		return apperror.Conflict(apperror.CodeEmailInUse, "email already registered")
	case errors.Is(err, repository.ErrHandleExists):
		return apperror.Conflict(apperror.CodeHandleInUse, "handle already taken")
	case errors.Is(err, repository.ErrConflict):
		return apperror.Conflict(apperror.CodeConflict, what+" already exists")
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(err)
}

func forbidden(what string) error {
	return apperror.Forbidden(apperror.CodeForbidden, "not your "+what)
}

func invalid(msg string) error {
	return apperror.Validation(apperror.CodeValidation, msg)
}
