// Package memory is an in-process implementation of every repository,
// used by tests and by DB_DRIVER=memory for local runs. All state lives in a
// Store instance guarded by one mutex; nothing is package-global.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository"
)

type readingKey struct {
	plantID string
	at      int64
}

// Store holds all tables.
type Store struct {
	mu sync.RWMutex

	users       map[string]model.User
	prefs       map[string]model.Preferences
	plants      map[string]model.Plant
	readings    map[readingKey]model.HumidityReading
	diaries     map[string]model.Diary
	images      map[string]model.Image
	plantWiki   map[int64]model.PlantWiki
	pestWiki    map[int64]model.PestWiki
	revoked     map[string]model.RevokedToken
	wikiSeq     int64
	pestWikiSeq int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:     map[string]model.User{},
		prefs:     map[string]model.Preferences{},
		plants:    map[string]model.Plant{},
		readings:  map[readingKey]model.HumidityReading{},
		diaries:   map[string]model.Diary{},
		images:    map[string]model.Image{},
		plantWiki: map[int64]model.PlantWiki{},
		pestWiki:  map[int64]model.PestWiki{},
		revoked:   map[string]model.RevokedToken{},
		now:       time.Now,
	}
}

// Repository views over the shared store.
func (s *Store) Users() *UserRepo              { return &UserRepo{s} }
func (s *Store) Preferences() *PreferencesRepo { return &PreferencesRepo{s} }
func (s *Store) Plants() *PlantRepo            { return &PlantRepo{s} }
func (s *Store) Humidity() *HumidityRepo       { return &HumidityRepo{s} }
func (s *Store) Diaries() *DiaryRepo           { return &DiaryRepo{s} }
func (s *Store) Images() *ImageRepo            { return &ImageRepo{s} }
func (s *Store) Wiki() *WikiRepo               { return &WikiRepo{s} }
func (s *Store) Revocations() *RevocationRepo  { return &RevocationRepo{s} }

// page sorts items descending by keyOf and applies the paginate operator.
func page[T any](items []T, req pagination.Request, keyOf func(T) pagination.Key) pagination.Page[T] {
	sort.Slice(items, func(i, j int) bool { return pagination.Compare(keyOf(items[i]), keyOf(items[j])) > 0 })
	return pagination.Paginate(items, req.Limit, req.Cursor, keyOf)
}

// ---- users ----

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
		if other.Handle == u.Handle {
			return repository.ErrHandleExists
		}
	}
	r.s.users[u.ID] = u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r *UserRepo) Update(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Handle == u.Handle {
			return repository.ErrHandleExists
		}
	}
	cur.Handle, cur.PasswordHash, cur.Nickname = u.Handle, u.PasswordHash, u.Nickname
	cur.Phone, cur.AvatarURL, cur.UpdatedAt = u.Phone, u.AvatarURL, u.UpdatedAt
	r.s.users[u.ID] = cur
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return nil, repository.ErrNotFound
	}
	var paths []string
	for imgID, img := range r.s.images {
		if img.UserID == id {
			paths = append(paths, img.RelPath)
			delete(r.s.images, imgID)
		}
	}
	for pid, p := range r.s.plants {
		if p.UserID == id {
			r.s.deleteReadingsLocked(pid)
			delete(r.s.plants, pid)
		}
	}
	for did, d := range r.s.diaries {
		if d.UserID == id {
			delete(r.s.diaries, did)
		}
	}
	delete(r.s.prefs, id)
	delete(r.s.users, id)
	sort.Strings(paths)
	return paths, nil
}

// ---- preferences ----

type PreferencesRepo struct{ s *Store }

func (r *PreferencesRepo) Get(_ context.Context, userID string) (model.Preferences, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prefs[userID]
	if !ok {
		return model.Preferences{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *PreferencesRepo) Upsert(_ context.Context, p model.Preferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[p.UserID]; !ok {
		return repository.ErrParentMissing
	}
	r.s.prefs[p.UserID] = p
	return nil
}

// ---- plants ----

type PlantRepo struct{ s *Store }

func (r *PlantRepo) Create(_ context.Context, p model.Plant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[p.UserID]; !ok {
		return repository.ErrParentMissing
	}
	r.s.plants[p.ID] = p
	return nil
}

func (r *PlantRepo) Get(_ context.Context, id string) (model.Plant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.plants[id]
	if !ok {
		return model.Plant{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *PlantRepo) Update(_ context.Context, p model.Plant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.plants[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.UserID, p.CreatedAt = cur.UserID, cur.CreatedAt
	r.s.plants[p.ID] = p
	return nil
}

func (r *PlantRepo) Delete(_ context.Context, id string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plants[id]; !ok {
		return nil, repository.ErrNotFound
	}
	paths := r.s.deleteImagesLocked(model.OwnerPlant, id)
	r.s.deleteReadingsLocked(id)
	delete(r.s.plants, id)
	return paths, nil
}

func (r *PlantRepo) ListByUser(_ context.Context, userID string, req pagination.Request) (pagination.Page[model.Plant], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var items []model.Plant
	for _, p := range r.s.plants {
		if p.UserID == userID {
			items = append(items, p)
		}
	}
	return page(items, req, repository.PlantKey), nil
}

// ---- humidity ----

type HumidityRepo struct{ s *Store }

func (r *HumidityRepo) Insert(_ context.Context, h model.HumidityReading) (model.HumidityReading, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := readingKey{h.PlantID, h.MeasuredAt.UnixNano()}
	if existing, ok := r.s.readings[k]; ok {
		return existing, false, nil
	}
	if _, ok := r.s.plants[h.PlantID]; !ok {
		return model.HumidityReading{}, false, repository.ErrParentMissing
	}
	r.s.readings[k] = h
	return h, true, nil
}

func (r *HumidityRepo) ListByPlant(_ context.Context, plantID string, req pagination.Request) (pagination.Page[model.HumidityReading], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var items []model.HumidityReading
	for k, h := range r.s.readings {
		if k.plantID == plantID {
			items = append(items, h)
		}
	}
	return page(items, req, repository.HumidityKey), nil
}

func (r *HumidityRepo) Latest(_ context.Context, plantID string) (*model.HumidityReading, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *model.HumidityReading
	for k, h := range r.s.readings {
		if k.plantID != plantID {
			continue
		}
		if latest == nil || h.MeasuredAt.After(latest.MeasuredAt) {
			h := h
			latest = &h
		}
	}
	return latest, nil
}

func (s *Store) deleteReadingsLocked(plantID string) {
	for k := range s.readings {
		if k.plantID == plantID {
			delete(s.readings, k)
		}
	}
}

// ---- diaries ----

type DiaryRepo struct{ s *Store }

func (r *DiaryRepo) Create(_ context.Context, d model.Diary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[d.UserID]; !ok {
		return repository.ErrParentMissing
	}
	r.s.diaries[d.ID] = d
	return nil
}

func (r *DiaryRepo) Get(_ context.Context, id string) (model.Diary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.diaries[id]
	if !ok {
		return model.Diary{}, repository.ErrNotFound
	}
	return d, nil
}

func (r *DiaryRepo) Update(_ context.Context, d model.Diary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.diaries[d.ID]
	if !ok {
		return repository.ErrNotFound
	}
	d.UserID, d.CreatedAt = cur.UserID, cur.CreatedAt
	r.s.diaries[d.ID] = d
	return nil
}

func (r *DiaryRepo) Delete(_ context.Context, id string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.diaries[id]; !ok {
		return nil, repository.ErrNotFound
	}
	paths := r.s.deleteImagesLocked(model.OwnerDiary, id)
	delete(r.s.diaries, id)
	return paths, nil
}

func (r *DiaryRepo) ListByUser(_ context.Context, userID string, req pagination.Request) (pagination.Page[model.Diary], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var items []model.Diary
	for _, d := range r.s.diaries {
		if d.UserID == userID {
			items = append(items, d)
		}
	}
	return page(items, req, repository.DiaryKey), nil
}

// ---- images ----

type ImageRepo struct{ s *Store }

func (r *ImageRepo) Create(_ context.Context, img model.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[img.UserID]; !ok {
		return repository.ErrParentMissing
	}
	r.s.images[img.ID] = img
	return nil
}

func (r *ImageRepo) Get(_ context.Context, id string) (model.Image, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	img, ok := r.s.images[id]
	if !ok {
		return model.Image{}, repository.ErrNotFound
	}
	return img, nil
}

func (r *ImageRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.images[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.images, id)
	return nil
}

func (r *ImageRepo) ListByOwner(_ context.Context, kind, ownerID string, req pagination.Request) (pagination.Page[model.Image], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return page(r.s.imagesOfLocked(kind, ownerID), req, repository.ImageKey), nil
}

func (r *ImageRepo) LatestForOwner(_ context.Context, kind, ownerID string) (*model.Image, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *model.Image
	for _, img := range r.s.imagesOfLocked(kind, ownerID) {
		if latest == nil || pagination.Compare(repository.ImageKey(img), repository.ImageKey(*latest)) > 0 {
			img := img
			latest = &img
		}
	}
	return latest, nil
}

func (s *Store) imagesOfLocked(kind, ownerID string) []model.Image {
	var out []model.Image
	for _, img := range s.images {
		if img.OwnerKind == kind && img.OwnerID == ownerID {
			out = append(out, img)
		}
	}
	return out
}

func (s *Store) deleteImagesLocked(kind, ownerID string) []string {
	var paths []string
	for id, img := range s.images {
		if img.OwnerKind == kind && img.OwnerID == ownerID {
			paths = append(paths, img.RelPath)
			delete(s.images, id)
		}
	}
	sort.Strings(paths)
	return paths
}

// ---- wiki ----

type WikiRepo struct{ s *Store }

func (r *WikiRepo) CreatePlant(_ context.Context, w *model.PlantWiki) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.plantWiki {
		if other.Species == w.Species {
			return repository.ErrConflict
		}
	}
	r.s.wikiSeq++
	w.ID = r.s.wikiSeq
	r.s.plantWiki[w.ID] = *w
	return nil
}

func (r *WikiRepo) GetPlant(_ context.Context, id int64) (model.PlantWiki, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.plantWiki[id]
	if !ok {
		return model.PlantWiki{}, repository.ErrNotFound
	}
	return w, nil
}

func (r *WikiRepo) GetPlantBySpecies(_ context.Context, species string) (model.PlantWiki, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.plantWiki {
		if w.Species == species {
			return w, nil
		}
	}
	return model.PlantWiki{}, repository.ErrNotFound
}

func (r *WikiRepo) UpdatePlant(_ context.Context, w model.PlantWiki) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plantWiki[w.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.s.plantWiki {
		if id != w.ID && other.Species == w.Species {
			return repository.ErrConflict
		}
	}
	r.s.plantWiki[w.ID] = w
	return nil
}

func (r *WikiRepo) DeletePlant(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plantWiki[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.plantWiki, id)
	return nil
}

func (r *WikiRepo) ListPlants(_ context.Context, req pagination.Request) (pagination.Page[model.PlantWiki], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]model.PlantWiki, 0, len(r.s.plantWiki))
	for _, w := range r.s.plantWiki {
		items = append(items, w)
	}
	return page(items, req, repository.PlantWikiKey), nil
}

func (r *WikiRepo) CreatePest(_ context.Context, w *model.PestWiki) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.pestWiki {
		if other.PestID == w.PestID {
			return repository.ErrConflict
		}
	}
	r.s.pestWikiSeq++
	w.ID = r.s.pestWikiSeq
	r.s.pestWiki[w.ID] = *w
	return nil
}

func (r *WikiRepo) GetPest(_ context.Context, id int64) (model.PestWiki, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.pestWiki[id]
	if !ok {
		return model.PestWiki{}, repository.ErrNotFound
	}
	return w, nil
}

func (r *WikiRepo) GetPestByPestID(_ context.Context, pestID string) (model.PestWiki, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.pestWiki {
		if w.PestID == pestID {
			return w, nil
		}
	}
	return model.PestWiki{}, repository.ErrNotFound
}

func (r *WikiRepo) UpdatePest(_ context.Context, w model.PestWiki) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.pestWiki[w.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.s.pestWiki {
		if id != w.ID && other.PestID == w.PestID {
			return repository.ErrConflict
		}
	}
	r.s.pestWiki[w.ID] = w
	return nil
}

func (r *WikiRepo) DeletePest(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.pestWiki[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.pestWiki, id)
	return nil
}

func (r *WikiRepo) ListPests(_ context.Context, req pagination.Request) (pagination.Page[model.PestWiki], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]model.PestWiki, 0, len(r.s.pestWiki))
	for _, w := range r.s.pestWiki {
		items = append(items, w)
	}
	return page(items, req, repository.PestWikiKey), nil
}

// ---- revocations ----

type RevocationRepo struct{ s *Store }

func (r *RevocationRepo) Revoke(_ context.Context, jti, subject string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.revoked[jti]; ok {
		return nil
	}
	r.s.revoked[jti] = model.RevokedToken{JTI: jti, Subject: subject, ExpiresAt: expiresAt, RevokedAt: r.s.now().UTC()}
	return nil
}

func (r *RevocationRepo) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.revoked[jti]
	return ok, nil
}

func (r *RevocationRepo) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for jti, t := range r.s.revoked {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.s.revoked, jti)
			n++
		}
	}
	return n, nil
}
