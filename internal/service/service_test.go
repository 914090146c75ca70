package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/media"
	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository/memory"
	"github.com/eunhae2004/MakeFinalProject-main/internal/token"
	"github.com/eunhae2004/MakeFinalProject-main/internal/weather"
)

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x11}, 64)...)
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x22}, 64)...)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type rejectCounter struct {
	mu      sync.Mutex
	reasons []string
}

func (r *rejectCounter) UploadRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

type failingWeather struct{}

func (failingWeather) Current(context.Context, string) (weather.Report, error) {
	return weather.Report{}, errors.New("provider down")
}

type env struct {
	store     *memory.Store
	mediaRoot string
	clock     time.Time
	events    *recordingPublisher
	rejects   *rejectCounter
	tokens    *token.Service

	auth      *AuthService
	users     *UserService
	plants    *PlantService
	diaries   *DiaryService
	images    *ImageService
	wiki      *WikiService
	dashboard *DashboardService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:     memory.New(),
		mediaRoot: t.TempDir(),
		clock:     time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
		events:    &recordingPublisher{},
		rejects:   &rejectCounter{},
	}
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		e.clock = e.clock.Add(time.Millisecond)
		return e.clock
	}
	deps := Deps{Log: zerolog.Nop(), Events: e.events, Now: now}

	tokens, err := token.New(token.Options{Secret: "test-secret", AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}, e.store.Revocations())
	require.NoError(t, err)
	e.tokens = tokens

	files := media.NewStore(e.mediaRoot, "/media", 1024)
	e.auth = NewAuthService(deps, e.store.Users(), tokens, bcrypt.MinCost)
	e.users = NewUserService(deps, e.store.Users(), e.store.Preferences(), files, bcrypt.MinCost)
	e.plants = NewPlantService(deps, e.store.Plants(), e.store.Humidity(), files)
	e.diaries = NewDiaryService(deps, e.store.Diaries(), files)
	e.images = NewImageService(deps, e.store.Images(), e.plants, e.diaries, files, e.rejects)
	e.wiki = NewWikiService(deps, e.store.Wiki())
	e.dashboard = NewDashboardService(deps, e.users, weather.NewStub(7), e.store.Plants(), e.store.Humidity(), e.store.Images())
	return e
}

func (e *env) register(t *testing.T, email string) model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{Email: email, Password: "secret1", Nickname: "A"})
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind apperror.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperror.As(err)
	require.True(t, ok, "not an apperror: %v", err)
	assert.Equal(t, kind, ae.Kind)
	if code != "" {
		assert.Equal(t, code, ae.Code)
	}
}

func TestRegisterAndDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := e.register(t, "A@x.com")
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "a@x.com", u.Handle)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err := e.auth.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret1", Nickname: "B"})
	requireKind(t, err, apperror.KindConflict, apperror.CodeEmailInUse)

	_, err = e.auth.Register(ctx, RegisterInput{Email: "b@x.com", Password: "secret1", Nickname: "B", Handle: "a@x.com"})
	requireKind(t, err, apperror.KindConflict, apperror.CodeHandleInUse)

	assert.Equal(t, []string{queue.EventUserRegistered}, e.events.types())
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cases := []RegisterInput{
		{Email: "not-an-email", Password: "secret1", Nickname: "A"},
		{Email: "a@x.com", Password: "12345", Nickname: "A"},
		{Email: "a@x.com", Password: "secret1", Nickname: "  "},
		{Email: "", Password: "secret1", Nickname: "A"},
	}
	for _, in := range cases {
		_, err := e.auth.Register(ctx, in)
		requireKind(t, err, apperror.KindValidation, "")
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")

	_, err := e.auth.Login(ctx, "a@x.com", "wrong-pass")
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeInvalidCredentials)
	_, err = e.auth.Login(ctx, "nobody@x.com", "secret1")
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeInvalidCredentials)

	res, err := e.auth.Login(ctx, " A@X.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.Equal(t, TokenTypeBearer, res.TokenType)
	assert.Equal(t, int64(900), res.ExpiresIn)

	access, err := e.auth.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	claims, err := e.tokens.Decode(ctx, access, token.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)

	_, err = e.auth.Refresh(ctx, res.AccessToken)
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeTokenTypeInvalid)

	require.NoError(t, e.auth.Logout(ctx, res.RefreshToken))
	require.NoError(t, e.auth.Logout(ctx, res.RefreshToken))

	_, err = e.auth.Refresh(ctx, res.RefreshToken)
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeTokenRevoked)

	err = e.auth.Logout(ctx, "garbage")
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeTokenInvalid)
}

func TestUserProfileAndPreferences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")

	nick, phone := "Plant Lover", "010-0000-0000"
	got, err := e.users.UpdateMe(ctx, u.ID, UserPatch{Nickname: &nick, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, nick, got.Nickname)
	assert.Equal(t, phone, got.Phone)

	short := "123"
	_, err = e.users.UpdateMe(ctx, u.ID, UserPatch{Password: &short})
	requireKind(t, err, apperror.KindValidation, "")

	newPass := "secret2"
	_, err = e.users.UpdateMe(ctx, u.ID, UserPatch{Password: &newPass})
	require.NoError(t, err)
	_, err = e.auth.Login(ctx, "a@x.com", "secret2")
	require.NoError(t, err)

	prefs, err := e.users.Preferences(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLocationCode, prefs.LocationCode)

	prefs, err = e.users.UpdatePreferences(ctx, u.ID, "busan_kr", "Busan, KR")
	require.NoError(t, err)
	assert.Equal(t, "BUSAN_KR", prefs.LocationCode)
	prefs, err = e.users.Preferences(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Busan, KR", prefs.LocationName)

	_, err = e.users.UpdatePreferences(ctx, u.ID, "", "x")
	requireKind(t, err, apperror.KindValidation, "")
}

func TestPlantsOwnershipAndPaging(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "a@x.com")
	other := e.register(t, "b@x.com")

	for i := 0; i < 25; i++ {
		_, err := e.plants.Create(ctx, owner.ID, PlantInput{Nickname: fmt.Sprintf("plant-%02d", i)})
		require.NoError(t, err)
	}

	p1, err := e.plants.List(ctx, owner.ID, 10, "")
	require.NoError(t, err)
	require.Len(t, p1.Items, 10)
	require.True(t, p1.HasMore)
	assert.Equal(t, "plant-24", p1.Items[0].Nickname)

	p2, err := e.plants.List(ctx, owner.ID, 10, *p1.NextCursor)
	require.NoError(t, err)
	require.Len(t, p2.Items, 10)
	p3, err := e.plants.List(ctx, owner.ID, 10, *p2.NextCursor)
	require.NoError(t, err)
	assert.Len(t, p3.Items, 5)
	assert.False(t, p3.HasMore)
	assert.Nil(t, p3.NextCursor)
	assert.Equal(t, "plant-00", p3.Items[4].Nickname)

	def, err := e.plants.List(ctx, owner.ID, 0, "")
	require.NoError(t, err)
	assert.Len(t, def.Items, PlantsDefaultLimit)

	target := p1.Items[0]
	_, err = e.plants.Owned(ctx, other.ID, target.ID)
	requireKind(t, err, apperror.KindForbidden, apperror.CodeForbidden)
	_, err = e.plants.Owned(ctx, owner.ID, "missing")
	requireKind(t, err, apperror.KindNotFound, apperror.CodeNotFound)

	species := "Monstera deliciosa"
	met := time.Date(2024, 5, 5, 15, 30, 0, 0, time.UTC)
	updated, err := e.plants.Update(ctx, owner.ID, target.ID, PlantPatch{Species: &species, MetOn: &met})
	require.NoError(t, err)
	assert.Equal(t, species, updated.Species)
	assert.Equal(t, target.Nickname, updated.Nickname)
	require.NotNil(t, updated.MetOn)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), *updated.MetOn)

	empty := ""
	_, err = e.plants.Update(ctx, owner.ID, target.ID, PlantPatch{Nickname: &empty})
	requireKind(t, err, apperror.KindValidation, "")
}

func TestHumidityReadings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")
	p, err := e.plants.Create(ctx, u.ID, PlantInput{Nickname: "fern"})
	require.NoError(t, err)

	_, _, err = e.plants.RecordHumidity(ctx, u.ID, p.ID, nil, 120)
	requireKind(t, err, apperror.KindValidation, "")

	at := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	first, created, err := e.plants.RecordHumidity(ctx, u.ID, p.ID, &at, 42.5)
	require.NoError(t, err)
	assert.True(t, created)
	dup, created, err := e.plants.RecordHumidity(ctx, u.ID, p.ID, &at, 10)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, dup)

	_, _, err = e.plants.RecordHumidity(ctx, u.ID, p.ID, nil, 20)
	require.NoError(t, err)

	page, err := e.plants.ListHumidity(ctx, u.ID, p.ID, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 20.0, page.Items[0].Humidity)
}

func TestDiaries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")
	other := e.register(t, "b@x.com")

	_, err := e.diaries.Create(ctx, u.ID, DiaryInput{Title: ""})
	requireKind(t, err, apperror.KindValidation, "")
	_, err = e.diaries.Create(ctx, u.ID, DiaryInput{Title: "t", Weather: "much too long"})
	requireKind(t, err, apperror.KindValidation, "")

	d, err := e.diaries.Create(ctx, u.ID, DiaryInput{Title: "First leaf", Content: "it grew", Hashtags: "#leaf", Weather: "Sunny"})
	require.NoError(t, err)

	title := "Second leaf"
	got, err := e.diaries.Update(ctx, u.ID, d.ID, DiaryPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Second leaf", got.Title)
	assert.Equal(t, "it grew", got.Content)

	_, err = e.diaries.Update(ctx, other.ID, d.ID, DiaryPatch{Title: &title})
	requireKind(t, err, apperror.KindForbidden, "")

	page, err := e.diaries.List(ctx, u.ID, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	require.NoError(t, e.diaries.Delete(ctx, u.ID, d.ID))
	_, err = e.diaries.Owned(ctx, u.ID, d.ID)
	requireKind(t, err, apperror.KindNotFound, "")
	assert.Contains(t, e.events.types(), queue.EventDiaryCreated)
}

func TestImageUploadRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")
	other := e.register(t, "b@x.com")
	p, err := e.plants.Create(ctx, u.ID, PlantInput{Nickname: "fern"})
	require.NoError(t, err)

	upload := func(userID, name string, body []byte) (model.Image, error) {
		return e.images.Upload(ctx, userID, UploadInput{
			OwnerKind: model.OwnerPlant, OwnerID: p.ID, Filename: name, Body: bytes.NewReader(body), Note: "hi",
		})
	}

	img, err := upload(u.ID, "leaf.png", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, model.ImageGeneral, img.Type)
	assert.Equal(t, media.MIMEPNG, img.ContentType)
	assert.Equal(t, int64(len(pngBytes)), img.SizeBytes)
	assert.True(t, strings.HasPrefix(img.URL, "/media/images/2025/08/01/"))
	onDisk, err := os.ReadFile(filepath.Join(e.mediaRoot, filepath.FromSlash(img.RelPath)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, onDisk)

	_, err = upload(u.ID, "leaf.png", jpegBytes)
	requireKind(t, err, apperror.KindUnsupportedMediaType, apperror.CodeUnsupportedMediaType)
	_, err = upload(u.ID, "leaf.gif", pngBytes)
	requireKind(t, err, apperror.KindUnsupportedMediaType, "")
	_, err = upload(u.ID, "leaf.jpg", []byte("hello world"))
	requireKind(t, err, apperror.KindUnsupportedMediaType, "")
	_, err = upload(u.ID, "big.jpg", append(append([]byte{}, jpegBytes...), make([]byte, 2048)...))
	requireKind(t, err, apperror.KindPayloadTooLarge, apperror.CodePayloadTooLarge)
	_, err = upload(other.ID, "leaf.png", pngBytes)
	requireKind(t, err, apperror.KindForbidden, "")

	assert.Equal(t, []string{"mismatch", "extension", "signature", "size"}, e.rejects.reasons)

	// only the accepted upload is left on disk
	var files []string
	require.NoError(t, filepath.Walk(e.mediaRoot, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, path)
		}
		return err
	}))
	assert.Len(t, files, 1)

	page, err := e.images.List(ctx, u.ID, model.OwnerPlant, p.ID, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = e.images.Get(ctx, u.ID, model.OwnerPlant, p.ID, "missing")
	requireKind(t, err, apperror.KindNotFound, "")

	require.NoError(t, e.images.Delete(ctx, u.ID, model.OwnerPlant, p.ID, img.ID))
	_, err = os.Stat(files[0])
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteUserRemovesFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")
	d, err := e.diaries.Create(ctx, u.ID, DiaryInput{Title: "t"})
	require.NoError(t, err)
	img, err := e.images.Upload(ctx, u.ID, UploadInput{OwnerKind: model.OwnerDiary, OwnerID: d.ID, Filename: "a.jpeg", Body: bytes.NewReader(jpegBytes), Type: "diary"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(img.RelPath, ".jpg"))

	require.NoError(t, e.users.DeleteMe(ctx, u.ID))
	_, err = os.Stat(filepath.Join(e.mediaRoot, filepath.FromSlash(img.RelPath)))
	assert.True(t, os.IsNotExist(err))
	_, err = e.users.Me(ctx, u.ID)
	requireKind(t, err, apperror.KindNotFound, "")
	_, err = e.auth.Login(ctx, "a@x.com", "secret1")
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeInvalidCredentials)
}

func TestDeletedUserCannotRefreshOrWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")
	res, err := e.auth.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, e.users.DeleteMe(ctx, u.ID))

	_, err = e.auth.Refresh(ctx, res.RefreshToken)
	requireKind(t, err, apperror.KindUnauthorized, apperror.CodeTokenInvalid)

	_, err = e.plants.Create(ctx, u.ID, PlantInput{Nickname: "ghost"})
	requireKind(t, err, apperror.KindNotFound, apperror.CodeNotFound)
	_, err = e.diaries.Create(ctx, u.ID, DiaryInput{Title: "ghost"})
	requireKind(t, err, apperror.KindNotFound, apperror.CodeNotFound)
	_, err = e.users.Preferences(ctx, u.ID)
	requireKind(t, err, apperror.KindNotFound, apperror.CodeNotFound)
	_, err = e.dashboard.Summary(ctx, u.ID, 5, "")
	requireKind(t, err, apperror.KindNotFound, apperror.CodeNotFound)

	page, err := e.store.Plants().ListByUser(ctx, u.ID, pagination.Request{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestWikiCuration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	w, err := e.wiki.CreatePlant(ctx, model.PlantWiki{Species: " Ficus ", Watering: "weekly"})
	require.NoError(t, err)
	assert.Equal(t, "Ficus", w.Species)
	_, err = e.wiki.CreatePlant(ctx, model.PlantWiki{Species: "Ficus"})
	requireKind(t, err, apperror.KindConflict, apperror.CodeConflict)
	_, err = e.wiki.CreatePlant(ctx, model.PlantWiki{})
	requireKind(t, err, apperror.KindValidation, "")

	got, err := e.wiki.PlantBySpecies(ctx, "Ficus")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	w.Toxic = "mild"
	_, err = e.wiki.UpdatePlant(ctx, w.ID, w)
	require.NoError(t, err)
	requireKind(t, e.wiki.DeletePlant(ctx, 999), apperror.KindNotFound, "")

	pest, err := e.wiki.CreatePest(ctx, model.PestWiki{PestID: "mealybug", Cause: "humidity", Cure: "alcohol"})
	require.NoError(t, err)
	page, err := e.wiki.ListPests(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, pest.ID, page.Items[0].ID)
}

func TestDashboardSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")

	var ids []string
	for i := 0; i < 7; i++ {
		p, err := e.plants.Create(ctx, u.ID, PlantInput{Nickname: fmt.Sprint("p", i)})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	newest := ids[len(ids)-1]
	_, _, err := e.plants.RecordHumidity(ctx, u.ID, newest, nil, 12)
	require.NoError(t, err)
	img, err := e.images.Upload(ctx, u.ID, UploadInput{OwnerKind: model.OwnerPlant, OwnerID: newest, Filename: "t.png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	_, _, err = e.plants.RecordHumidity(ctx, u.ID, ids[len(ids)-2], nil, 55)
	require.NoError(t, err)

	sum, err := e.dashboard.Summary(ctx, u.ID, 0, "")
	require.NoError(t, err)
	require.NotNil(t, sum.Weather)
	assert.Equal(t, model.DefaultLocationCode, sum.Weather.LocationCode)
	assert.Equal(t, DefaultRoutes, sum.Routes)
	require.Len(t, sum.Plants.Items, DashboardDefault)
	assert.True(t, sum.Plants.HasMore)

	first := sum.Plants.Items[0]
	assert.Equal(t, newest, first.PlantID)
	assert.Equal(t, model.StatusLowHumidity, first.BriefStatus)
	require.NotNil(t, first.ThumbnailURL)
	assert.Equal(t, img.URL, *first.ThumbnailURL)
	assert.Equal(t, "/plants/"+newest, first.DetailPath)
	assert.Equal(t, model.StatusAdequate, sum.Plants.Items[1].BriefStatus)
	assert.Equal(t, model.StatusNoReadings, sum.Plants.Items[2].BriefStatus)
	assert.Nil(t, sum.Plants.Items[2].ThumbnailURL)

	rest, err := e.dashboard.Plants(ctx, u.ID, 50, *sum.Plants.NextCursor)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 2)
	assert.False(t, rest.HasMore)
}

func TestDashboardWeatherFailureDegrades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "a@x.com")
	e.dashboard.weather = failingWeather{}

	sum, err := e.dashboard.Summary(ctx, u.ID, 5, "")
	require.NoError(t, err)
	assert.Nil(t, sum.Weather)
	assert.Empty(t, sum.Plants.Items)
}

type brokenPlants struct{ PlantStore }

func (brokenPlants) ListByUser(context.Context, string, pagination.Request) (pagination.Page[model.Plant], error) {
	return pagination.Page[model.Plant]{}, errors.New("db down")
}

func TestDashboardPlantFailureFails(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "a@x.com")
	e.dashboard.plants = brokenPlants{}

	_, err := e.dashboard.Summary(context.Background(), u.ID, 5, "")
	requireKind(t, err, apperror.KindInternal, apperror.CodeInternal)
}
