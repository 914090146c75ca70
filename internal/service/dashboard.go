package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
	"github.com/eunhae2004/MakeFinalProject-main/internal/weather"
)

// WeatherView is the weather block of the dashboard.
type WeatherView struct {
	LocationCode string    `json:"location_code"`
	Name         string    `json:"name"`
	TempC        float64   `json:"temp_c"`
	Condition    string    `json:"condition"`
	IconURL      string    `json:"icon_url"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlantSummary is one swipe card of the dashboard.
type PlantSummary struct {
	PlantID      string    `json:"plant_id"`
	Nickname     string    `json:"nickname"`
	BriefStatus  string    `json:"brief_status"`
	LastUpdateAt time.Time `json:"last_update_at"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	DetailPath   string    `json:"detail_path"`
}

type Routes struct {
	Main    string `json:"main"`
	Diary   string `json:"diary"`
	Profile string `json:"profile"`
}

var DefaultRoutes = Routes{Main: "/", Diary: "/diary", Profile: "/profile"}

type Summary struct {
	Weather *WeatherView                  `json:"weather"`
	Plants  pagination.Page[PlantSummary] `json:"plants"`
	Routes  Routes                        `json:"routes"`
}

// summaryWorkers bounds the per-plant lookups run at once.
const summaryWorkers = 4

type DashboardService struct {
	Deps
	users    *UserService
	weather  weather.Client
	plants   PlantStore
	humidity HumidityStore
	images   ImageStore
}

func NewDashboardService(deps Deps, users *UserService, wc weather.Client, plants PlantStore, humidity HumidityStore, images ImageStore) *DashboardService {
	return &DashboardService{Deps: deps.withDefaults(), users: users, weather: wc, plants: plants, humidity: humidity, images: images}
}

// Summary loads preferences first, then weather and plant summaries
// concurrently. A weather failure yields a nil Weather; a plant failure
// fails the whole call.
func (s *DashboardService) Summary(ctx context.Context, userID string, limit int, cursor string) (Summary, error) {
	prefs, err := s.users.Preferences(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	var (
		out Summary
		g   errgroup.Group
	)
	out.Routes = DefaultRoutes
	g.Go(func() error {
		out.Weather = s.currentWeather(ctx, prefs)
		return nil
	})
	g.Go(func() error {
		page, err := s.Plants(ctx, userID, limit, cursor)
		out.Plants = page
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *DashboardService) currentWeather(ctx context.Context, prefs model.Preferences) *WeatherView {
	if s.weather == nil {
		return nil
	}
	r, err := s.weather.Current(ctx, prefs.LocationCode)
	if err != nil {
		s.Log.Warn().Err(err).Str("location", prefs.LocationCode).Msg("weather lookup failed")
		return nil
	}
	return &WeatherView{
		LocationCode: prefs.LocationCode,
		Name:         prefs.LocationName,
		TempC:        r.TempC,
		Condition:    r.Condition,
		IconURL:      r.IconURL,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Plants pages through the user's plants and decorates each with its latest
// humidity status and thumbnail.
func (s *DashboardService) Plants(ctx context.Context, userID string, limit int, cursor string) (pagination.Page[PlantSummary], error) {
	page, err := s.plants.ListByUser(ctx, userID, pageRequest(limit, cursor, DashboardDefault, DashboardMax))
	if err != nil {
		return pagination.Page[PlantSummary]{}, storeErr(err, "plant")
	}

	out := pagination.MapPage(page, func(p model.Plant) PlantSummary {
		return PlantSummary{PlantID: p.ID, Nickname: p.Nickname, LastUpdateAt: p.UpdatedAt, DetailPath: "/plants/" + p.ID}
	})
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryWorkers)
	for i := range out.Items {
		item := &out.Items[i]
		g.Go(func() error {
			latest, err := s.humidity.Latest(gctx, item.PlantID)
			if err != nil {
				return storeErr(err, "humidity reading")
			}
			item.BriefStatus = model.BriefStatus(latest)
			if latest != nil {
				item.LastUpdateAt = latest.MeasuredAt
			}
			img, err := s.images.LatestForOwner(gctx, model.OwnerPlant, item.PlantID)
			if err != nil {
				return storeErr(err, "image")
			}
			if img != nil {
				item.ThumbnailURL = &img.URL
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pagination.Page[PlantSummary]{}, err
	}
	return out, nil
}
