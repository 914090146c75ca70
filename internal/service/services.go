package service

import (
	"github.com/eunhae2004/MakeFinalProject-main/internal/token"
	"github.com/eunhae2004/MakeFinalProject-main/internal/weather"
)

// Options carries everything needed to build the service layer.
type Options struct {
	Deps
	Stores     Stores
	Tokens     *token.Service
	Files      FileStore
	Weather    weather.Client
	Uploads    UploadRecorder
	BcryptCost int
}

// Services is the wired service layer.
type Services struct {
	Auth      *AuthService
	Users     *UserService
	Plants    *PlantService
	Diaries   *DiaryService
	Images    *ImageService
	Wiki      *WikiService
	Dashboard *DashboardService
}

func New(o Options) *Services {
	st := o.Stores
	users := NewUserService(o.Deps, st.Users, st.Preferences, o.Files, o.BcryptCost)
	plants := NewPlantService(o.Deps, st.Plants, st.Humidity, o.Files)
	diaries := NewDiaryService(o.Deps, st.Diaries, o.Files)
	return &Services{
		Auth:      NewAuthService(o.Deps, st.Users, o.Tokens, o.BcryptCost),
		Users:     users,
		Plants:    plants,
		Diaries:   diaries,
		Images:    NewImageService(o.Deps, st.Images, plants, diaries, o.Files, o.Uploads),
		Wiki:      NewWikiService(o.Deps, st.Wiki),
		Dashboard: NewDashboardService(o.Deps, users, o.Weather, st.Plants, st.Humidity, st.Images),
	}
}
