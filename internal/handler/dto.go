package handler

import (
	"time"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
)

const dateLayout = "2006-01-02"

// userOut is the public view of a user; the password hash never leaves the
// service.
type userOut struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Phone     *string   `json:"phone"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toUser(u model.User) userOut {
	return userOut{
		ID:        u.ID,
		Handle:    u.Handle,
		Email:     u.Email,
		Nickname:  u.Nickname,
		Phone:     optional(u.Phone),
		AvatarURL: optional(u.AvatarURL),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type weatherLocation struct {
	LocationCode string `json:"location_code"`
	Name         string `json:"name"`
}

type preferencesOut struct {
	WeatherLocation weatherLocation `json:"weather_location"`
}

func toPreferences(p model.Preferences) preferencesOut {
	return preferencesOut{WeatherLocation: weatherLocation{LocationCode: p.LocationCode, Name: p.LocationName}}
}

type plantOut struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Species   *string   `json:"species"`
	PestID    *string   `json:"pest_id"`
	MetOn     *string   `json:"met_on"`
	Location  *string   `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPlant(p model.Plant) plantOut {
	out := plantOut{
		ID:        p.ID,
		UserID:    p.UserID,
		Nickname:  p.Nickname,
		Species:   optional(p.Species),
		PestID:    optional(p.PestID),
		Location:  optional(p.Location),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.MetOn != nil {
		out.MetOn = optional(p.MetOn.Format(dateLayout))
	}
	return out
}

type humidityOut struct {
	PlantID    string    `json:"plant_id"`
	MeasuredAt time.Time `json:"measured_at"`
	Humidity   float64   `json:"humidity"`
}

func toHumidity(h model.HumidityReading) humidityOut {
	return humidityOut{PlantID: h.PlantID, MeasuredAt: h.MeasuredAt, Humidity: h.Humidity}
}

type diaryOut struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Hashtags     string    `json:"hashtags"`
	PlantContent string    `json:"plant_content"`
	Weather      string    `json:"weather"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toDiary(d model.Diary) diaryOut {
	return diaryOut{
		ID:           d.ID,
		UserID:       d.UserID,
		Title:        d.Title,
		Content:      d.Content,
		Hashtags:     d.Hashtags,
		PlantContent: d.PlantContent,
		Weather:      d.Weather,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type imageOut struct {
	ImageID     string    `json:"image_id"`
	OwnerKind   string    `json:"owner_kind"`
	OwnerID     string    `json:"owner_id"`
	PlantID     string    `json:"plant_id,omitempty"`
	DiaryID     string    `json:"diary_id,omitempty"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Note        *string   `json:"note"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func toImage(img model.Image) imageOut {
	out := imageOut{
		ImageID:     img.ID,
		OwnerKind:   img.OwnerKind,
		OwnerID:     img.OwnerID,
		URL:         img.URL,
		Type:        img.Type,
		Note:        optional(img.Note),
		ContentType: img.ContentType,
		SizeBytes:   img.SizeBytes,
		UploadedAt:  img.UploadedAt,
	}
	switch img.OwnerKind {
	case model.OwnerPlant:
		out.PlantID = img.OwnerID
	case model.OwnerDiary:
		out.DiaryID = img.OwnerID
	}
	return out
}

type plantWikiDTO struct {
	ID         int64  `json:"id"`
	Species    string `json:"species"`
	WikiImg    string `json:"wiki_img"`
	Sunlight   string `json:"sunlight"`
	Watering   string `json:"watering"`
	Flowering  string `json:"flowering"`
	Fertilizer string `json:"fertilizer"`
	Toxic      string `json:"toxic"`
}

func toPlantWiki(w model.PlantWiki) plantWikiDTO { return plantWikiDTO(w) }

type pestWikiDTO struct {
	ID     int64  `json:"id"`
	PestID string `json:"pest_id"`
	Cause  string `json:"cause"`
	Cure   string `json:"cure"`
}

func toPestWiki(w model.PestWiki) pestWikiDTO { return pestWikiDTO(w) }
