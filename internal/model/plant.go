package model

import "time"

// Plant mirrors `plants`. Species, PestID and Location are empty when
// unknown; MetOn is nil when the user never said when they got the plant.
type Plant struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Nickname  string     `db:"nickname"`
	Species   string     `db:"species"`
	PestID    string     `db:"pest_id"`
	MetOn     *time.Time `db:"met_on"`
	Location  string     `db:"location"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// HumidityReading mirrors `humidity_readings`. (PlantID, MeasuredAt) is the
// primary key.
type HumidityReading struct {
	PlantID    string    `db:"plant_id"`
	MeasuredAt time.Time `db:"measured_at"`
	Humidity   float64   `db:"humidity"`
}

// Brief plant status derived from the latest humidity reading.
const (
	StatusLowHumidity = "low_humidity"
	StatusAdequate    = "adequate"
	StatusNoReadings  = "no_readings"

	LowHumidityThreshold = 30.0
)

// BriefStatus classifies the latest reading of a plant. A nil reading means
// the plant was never measured.
func BriefStatus(latest *HumidityReading) string {
	switch {
	case latest == nil:
		return StatusNoReadings
	case latest.Humidity < LowHumidityThreshold:
		return StatusLowHumidity
	default:
		return StatusAdequate
	}
}
