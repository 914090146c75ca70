package model

import "time"

// Diary mirrors `diaries`.
type Diary struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	Hashtags     string    `db:"hashtags"`
	PlantContent string    `db:"plant_content"`
	Weather      string    `db:"weather"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
