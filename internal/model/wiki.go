package model

// PlantWiki mirrors `plant_wiki`, the reference sheet for one species.
type PlantWiki struct {
	ID         int64  `db:"id"`
	Species    string `db:"species"`
	WikiImg    string `db:"wiki_img"`
	Sunlight   string `db:"sunlight"`
	Watering   string `db:"watering"`
	Flowering  string `db:"flowering"`
	Fertilizer string `db:"fertilizer"`
	Toxic      string `db:"toxic"`
}

// PestWiki mirrors `pest_wiki`.
type PestWiki struct {
	ID     int64  `db:"id"`
	PestID string `db:"pest_id"`
	Cause  string `db:"cause"`
	Cure   string `db:"cure"`
}
