package service

import (
	"context"
	"strings"

	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

// WikiService curates the plant and pest reference entries.
type WikiService struct {
	Deps
	wiki WikiStore
}

func NewWikiService(deps Deps, wiki WikiStore) *WikiService {
	return &WikiService{Deps: deps.withDefaults(), wiki: wiki}
}

func validatePlantWiki(w *model.PlantWiki) error {
	w.Species = strings.TrimSpace(w.Species)
	if err := checkLen("species", w.Species, 1, 100); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    string
	}{
		{"wiki_img", w.WikiImg}, {"sunlight", w.Sunlight}, {"watering", w.Watering},
		{"flowering", w.Flowering}, {"fertilizer", w.Fertilizer}, {"toxic", w.Toxic},
	} {
		if err := checkLen(f.name, f.v, 0, 500); err != nil {
			return err
		}
	}
	return nil
}

func validatePestWiki(w *model.PestWiki) error {
	w.PestID = strings.TrimSpace(w.PestID)
	if err := checkLen("pest_id", w.PestID, 1, 100); err != nil {
		return err
	}
	if err := checkLen("cause", w.Cause, 0, 2000); err != nil {
		return err
	}
	return checkLen("cure", w.Cure, 0, 2000)
}

func (s *WikiService) CreatePlant(ctx context.Context, w model.PlantWiki) (model.PlantWiki, error) {
	if err := validatePlantWiki(&w); err != nil {
		return model.PlantWiki{}, err
	}
	w.ID = 0
	if err := s.wiki.CreatePlant(ctx, &w); err != nil {
		return model.PlantWiki{}, storeErr(err, "plant wiki entry")
	}
	return w, nil
}

func (s *WikiService) Plant(ctx context.Context, id int64) (model.PlantWiki, error) {
	w, err := s.wiki.GetPlant(ctx, id)
	return w, storeErr(err, "plant wiki entry")
}

func (s *WikiService) PlantBySpecies(ctx context.Context, species string) (model.PlantWiki, error) {
	w, err := s.wiki.GetPlantBySpecies(ctx, strings.TrimSpace(species))
	return w, storeErr(err, "plant wiki entry")
}

// UpdatePlant replaces every field of entry id.
func (s *WikiService) UpdatePlant(ctx context.Context, id int64, w model.PlantWiki) (model.PlantWiki, error) {
	if err := validatePlantWiki(&w); err != nil {
		return model.PlantWiki{}, err
	}
	w.ID = id
	if err := s.wiki.UpdatePlant(ctx, w); err != nil {
		return model.PlantWiki{}, storeErr(err, "plant wiki entry")
	}
	return w, nil
}

func (s *WikiService) DeletePlant(ctx context.Context, id int64) error {
	return storeErr(s.wiki.DeletePlant(ctx, id), "plant wiki entry")
}

func (s *WikiService) ListPlants(ctx context.Context, limit int, cursor string) (pagination.Page[model.PlantWiki], error) {
	page, err := s.wiki.ListPlants(ctx, pageRequest(limit, cursor, WikiDefaultLimit, pagination.MaxLimit))
	return page, storeErr(err, "plant wiki entry")
}

func (s *WikiService) CreatePest(ctx context.Context, w model.PestWiki) (model.PestWiki, error) {
	if err := validatePestWiki(&w); err != nil {
		return model.PestWiki{}, err
	}
	w.ID = 0
	if err := s.wiki.CreatePest(ctx, &w); err != nil {
		return model.PestWiki{}, storeErr(err, "pest wiki entry")
	}
	return w, nil
}

func (s *WikiService) Pest(ctx context.Context, id int64) (model.PestWiki, error) {
	w, err := s.wiki.GetPest(ctx, id)
	return w, storeErr(err, "pest wiki entry")
}

func (s *WikiService) PestByPestID(ctx context.Context, pestID string) (model.PestWiki, error) {
	w, err := s.wiki.GetPestByPestID(ctx, strings.TrimSpace(pestID))
	return w, storeErr(err, "pest wiki entry")
}

func (s *WikiService) UpdatePest(ctx context.Context, id int64, w model.PestWiki) (model.PestWiki, error) {
	if err := validatePestWiki(&w); err != nil {
		return model.PestWiki{}, err
	}
	w.ID = id
	if err := s.wiki.UpdatePest(ctx, w); err != nil {
		return model.PestWiki{}, storeErr(err, "pest wiki entry")
	}
	return w, nil
}

func (s *WikiService) DeletePest(ctx context.Context, id int64) error {
	return storeErr(s.wiki.DeletePest(ctx, id), "pest wiki entry")
}

func (s *WikiService) ListPests(ctx context.Context, limit int, cursor string) (pagination.Page[model.PestWiki], error) {
	page, err := s.wiki.ListPests(ctx, pageRequest(limit, cursor, WikiDefaultLimit, pagination.MaxLimit))
	return page, storeErr(err, "pest wiki entry")
}
