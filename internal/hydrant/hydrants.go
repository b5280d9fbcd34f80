package hydrant

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// HydrantInput carries the caller-editable fields of a hydrant.
type HydrantInput struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}

func (in *HydrantInput) validate(types []MarkerType) error {
	if in.Lat < -90 || in.Lat > 90 {
		return &ValidationError{Field: "lat", Message: fmt.Sprintf("%v is out of range", in.Lat)}
	}
	if in.Lng < -180 || in.Lng > 180 {
		return &ValidationError{Field: "lng", Message: fmt.Sprintf("%v is out of range", in.Lng)}
	}
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if !lo.ContainsBy(types, func(t MarkerType) bool { return t.ID == in.Type }) {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown marker type %q", in.Type)}
	}
	return nil
}

func (s *Service) validateInput(in *HydrantInput) error {
	types, err := s.MarkerTypes()
	if err != nil {
		return err
	}
	return in.validate(types)
}

// ListHydrants returns the live collection's hydrants.
func (s *Service) ListHydrants() ([]Hydrant, error) {
	coll, err := s.readCollection()
	if err != nil {
		return nil, err
	}
	return coll.Hydrants, nil
}

// GetHydrant returns a single hydrant by id.
func (s *Service) GetHydrant(id string) (*Hydrant, error) {
	coll, err := s.readCollection()
	if err != nil {
		return nil, err
	}
	h, ok := lo.Find(coll.Hydrants, func(h Hydrant) bool { return h.ID == id })
	if !ok {
		return nil, fmt.Errorf("hydrant %s: %w", id, ErrNotFound)
	}
	return &h, nil
}

// CreateHydrant adds a hydrant to the live collection.
func (s *Service) CreateHydrant(actor string, in HydrantInput) (*Hydrant, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	s.AutoSnapshot()

	coll, err := s.readCollection()
	if err != nil {
		return nil, err
	}
	now := s.now()
	h := Hydrant{
		ID:          s.idgen.New(),
		Lat:         in.Lat,
		Lng:         in.Lng,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Photos:      lo.Ternary(in.Photos == nil, []string{}, in.Photos),
		CreatedAt:   now,
		CreatedBy:   actor,
		UpdatedAt:   now,
		UpdatedBy:   actor,
	}
	coll.Hydrants = append(coll.Hydrants, h)
	if err := s.writeCollection(coll); err != nil {
		return nil, err
	}
	s.logger.Info("hydrant created", "id", h.ID, "actor", actor)
	return &h, nil
}

// UpdateHydrant replaces the editable fields of an existing hydrant.
func (s *Service) UpdateHydrant(actor, id string, in HydrantInput) (*Hydrant, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	s.AutoSnapshot()

	coll, err := s.readCollection()
	if err != nil {
		return nil, err
	}
	_, idx, ok := lo.FindIndexOf(coll.Hydrants, func(h Hydrant) bool { return h.ID == id })
	if !ok {
		return nil, fmt.Errorf("hydrant %s: %w", id, ErrNotFound)
	}

	h := &coll.Hydrants[idx]
	h.Lat = in.Lat
	h.Lng = in.Lng
	h.Type = in.Type
	h.Title = strings.TrimSpace(in.Title)
	h.Description = in.Description
	if in.Photos != nil {
		h.Photos = in.Photos
	}
	h.UpdatedAt = s.now()
	h.UpdatedBy = actor

	if err := s.writeCollection(coll); err != nil {
		return nil, err
	}
	s.logger.Info("hydrant updated", "id", id, "actor", actor)
	updated := *h
	return &updated, nil
}

// DeleteHydrant removes a hydrant from the live collection.
func (s *Service) DeleteHydrant(actor, id string) error {
	s.AutoSnapshot()

	coll, err := s.readCollection()
	if err != nil {
		return err
	}
	remaining := lo.Reject(coll.Hydrants, func(h Hydrant, _ int) bool { return h.ID == id })
	if len(remaining) == len(coll.Hydrants) {
		return fmt.Errorf("hydrant %s: %w", id, ErrNotFound)
	}
	coll.Hydrants = remaining
	if err := s.writeCollection(coll); err != nil {
		return err
	}
	s.logger.Info("hydrant deleted", "id", id, "actor", actor)
	return nil
}
