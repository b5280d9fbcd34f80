package hydrant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxSnapshots is the retention limit used when config.json does not
// set a usable snapshots.max_count.
const DefaultMaxSnapshots = 20

// DefaultSnapshotSettings returns the settings in effect when config.json is
// absent or has no snapshots block.
func DefaultSnapshotSettings() SnapshotSettings {
	return SnapshotSettings{
		Enabled:      true,
		AutoCreate:   true,
		MaxCount:     DefaultMaxSnapshots,
		BackupImages: false,
	}
}

// SnapshotSettings reads the snapshots block of config.json. It is read on
// every call; missing keys keep their defaults.
func (s *Service) SnapshotSettings() (*SnapshotSettings, error) {
	doc := struct {
		Snapshots SnapshotSettings `json:"snapshots"`
	}{Snapshots: DefaultSnapshotSettings()}

	if err := s.store.Read(DocConfig, &doc); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if doc.Snapshots.MaxCount < 1 {
		doc.Snapshots.MaxCount = DefaultMaxSnapshots
	}
	return &doc.Snapshots, nil
}

// UpdateSnapshotSettings replaces the snapshots block of config.json and
// leaves every other key of the document untouched.
func (s *Service) UpdateSnapshotSettings(settings SnapshotSettings) error {
	if settings.MaxCount < 1 {
		return &ValidationError{Field: "max_count", Message: "must be at least 1"}
	}

	doc := map[string]json.RawMessage{}
	if err := s.store.Read(DocConfig, &doc); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("reading settings: %w", err)
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	doc["snapshots"] = raw

	if err := s.store.Write(DocConfig, doc); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	s.logger.Info("snapshot settings updated",
		"enabled", settings.Enabled,
		"auto_create", settings.AutoCreate,
		"max_count", settings.MaxCount,
		"backup_images", settings.BackupImages,
	)
	return nil
}

// DefaultMarkerTypes is served when marker_types.json does not exist.
func DefaultMarkerTypes() []MarkerType {
	return []MarkerType{
		{ID: "underground", Label: "Underground hydrant", Color: "#1565c0"},
		{ID: "overground", Label: "Overground hydrant", Color: "#c62828"},
		{ID: "cistern", Label: "Water cistern", Color: "#2e7d32"},
		{ID: "open_water", Label: "Open water source", Color: "#00838f"},
	}
}

// MarkerTypes returns the configured hydrant types.
func (s *Service) MarkerTypes() ([]MarkerType, error) {
	var doc struct {
		Types []MarkerType `json:"types"`
	}
	if err := s.store.Read(DocMarkerTypes, &doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return DefaultMarkerTypes(), nil
		}
		return nil, fmt.Errorf("reading marker types: %w", err)
	}
	return doc.Types, nil
}

// UpdateMarkerTypes replaces the configured hydrant types.
func (s *Service) UpdateMarkerTypes(types []MarkerType) error {
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return &ValidationError{Field: "types", Message: "marker type id must not be empty"}
		}
		if seen[id] {
			return &ValidationError{Field: "types", Message: fmt.Sprintf("duplicate marker type %q", id)}
		}
		seen[id] = true
	}

	doc := struct {
		Types []MarkerType `json:"types"`
	}{Types: types}
	if err := s.store.Write(DocMarkerTypes, doc); err != nil {
		return fmt.Errorf("writing marker types: %w", err)
	}
	return nil
}
