package hydrant

import (
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/samber/lo"
)

// previewLimit is the number of hydrants included in a snapshot preview.
const previewLimit = 10

// ListSnapshots returns all retained snapshots, newest date first.
// A snapshot whose JSON cannot be decoded is still listed, flagged Corrupt,
// so that an operator can see and delete it.
func (s *Service) ListSnapshots() ([]*SnapshotInfo, error) {
	entries, err := s.store.List(SnapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	archives := make(map[string]int64)
	for _, e := range entries {
		if date, ok := archiveDate(path.Base(e.Name)); ok {
			archives[date] = e.Size
		}
	}

	var infos []*SnapshotInfo
	for _, e := range entries {
		date, ok := snapshotDate(path.Base(e.Name))
		if !ok {
			continue
		}
		info := &SnapshotInfo{
			Date:     date,
			Filename: path.Base(e.Name),
			Size:     e.Size,
			Modified: e.ModTime,
		}
		if size, ok := archives[date]; ok {
			info.HasImages = true
			info.ImagesSize = size
		}

		meta, err := s.readSnapshotMeta(e.Name)
		if err != nil {
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				return nil, err
			}
			s.logger.Warn("snapshot is not valid JSON", "file", info.Filename, "error", err)
			info.Corrupt = true
		} else {
			info.Meta = *meta
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Date > infos[j].Date })
	return infos, nil
}

// readSnapshotMeta decodes only the meta block of a snapshot document.
func (s *Service) readSnapshotMeta(name string) (*SnapshotMeta, error) {
	var doc struct {
		Meta SnapshotMeta `json:"meta"`
	}
	if err := s.store.Read(name, &doc); err != nil {
		return nil, fmt.Errorf("reading snapshot meta: %w", err)
	}
	return &doc.Meta, nil
}

// snapshotDates returns the dates of all retained snapshots, oldest first.
func (s *Service) snapshotDates() ([]string, error) {
	entries, err := s.store.List(SnapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	dates := lo.FilterMap(entries, func(e *DocumentInfo, _ int) (string, bool) {
		return snapshotDate(path.Base(e.Name))
	})
	sort.Strings(dates)
	return dates, nil
}

// SnapshotExists reports whether a snapshot file exists for date.
func (s *Service) SnapshotExists(date string) (bool, error) {
	if err := ValidateDate(date); err != nil {
		return false, err
	}
	if _, err := s.store.Stat(snapshotName(date)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking snapshot %s: %w", date, err)
	}
	return true, nil
}

// SnapshotInfo returns the listing entry for a single date.
func (s *Service) SnapshotInfo(date string) (*SnapshotInfo, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	st, err := s.store.Stat(snapshotName(date))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", date, err)
	}
	meta, err := s.readSnapshotMeta(st.Name)
	if err != nil {
		return nil, err
	}
	info := &SnapshotInfo{
		Date:     date,
		Filename: SnapshotFilename(date),
		Size:     st.Size,
		Modified: st.ModTime,
		Meta:     *meta,
	}
	if ast, err := s.store.Stat(archiveName(date)); err == nil {
		info.HasImages = true
		info.ImagesSize = ast.Size
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking image archive %s: %w", date, err)
	}
	return info, nil
}

// CreateSnapshot writes a snapshot of the live collection for today's date,
// overwriting any snapshot already taken today, and then applies rotation.
//
// When backupImages is set the photo-asset tree is archived first; the
// snapshot records images_backed_up only if that archive was written.
func (s *Service) CreateSnapshot(actor string, backupImages bool) (*SnapshotInfo, error) {
	return s.createSnapshot(actor, backupImages, false)
}

func (s *Service) createSnapshot(actor string, backupImages bool, auto bool) (*SnapshotInfo, error) {
	date := s.Today()

	coll, err := s.readCollection()
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		Meta: SnapshotMeta{
			Created:      s.now(),
			HydrantCount: len(coll.Hydrants),
			CreatedBy:    actor,
			Auto:         auto,
		},
		Hydrants: coll.Hydrants,
	}

	if backupImages {
		count, err := s.writeImageArchive(archiveName(date))
		if err != nil {
			s.logger.Warn("image archive failed, snapshot taken without images", "date", date, "error", err)
		} else {
			snap.Meta.ImagesBackedUp = true
			s.logger.Info("image archive written", "date", date, "files", count)
		}
	}

	if err := s.store.Write(snapshotName(date), snap); err != nil {
		return nil, fmt.Errorf("writing snapshot %s: %w", date, err)
	}
	s.logger.Info("snapshot created",
		"date", date,
		"hydrants", snap.Meta.HydrantCount,
		"actor", actor,
		"auto", auto,
		"images", snap.Meta.ImagesBackedUp,
	)

	settings, err := s.SnapshotSettings()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s created but rotation skipped: %w", date, err)
	}
	if _, err := s.Rotate(settings.MaxCount); err != nil {
		return nil, fmt.Errorf("snapshot %s created but rotation failed: %w", date, err)
	}

	return s.SnapshotInfo(date)
}

// PreviewSnapshot returns the hydrant count, the first hydrants and the meta
// block of the snapshot for date. It never writes.
func (s *Service) PreviewSnapshot(date string) (*SnapshotPreview, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := s.store.Read(snapshotName(date), &snap); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", date, err)
	}

	first := snap.Hydrants
	if len(first) > previewLimit {
		first = first[:previewLimit]
	}
	if first == nil {
		first = []Hydrant{}
	}

	return &SnapshotPreview{
		HydrantCount: len(snap.Hydrants),
		Hydrants:     first,
		Meta:         snap.Meta,
	}, nil
}

// DeleteSnapshot removes the snapshot for date and its image archive.
// Removing the archive is best-effort: a failure there is logged and the
// call still succeeds because the snapshot itself is gone.
func (s *Service) DeleteSnapshot(date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if err := s.store.Remove(snapshotName(date)); err != nil {
		return fmt.Errorf("snapshot %s: %w", date, err)
	}
	s.removeArchive(date)
	s.logger.Info("snapshot deleted", "date", date)
	return nil
}

// removeArchive removes the paired image archive for date, if any.
func (s *Service) removeArchive(date string) {
	if err := s.store.Remove(archiveName(date)); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("removing image archive failed", "date", date, "error", err)
	}
}
