package hydrant

import (
	"errors"
	"fmt"
	"path"
	"sort"
)

// maxBackupAttempts bounds the search for a free backup name within one second.
const maxBackupAttempts = 100

// RestoreSnapshot replaces the live collection with the hydrants of the
// snapshot for date. The current live collection is first saved as a
// pre-restore backup; if that write fails nothing is restored.
func (s *Service) RestoreSnapshot(date, actor string) (*RestoreResult, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := s.store.Read(snapshotName(date), &snap); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", date, err)
	}

	live, err := s.readCollection()
	if err != nil {
		return nil, err
	}

	backup, err := s.writeBackup(live, actor)
	if err != nil {
		return nil, fmt.Errorf("restore of %s aborted: %w", date, err)
	}

	hydrants := snap.Hydrants
	if hydrants == nil {
		hydrants = []Hydrant{}
	}
	restored := &Collection{
		Version:  live.Version,
		Hydrants: hydrants,
	}
	if err := s.writeCollection(restored); err != nil {
		return nil, fmt.Errorf("restoring %s (backup %s kept): %w", date, backup, err)
	}

	s.logger.Info("snapshot restored",
		"date", date,
		"hydrants", len(hydrants),
		"replaced", len(live.Hydrants),
		"backup", backup,
		"actor", actor,
	)
	return &RestoreResult{
		Date:             date,
		HydrantsRestored: len(hydrants),
		BackupCreated:    backup,
	}, nil
}

// writeBackup saves coll under a fresh timestamped name and returns the
// file name. An existing backup is never overwritten.
func (s *Service) writeBackup(coll *Collection, actor string) (string, error) {
	now := s.now()
	doc := BackupDocument{
		Meta: BackupMeta{
			Created:      now,
			HydrantCount: len(coll.Hydrants),
			CreatedBy:    actor,
			Type:         BackupType,
			Version:      coll.Version,
		},
		Hydrants: coll.Hydrants,
	}

	for n := 1; n <= maxBackupAttempts; n++ {
		filename := backupFilename(now, n)
		name := path.Join(SnapshotsDir, filename)
		_, err := s.store.Stat(name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("checking backup name %s: %w", filename, err)
		}
		if err := s.store.Write(name, doc); err != nil {
			return "", fmt.Errorf("writing pre-restore backup: %w", err)
		}
		return filename, nil
	}
	return "", &IOError{Op: "backup", Name: backupFilename(now, 1), Err: errors.New("no free backup name")}
}

// ListBackups returns the pre-restore backups, newest first. Backups are
// never rotated.
func (s *Service) ListBackups() ([]*BackupInfo, error) {
	entries, err := s.store.List(SnapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	var infos []*BackupInfo
	for _, e := range entries {
		filename := path.Base(e.Name)
		if !isBackupFilename(filename) {
			continue
		}
		info := &BackupInfo{
			Filename: filename,
			Size:     e.Size,
			Modified: e.ModTime,
		}
		var doc struct {
			Meta BackupMeta `json:"meta"`
		}
		if err := s.store.Read(e.Name, &doc); err != nil {
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				return nil, fmt.Errorf("reading backup %s: %w", filename, err)
			}
			info.Corrupt = true
		} else {
			info.Meta = doc.Meta
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		ti, ni := backupOrder(infos[i].Filename)
		tj, nj := backupOrder(infos[j].Filename)
		if ti != tj {
			return ti > tj
		}
		return ni > nj
	})
	return infos, nil
}

// ReadBackup returns the full contents of a pre-restore backup.
func (s *Service) ReadBackup(filename string) (*BackupDocument, error) {
	if !isBackupFilename(filename) {
		return nil, &ValidationError{Field: "filename", Message: fmt.Sprintf("%q is not a backup file name", filename)}
	}
	var doc BackupDocument
	if err := s.store.Read(path.Join(SnapshotsDir, filename), &doc); err != nil {
		return nil, fmt.Errorf("backup %s: %w", filename, err)
	}
	return &doc, nil
}
