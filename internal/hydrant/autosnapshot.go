package hydrant

import "fmt"

// AutoSnapshot takes the first snapshot of the day before the live
// collection is changed. It never fails: any error is logged and dropped so
// that the mutation which triggered it proceeds.
func (s *Service) AutoSnapshot() {
	if err := s.autoSnapshot(); err != nil {
		s.logger.Warn("auto snapshot failed", "error", err)
	}
}

func (s *Service) autoSnapshot() error {
	settings, err := s.SnapshotSettings()
	if err != nil {
		return err
	}
	if !settings.Enabled || !settings.AutoCreate {
		return nil
	}

	// Not locked: two processes may both see no snapshot and both write
	// one; the later rename wins.
	exists, err := s.SnapshotExists(s.Today())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := s.createSnapshot(ActorAuto, false, true); err != nil {
		return fmt.Errorf("creating auto snapshot: %w", err)
	}
	return nil
}
