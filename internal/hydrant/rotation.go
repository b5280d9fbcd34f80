package hydrant

import (
	"fmt"
)

// Rotate removes the oldest snapshots, with their image archives, until at
// most maxCount remain. It returns the evicted dates, oldest first.
// maxCount < 1 means DefaultMaxSnapshots.
func (s *Service) Rotate(maxCount int) ([]string, error) {
	if maxCount < 1 {
		maxCount = DefaultMaxSnapshots
	}

	dates, err := s.snapshotDates()
	if err != nil {
		return nil, err
	}
	if len(dates) <= maxCount {
		return nil, nil
	}

	excess := dates[:len(dates)-maxCount]
	evicted := make([]string, 0, len(excess))
	for _, date := range excess {
		if err := s.store.Remove(snapshotName(date)); err != nil {
			return evicted, fmt.Errorf("rotating out snapshot %s: %w", date, err)
		}
		s.removeArchive(date)
		evicted = append(evicted, date)
		s.logger.Info("snapshot rotated out", "date", date, "max_count", maxCount)
	}
	return evicted, nil
}
