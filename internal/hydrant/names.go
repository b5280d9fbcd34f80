package hydrant

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02_150405"
)

var (
	snapshotFileRe = regexp.MustCompile(`^hydrants_(\d{4}-\d{2}-\d{2})\.json$`)
	archiveFileRe  = regexp.MustCompile(`^images_(\d{4}-\d{2}-\d{2})\.zip$`)
	backupFileRe   = regexp.MustCompile(`^hydrants_(\d{4}-\d{2}-\d{2}_\d{6})(?:_(\d+))?_backup\.json$`)
	dateRe         = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// SnapshotFilename returns the snapshot file name for a date.
func SnapshotFilename(date string) string {
	return "hydrants_" + date + ".json"
}

// ArchiveFilename returns the paired image archive file name for a date.
func ArchiveFilename(date string) string {
	return "images_" + date + ".zip"
}

func snapshotName(date string) string {
	return path.Join(SnapshotsDir, SnapshotFilename(date))
}

func archiveName(date string) string {
	return path.Join(SnapshotsDir, ArchiveFilename(date))
}

// backupFilename builds the pre-restore backup name. n > 1 disambiguates two
// backups taken within the same second.
func backupFilename(ts time.Time, n int) string {
	if n > 1 {
		return fmt.Sprintf("hydrants_%s_%d_backup.json", ts.Format(timestampLayout), n)
	}
	return fmt.Sprintf("hydrants_%s_backup.json", ts.Format(timestampLayout))
}

// snapshotDate extracts the date from a snapshot file name.
func snapshotDate(filename string) (string, bool) {
	m := snapshotFileRe.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func archiveDate(filename string) (string, bool) {
	m := archiveFileRe.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func isBackupFilename(filename string) bool {
	return backupFileRe.MatchString(filename)
}

// backupOrder returns the timestamp and counter of a backup file name.
func backupOrder(filename string) (string, int) {
	m := backupFileRe.FindStringSubmatch(filename)
	if m == nil {
		return "", 0
	}
	n := 1
	if m[2] != "" {
		n, _ = strconv.Atoi(m[2])
	}
	return m[1], n
}

// ValidateDate checks that date is a real calendar date in YYYY-MM-DD form.
func ValidateDate(date string) error {
	if !dateRe.MatchString(date) {
		return &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not in YYYY-MM-DD format", date)}
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not a calendar date", date)}
	}
	return nil
}
