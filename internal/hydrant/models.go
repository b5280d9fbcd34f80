package hydrant

import "time"

// DefaultCollectionVersion is written into a live collection that has no version yet.
const DefaultCollectionVersion = "1.0"

// Hydrant is a single mapped hydrant.
type Hydrant struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   string    `json:"updated_by"`
}

// Collection is the live hydrant inventory stored in hydrants.json.
type Collection struct {
	Version     string     `json:"version"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Hydrants    []Hydrant  `json:"hydrants"`
}

// SnapshotMeta is the metadata block embedded in every snapshot document.
type SnapshotMeta struct {
	Created        time.Time `json:"created"`
	HydrantCount   int       `json:"hydrant_count"`
	CreatedBy      string    `json:"created_by"`
	Auto           bool      `json:"auto"`
	ImagesBackedUp bool      `json:"images_backed_up"`
}

// Snapshot is a dated copy of the hydrant collection,
// persisted as snapshots/hydrants_YYYY-MM-DD.json.
type Snapshot struct {
	Meta     SnapshotMeta `json:"meta"`
	Hydrants []Hydrant    `json:"hydrants"`
}

// SnapshotInfo describes a retained snapshot for listings. It merges the
// file's size and modification time with the embedded meta block.
type SnapshotInfo struct {
	Date       string       `json:"date"`
	Filename   string       `json:"filename"`
	Size       int64        `json:"size"`
	Modified   time.Time    `json:"modified"`
	Meta       SnapshotMeta `json:"meta"`
	Corrupt    bool         `json:"corrupt,omitempty"`
	HasImages  bool         `json:"has_images"`
	ImagesSize int64        `json:"images_size,omitempty"`
}

// SnapshotPreview is the read-only summary returned by PreviewSnapshot.
type SnapshotPreview struct {
	HydrantCount int          `json:"hydrant_count"`
	Hydrants     []Hydrant    `json:"hydrants"`
	Meta         SnapshotMeta `json:"meta"`
}

// BackupType tags pre-restore safety copies.
const BackupType = "pre-restore-backup"

// BackupMeta is the metadata block of a pre-restore backup document.
type BackupMeta struct {
	Created      time.Time `json:"created"`
	HydrantCount int       `json:"hydrant_count"`
	CreatedBy    string    `json:"created_by"`
	Type         string    `json:"type"`
	Version      string    `json:"version,omitempty"`
}

// BackupDocument is the safety copy written immediately before a restore
// replaces the live collection. Backups are never rotated.
type BackupDocument struct {
	Meta     BackupMeta `json:"meta"`
	Hydrants []Hydrant  `json:"hydrants"`
}

// BackupInfo describes a pre-restore backup for listings.
type BackupInfo struct {
	Filename string     `json:"filename"`
	Size     int64      `json:"size"`
	Modified time.Time  `json:"modified"`
	Meta     BackupMeta `json:"meta"`
	Corrupt  bool       `json:"corrupt,omitempty"`
}

// RestoreResult reports what a restore did so an operator can see both the
// restored count and where the previous state went.
type RestoreResult struct {
	Date             string `json:"date"`
	HydrantsRestored int    `json:"hydrants_restored"`
	BackupCreated    string `json:"backup_created"`
}

// MarkerType is one entry of the dynamically configured set of hydrant types.
type MarkerType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// SnapshotSettings is the "snapshots" block of config.json.
// The backupImages key is camel-cased in the file format.
type SnapshotSettings struct {
	Enabled      bool `json:"enabled"`
	AutoCreate   bool `json:"auto_create"`
	MaxCount     int  `json:"max_count"`
	BackupImages bool `json:"backupImages"`
}

// Actors used when no authenticated user is behind an operation.
const (
	ActorAnonymous = "anonymous"
	ActorAuto      = "auto"
	ActorSystem    = "system"
)
