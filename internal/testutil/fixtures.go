package testutil

import (
	"fmt"
	"testing"
	"time"

	"hydrantmap/internal/hydrant"
)

// MakeHydrants returns n distinct hydrants with IDs "<prefix>-1".."<prefix>-n".
func MakeHydrants(prefix string, n int) []hydrant.Hydrant {
	created := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	hs := make([]hydrant.Hydrant, n)
	for i := range hs {
		hs[i] = hydrant.Hydrant{
			ID:        fmt.Sprintf("%s-%d", prefix, i+1),
			Lat:       48.1 + float64(i)*0.001,
			Lng:       11.5 + float64(i)*0.001,
			Type:      "underground",
			Title:     fmt.Sprintf("Hydrant %s %d", prefix, i+1),
			Photos:    []string{},
			CreatedAt: created,
			CreatedBy: "admin",
			UpdatedAt: created,
			UpdatedBy: "admin",
		}
	}
	return hs
}

// SeedCollection writes hydrants as the live collection.
func SeedCollection(t *testing.T, store hydrant.DocumentStore, hydrants []hydrant.Hydrant) {
	t.Helper()
	coll := hydrant.Collection{Version: hydrant.DefaultCollectionVersion, Hydrants: hydrants}
	if err := store.Write(hydrant.DocHydrants, coll); err != nil {
		t.Fatalf("seeding live collection: %v", err)
	}
}

// SeedSnapshot writes a snapshot document for date directly, bypassing the
// service.
func SeedSnapshot(t *testing.T, store hydrant.DocumentStore, date string, hydrants []hydrant.Hydrant) {
	t.Helper()
	created, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("seeding snapshot: %v", err)
	}
	snap := hydrant.Snapshot{
		Meta: hydrant.SnapshotMeta{
			Created:      created.Add(8 * time.Hour),
			HydrantCount: len(hydrants),
			CreatedBy:    "admin",
		},
		Hydrants: hydrants,
	}
	if err := store.Write("snapshots/"+hydrant.SnapshotFilename(date), snap); err != nil {
		t.Fatalf("seeding snapshot %s: %v", date, err)
	}
}
