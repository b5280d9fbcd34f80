package hydrant_test

import (
	"errors"
	"testing"

	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/testutil"
)

func TestService_RestoreSnapshot(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 5))
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 8))

	res, err := f.svc.RestoreSnapshot("2024-01-10", "admin")
	if err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if res.HydrantsRestored != 5 {
		t.Errorf("HydrantsRestored = %d, want 5", res.HydrantsRestored)
	}
	if res.BackupCreated != "hydrants_2024-01-15_103000_backup.json" {
		t.Errorf("BackupCreated = %q", res.BackupCreated)
	}

	live, err := f.svc.ListHydrants()
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 5 || live[0].ID != "old-1" {
		t.Errorf("live collection = %d hydrants starting %q, want 5 from the snapshot", len(live), live[0].ID)
	}

	backup, err := f.svc.ReadBackup(res.BackupCreated)
	if err != nil {
		t.Fatalf("ReadBackup() error = %v", err)
	}
	if len(backup.Hydrants) != 8 || backup.Meta.HydrantCount != 8 {
		t.Errorf("backup holds %d hydrants (meta %d), want 8", len(backup.Hydrants), backup.Meta.HydrantCount)
	}
	if backup.Meta.Type != hydrant.BackupType || backup.Meta.CreatedBy != "admin" {
		t.Errorf("backup meta = %+v", backup.Meta)
	}

	// The backup must survive deletion of the snapshot it guarded against.
	if err := f.svc.DeleteSnapshot("2024-01-10"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ReadBackup(res.BackupCreated); err != nil {
		t.Errorf("backup unreadable after snapshot deletion: %v", err)
	}
}

func TestService_RestoreSnapshot_KeepsCollectionVersion(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 1))
	if err := f.store.Write(hydrant.DocHydrants, hydrant.Collection{Version: "2.3", Hydrants: testutil.MakeHydrants("live", 1)}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.RestoreSnapshot("2024-01-10", "admin"); err != nil {
		t.Fatal(err)
	}
	var coll hydrant.Collection
	if err := f.store.Read(hydrant.DocHydrants, &coll); err != nil {
		t.Fatal(err)
	}
	if coll.Version != "2.3" {
		t.Errorf("Version = %q, want 2.3", coll.Version)
	}
	if coll.LastUpdated == nil || !coll.LastUpdated.Equal(f.clock.Now()) {
		t.Errorf("LastUpdated = %v, want %v", coll.LastUpdated, f.clock.Now())
	}
}

func TestService_RestoreSnapshot_BackupFailureAborts(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 5))
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 8))
	failing := testutil.NewFailingStore(f.store)
	failing.FailWrites("snapshots/hydrants_2024-01-15_")

	_, err := f.withStore(failing).RestoreSnapshot("2024-01-10", "admin")
	if !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("RestoreSnapshot() error = %v, want injected failure", err)
	}
	if got := f.liveCount(t); got != 8 {
		t.Errorf("live count = %d, want the untouched 8", got)
	}
	for _, name := range failing.Writes() {
		if name == hydrant.DocHydrants {
			t.Error("live collection written despite failed backup")
		}
	}
}

func TestService_RestoreSnapshot_Errors(t *testing.T) {
	f := newFixture(t)
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 2))

	t.Run("missing snapshot writes no backup", func(t *testing.T) {
		_, err := f.svc.RestoreSnapshot("2024-01-10", "admin")
		if !errors.Is(err, hydrant.ErrNotFound) {
			t.Errorf("RestoreSnapshot() error = %v, want ErrNotFound", err)
		}
		backups, _ := f.svc.ListBackups()
		if len(backups) != 0 {
			t.Errorf("backups = %d, want 0", len(backups))
		}
	})

	t.Run("malformed date", func(t *testing.T) {
		var ve *hydrant.ValidationError
		if _, err := f.svc.RestoreSnapshot("yesterday", "admin"); !errors.As(err, &ve) {
			t.Errorf("RestoreSnapshot() error = %v, want *ValidationError", err)
		}
	})

	t.Run("corrupt snapshot leaves live data alone", func(t *testing.T) {
		f.store.PutRaw("snapshots/hydrants_2024-01-11.json", []byte("not json"))
		var de *hydrant.DecodeError
		if _, err := f.svc.RestoreSnapshot("2024-01-11", "admin"); !errors.As(err, &de) {
			t.Errorf("RestoreSnapshot() error = %v, want *DecodeError", err)
		}
		if got := f.liveCount(t); got != 2 {
			t.Errorf("live count = %d, want 2", got)
		}
	})
}

func TestService_RestoreSnapshot_SameSecondBackupsDoNotCollide(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 5))
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 8))

	first, err := f.svc.RestoreSnapshot("2024-01-10", "admin")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.RestoreSnapshot("2024-01-10", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if first.BackupCreated == second.BackupCreated {
		t.Fatalf("both restores wrote %s", first.BackupCreated)
	}
	if second.BackupCreated != "hydrants_2024-01-15_103000_2_backup.json" {
		t.Errorf("second backup = %q", second.BackupCreated)
	}

	b1, err := f.svc.ReadBackup(first.BackupCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(b1.Hydrants) != 8 {
		t.Errorf("first backup holds %d hydrants, want 8", len(b1.Hydrants))
	}

	backups, err := f.svc.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 || backups[0].Filename != second.BackupCreated {
		t.Errorf("ListBackups() = %+v, want newest first", backups)
	}
}

func TestService_ReadBackup_RejectsOtherFiles(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"hydrants_2024-01-10.json", "../hydrants.json", "x_backup.json"} {
		var ve *hydrant.ValidationError
		if _, err := f.svc.ReadBackup(name); !errors.As(err, &ve) {
			t.Errorf("ReadBackup(%q) error = %v, want *ValidationError", name, err)
		}
	}
}
