package hydrant_test

import (
	"testing"
	"time"

	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/testutil"
)

func TestService_AutoSnapshot_OncePerDay(t *testing.T) {
	f := newFixture(t)
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 3))

	for i := 0; i < 4; i++ {
		if _, err := f.svc.CreateHydrant("admin", newInput("new")); err != nil {
			t.Fatalf("CreateHydrant() error = %v", err)
		}
		f.clock.Advance(30 * time.Minute)
	}

	infos, err := f.svc.ListSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(infos))
	}
	meta := infos[0].Meta
	if meta.HydrantCount != 3 {
		t.Errorf("HydrantCount = %d, want 3 (state before the first change)", meta.HydrantCount)
	}
	if !meta.Auto || meta.CreatedBy != hydrant.ActorAuto {
		t.Errorf("meta = %+v, want auto snapshot", meta)
	}
	if got := f.liveCount(t); got != 7 {
		t.Errorf("live count = %d, want 7", got)
	}

	f.clock.NextDay()
	if err := f.svc.DeleteHydrant("admin", "live-1"); err != nil {
		t.Fatalf("DeleteHydrant() error = %v", err)
	}
	if dates := f.snapshotDates(t); len(dates) != 2 || dates[0] != "2024-01-16" {
		t.Errorf("snapshots = %v, want a second one for 2024-01-16", dates)
	}
}

func TestService_AutoSnapshot_RespectsSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings hydrant.SnapshotSettings
		want     int
	}{
		{name: "enabled", settings: hydrant.SnapshotSettings{Enabled: true, AutoCreate: true, MaxCount: 5}, want: 1},
		{name: "disabled", settings: hydrant.SnapshotSettings{Enabled: false, AutoCreate: true, MaxCount: 5}, want: 0},
		{name: "auto create off", settings: hydrant.SnapshotSettings{Enabled: true, AutoCreate: false, MaxCount: 5}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.svc.UpdateSnapshotSettings(tt.settings); err != nil {
				t.Fatal(err)
			}
			f.svc.AutoSnapshot()
			if got := len(f.snapshotDates(t)); got != tt.want {
				t.Errorf("snapshots = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestService_AutoSnapshot_ExistingManualSnapshot(t *testing.T) {
	f := newFixture(t)
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 2))
	if _, err := f.svc.CreateSnapshot("admin", false); err != nil {
		t.Fatal(err)
	}
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 9))

	f.svc.AutoSnapshot()

	p, err := f.svc.PreviewSnapshot("2024-01-15")
	if err != nil {
		t.Fatal(err)
	}
	if p.Meta.Auto || p.HydrantCount != 2 {
		t.Errorf("manual snapshot was replaced: %+v", p.Meta)
	}
}

func TestService_AutoSnapshot_FailureDoesNotBlockMutation(t *testing.T) {
	f := newFixture(t)
	testutil.SeedCollection(t, f.store, testutil.MakeHydrants("live", 2))
	failing := testutil.NewFailingStore(f.store)
	failing.FailWrites("snapshots/")
	svc := f.withStore(failing)

	h, err := svc.CreateHydrant("admin", newInput("after failed snapshot"))
	if err != nil {
		t.Fatalf("CreateHydrant() error = %v", err)
	}
	if h.ID == "" {
		t.Error("created hydrant has no id")
	}
	if got := f.liveCount(t); got != 3 {
		t.Errorf("live count = %d, want 3", got)
	}
	if dates := f.snapshotDates(t); len(dates) != 0 {
		t.Errorf("snapshots = %v, want none", dates)
	}
}

func TestService_AutoSnapshot_CorruptSettingsDoesNotBlockMutation(t *testing.T) {
	f := newFixture(t)
	f.store.PutRaw(hydrant.DocConfig, []byte("{{"))

	if _, err := f.svc.CreateHydrant("admin", newInput("x")); err != nil {
		t.Fatalf("CreateHydrant() error = %v", err)
	}
}
