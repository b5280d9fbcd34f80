package hydrant_test

import (
	"testing"
	"time"

	"hydrantmap/internal/docstore"
	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/testutil"
)

type fixture struct {
	svc    *hydrant.Service
	store  *docstore.MemoryDocumentStore
	clock  *testutil.StubClock
	assets *testutil.MockAssetTree
}

// newFixture builds a service on an in-memory store with the clock at
// 2024-01-15 10:30:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	store := testutil.NewTestStore(clock)
	assets := testutil.NewMockAssetTree()
	svc := hydrant.NewService(store, assets, hydrant.NewNopLogger(), clock, testutil.NewStubIDGenerator(), time.UTC)
	return &fixture{svc: svc, store: store, clock: clock, assets: assets}
}

// withStore rebuilds the fixture's service on top of store.
func (f *fixture) withStore(store hydrant.DocumentStore) *hydrant.Service {
	return hydrant.NewService(store, f.assets, hydrant.NewNopLogger(), f.clock, testutil.NewStubIDGenerator(), time.UTC)
}

func (f *fixture) liveCount(t *testing.T) int {
	t.Helper()
	hs, err := f.svc.ListHydrants()
	if err != nil {
		t.Fatalf("ListHydrants() error = %v", err)
	}
	return len(hs)
}

func (f *fixture) snapshotDates(t *testing.T) []string {
	t.Helper()
	infos, err := f.svc.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	dates := make([]string, len(infos))
	for i, info := range infos {
		dates[i] = info.Date
	}
	return dates
}

func newInput(title string) hydrant.HydrantInput {
	return hydrant.HydrantInput{Lat: 48.137, Lng: 11.575, Type: "underground", Title: title}
}
