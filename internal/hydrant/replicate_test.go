package hydrant_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"hydrantmap/internal/encryption"
	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/testutil"
)

func TestReplicator_PushPull_Encrypted(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 5))
	f.store.PutRaw("snapshots/images_2024-01-10.zip", []byte("PK-archive"))

	vault := testutil.NewTestVault()
	enc := encryption.NewTestEncryptor()
	r := hydrant.NewReplicator(f.store, vault, enc, hydrant.NewNopLogger())

	keys, err := r.Push("2024-01-10")
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	want := "snapshots/hydrants_2024-01-10.json.age,snapshots/images_2024-01-10.zip.age"
	if got := strings.Join(keys, ","); got != want {
		t.Errorf("Push() keys = %s, want %s", got, want)
	}
	if enc.Encrypted() != 2 {
		t.Errorf("Encrypted() = %d, want 2", enc.Encrypted())
	}

	var stored bytes.Buffer
	if err := vault.Get("snapshots/hydrants_2024-01-10.json.age", &stored); err != nil {
		t.Fatal(err)
	}
	if bytes.HasPrefix(stored.Bytes(), []byte("{")) {
		t.Error("vault object is plaintext")
	}

	// Pull into a fresh store, as after losing the server.
	fresh := testutil.NewTestStore(f.clock)
	r2 := hydrant.NewReplicator(fresh, vault, enc, hydrant.NewNopLogger())
	dec, err := enc.Unlock("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r2.Pull("2024-01-10", dec); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	orig, _ := f.store.Raw("snapshots/hydrants_2024-01-10.json")
	pulled, ok := fresh.Raw("snapshots/hydrants_2024-01-10.json")
	if !ok || !bytes.Equal(orig, pulled) {
		t.Error("pulled snapshot differs from the original")
	}
	if archive, _ := fresh.Raw("snapshots/images_2024-01-10.zip"); string(archive) != "PK-archive" {
		t.Errorf("pulled archive = %q", archive)
	}

	svc := hydrant.NewService(fresh, nil, hydrant.NewNopLogger(), f.clock, testutil.NewStubIDGenerator(), nil)
	p, err := svc.PreviewSnapshot("2024-01-10")
	if err != nil {
		t.Fatalf("PreviewSnapshot() on pulled snapshot error = %v", err)
	}
	if p.HydrantCount != 5 {
		t.Errorf("pulled HydrantCount = %d, want 5", p.HydrantCount)
	}
}

func TestReplicator_Plaintext(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 1))
	vault := testutil.NewTestVault()
	r := hydrant.NewReplicator(f.store, vault, nil, hydrant.NewNopLogger())

	keys, err := r.Push("2024-01-10")
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "snapshots/hydrants_2024-01-10.json" {
		t.Errorf("Push() keys = %v", keys)
	}

	fresh := testutil.NewTestStore(f.clock)
	if _, err := hydrant.NewReplicator(fresh, vault, nil, hydrant.NewNopLogger()).Pull("2024-01-10", nil); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
}

func TestReplicator_Errors(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSnapshot(t, f.store, "2024-01-10", testutil.MakeHydrants("old", 1))
	vault := testutil.NewTestVault()
	r := hydrant.NewReplicator(f.store, vault, encryption.NewTestEncryptor(), hydrant.NewNopLogger())

	if _, err := r.Push("2024-01-09"); !errors.Is(err, hydrant.ErrNotFound) {
		t.Errorf("Push(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := r.Push("2024-01-10"); err != nil {
		t.Fatal(err)
	}

	t.Run("pull refuses to overwrite", func(t *testing.T) {
		if _, err := r.Pull("2024-01-10", encryption.TestDecryptionContext{}); !errors.Is(err, hydrant.ErrSnapshotExists) {
			t.Errorf("Pull() error = %v, want ErrSnapshotExists", err)
		}
	})

	t.Run("pull of unknown date", func(t *testing.T) {
		fresh := testutil.NewTestStore(f.clock)
		r2 := hydrant.NewReplicator(fresh, vault, nil, hydrant.NewNopLogger())
		if _, err := r2.Pull("2023-05-05", nil); !errors.Is(err, hydrant.ErrNotFound) {
			t.Errorf("Pull() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("encrypted pull without key", func(t *testing.T) {
		fresh := testutil.NewTestStore(f.clock)
		r2 := hydrant.NewReplicator(fresh, vault, nil, hydrant.NewNopLogger())
		if _, err := r2.Pull("2024-01-10", nil); err == nil {
			t.Error("Pull() expected error without decryption key")
		}
		if fresh.Len() != 0 {
			t.Error("failed pull wrote to the store")
		}
	})
}

func TestReplicator_Remote(t *testing.T) {
	f := newFixture(t)
	vault := testutil.NewTestVault()
	for _, k := range []string{
		"snapshots/hydrants_2024-01-10.json.age",
		"snapshots/images_2024-01-10.zip.age",
		"snapshots/hydrants_2024-01-12.json",
		"snapshots/readme.txt",
	} {
		if err := vault.Put(k, strings.NewReader("x"), 1); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := hydrant.NewReplicator(f.store, vault, nil, hydrant.NewNopLogger()).Remote()
	if err != nil {
		t.Fatalf("Remote() error = %v", err)
	}
	if got := strings.Join(dates, ","); got != "2024-01-12,2024-01-10" {
		t.Errorf("Remote() = %s", got)
	}
}
