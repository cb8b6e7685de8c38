package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/projectdiscovery/arpscan/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("Latest() on empty store = %+v, want nil", latest)
	}

	first := &types.Snapshot{
		TakenAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Hosts: []types.HostRecord{
			{IP: "192.168.1.1", MAC: "00-00-0C-11-22-33", VendorName: "Cisco Systems, Inc", BlockType: "MA-L", Private: types.BoolPtr(false), LastUpdate: "2015/11/17"},
		},
	}
	second := &types.Snapshot{
		TakenAt: first.TakenAt.Add(time.Minute),
		Hosts: []types.HostRecord{
			{IP: "192.168.1.10", MAC: "AA-BB-CC-DD-EE-FF", VendorName: "Unknown", BlockType: "Unknown", LastUpdate: "Unknown"},
			{IP: "192.168.1.2", MAC: "00-00-0C-11-22-34", VendorName: "Cisco Systems, Inc", BlockType: "MA-L", Private: types.BoolPtr(true), LastUpdate: "2015/11/17"},
		},
	}
	for _, s := range []*types.Snapshot{first, second} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if s.ID == "" {
			t.Fatal("Save() did not assign an ID")
		}
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v, want 2", n, err)
	}

	latest, err = store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID || !latest.TakenAt.Equal(second.TakenAt) {
		t.Fatalf("Latest() = %s at %s, want %s at %s", latest.ID, latest.TakenAt, second.ID, second.TakenAt)
	}
	if len(latest.Hosts) != 2 {
		t.Fatalf("Latest() has %d hosts, want 2", len(latest.Hosts))
	}
	if latest.Hosts[0].IP != "192.168.1.2" {
		t.Errorf("hosts not sorted by IP: %+v", latest.Hosts)
	}
	if latest.Hosts[0].Private == nil || !*latest.Hosts[0].Private {
		t.Errorf("Private = %v, want true", latest.Hosts[0].Private)
	}
	if latest.Hosts[1].Private != nil {
		t.Errorf("unknown Private = %v, want nil", *latest.Hosts[1].Private)
	}
}

func TestSaveDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	s := &types.Snapshot{ID: "fixed", Hosts: []types.HostRecord{{IP: "10.0.0.1", MAC: "01-02-03-04-05-06"}}}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, s); err == nil {
		t.Fatal("Save() with duplicate ID expected error")
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("Open() #%d error = %v", i, err)
		}
		_ = store.Close()
	}
}
