package macvendor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

var testEntries = []Entry{
	{MacPrefix: "00:00:0C", VendorName: "Cisco Systems, Inc", Private: boolPtr(false), BlockType: "MA-L", LastUpdate: "2015/11/17"},
	{MacPrefix: "70:B3:D5:F2:F", VendorName: "Small Block Vendor", Private: boolPtr(false), BlockType: "MA-S", LastUpdate: "2019/07/02"},
	{MacPrefix: "70:B3:D5", VendorName: "IEEE Registration Authority", Private: nil, BlockType: "MA-L", LastUpdate: "2016/04/15"},
}

func boolPtr(v bool) *bool { return &v }

type countingFetcher struct {
	calls   atomic.Int32
	entries []Entry
	err     error
}

func (f *countingFetcher) Fetch(context.Context) ([]Entry, error) {
	f.calls.Add(1)
	return f.entries, f.err
}

func writeDatabase(t *testing.T, path string, db Database) {
	t.Helper()
	data, err := json.Marshal(db)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readDatabase(t *testing.T, path string) Database {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return db
}

func TestInitialize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("fresh cache is used without download", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "macDatabase.json")
		writeDatabase(t, path, Database{LastUpdate: now.Add(-time.Hour), MacInformations: testEntries})
		fetcher := &countingFetcher{err: errors.New("must not be called")}

		c := New(path, fetcher, WithClock(clock))
		if got := c.Initialize(context.Background(), true); got != SourceCache {
			t.Fatalf("Initialize() = %s, want %s", got, SourceCache)
		}
		if fetcher.calls.Load() != 0 {
			t.Fatalf("fetcher called %d times", fetcher.calls.Load())
		}
		if c.Len() != len(testEntries) {
			t.Fatalf("Len() = %d", c.Len())
		}
	})

	t.Run("stale cache is replaced and persisted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "macDatabase.json")
		writeDatabase(t, path, Database{LastUpdate: now.Add(-8 * 24 * time.Hour), MacInformations: testEntries[:1]})
		fetcher := &countingFetcher{entries: testEntries}

		c := New(path, fetcher, WithClock(clock))
		if got := c.Initialize(context.Background(), true); got != SourceRemote {
			t.Fatalf("Initialize() = %s, want %s", got, SourceRemote)
		}
		db := readDatabase(t, path)
		if !db.LastUpdate.Equal(now) {
			t.Fatalf("persisted LastUpdate = %s, want %s", db.LastUpdate, now)
		}
		if len(db.MacInformations) != len(testEntries) {
			t.Fatalf("persisted %d entries", len(db.MacInformations))
		}
		matches, _ := filepath.Glob(path + ".*.tmp")
		if len(matches) != 0 {
			t.Fatalf("temporary files left behind: %v", matches)
		}
	})

	t.Run("stale cache survives failed download", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "macDatabase.json")
		old := now.Add(-30 * 24 * time.Hour)
		writeDatabase(t, path, Database{LastUpdate: old, MacInformations: testEntries})
		fetcher := &countingFetcher{err: errors.New("offline")}

		c := New(path, fetcher, WithClock(clock))
		if got := c.Initialize(context.Background(), true); got != SourceStale {
			t.Fatalf("Initialize() = %s, want %s", got, SourceStale)
		}
		if got := c.Lookup("00-00-0C-12-34-56").VendorName; got != "Cisco Systems, Inc" {
			t.Fatalf("Lookup() vendor = %q", got)
		}
		if db := readDatabase(t, path); !db.LastUpdate.Equal(old) {
			t.Fatalf("cache file was modified")
		}
	})

	t.Run("no cache and failed download", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "macDatabase.json")
		fetcher := &countingFetcher{err: errors.New("offline")}

		c := New(path, fetcher, WithClock(clock))
		if got := c.Initialize(context.Background(), true); got != SourceEmpty {
			t.Fatalf("Initialize() = %s, want %s", got, SourceEmpty)
		}
		if got := c.Lookup("00:00:0C:12:34:56").VendorName; got != Unknown {
			t.Fatalf("Lookup() vendor = %q, want %q", got, Unknown)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("cache file should not exist, stat err = %v", err)
		}
	})

	t.Run("corrupted cache triggers download", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "macDatabase.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		fetcher := &countingFetcher{entries: testEntries}

		c := New(path, fetcher, WithClock(clock))
		if got := c.Initialize(context.Background(), true); got != SourceRemote {
			t.Fatalf("Initialize() = %s, want %s", got, SourceRemote)
		}
		if fetcher.calls.Load() != 1 {
			t.Fatalf("fetcher called %d times", fetcher.calls.Load())
		}
	})

	t.Run("missing directories are created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "b", "macDatabase.json")
		c := New(path, &countingFetcher{entries: testEntries}, WithClock(clock))
		c.Initialize(context.Background(), true)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("cache not persisted: %v", err)
		}
	})

	t.Run("custom stale threshold", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "macDatabase.json")
		writeDatabase(t, path, Database{LastUpdate: now.Add(-2 * time.Hour), MacInformations: testEntries})
		fetcher := &countingFetcher{entries: testEntries}

		c := New(path, fetcher, WithClock(clock), WithStaleAfter(time.Hour))
		if got := c.Initialize(context.Background(), true); got != SourceRemote {
			t.Fatalf("Initialize() = %s, want %s", got, SourceRemote)
		}
	})
}

func TestLookup(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "db.json"), FetcherFunc(func(context.Context) ([]Entry, error) {
		return testEntries, nil
	}))
	c.Initialize(context.Background(), true)

	tests := []struct {
		name   string
		mac    string
		vendor string
		prefix string
	}{
		{"dashes", "00-00-0C-AA-BB-CC", "Cisco Systems, Inc", "00:00:0C"},
		{"colons lower case", "00:00:0c:aa:bb:cc", "Cisco Systems, Inc", "00:00:0C"},
		{"longest prefix wins", "70-B3-D5-F2-F1-23", "Small Block Vendor", "70:B3:D5:F2:F"},
		{"falls back to shorter block", "70-B3-D5-01-02-03", "IEEE Registration Authority", "70:B3:D5"},
		{"unknown", "AA-BB-CC-DD-EE-FF", Unknown, "AA:BB:CC"},
		{"short input", "AA", Unknown, "AA"},
		{"empty input", "", Unknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Lookup(tt.mac)
			if got.VendorName != tt.vendor {
				t.Errorf("VendorName = %q, want %q", got.VendorName, tt.vendor)
			}
			if got.MacPrefix != tt.prefix {
				t.Errorf("MacPrefix = %q, want %q", got.MacPrefix, tt.prefix)
			}
		})
	}
}

func TestLookupUnknownEntry(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "db.json"), &countingFetcher{err: errors.New("offline")})
	c.Initialize(context.Background(), true)

	got := c.Lookup("AA-BB-CC-DD-EE-FF")
	want := Entry{MacPrefix: "AA:BB:CC", VendorName: Unknown, BlockType: Unknown, LastUpdate: Unknown}
	if got.MacPrefix != want.MacPrefix || got.VendorName != want.VendorName || got.BlockType != want.BlockType || got.LastUpdate != want.LastUpdate {
		t.Fatalf("Lookup() = %+v, want %+v", got, want)
	}
	if got.Private != nil {
		t.Fatalf("Private = %v, want nil", *got.Private)
	}
}

func TestLookupReturnsStoredEntry(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "db.json"), &countingFetcher{entries: testEntries})
	c.Initialize(context.Background(), true)

	got := c.Lookup("00-00-0C-01-02-03")
	want := testEntries[0]
	if got.MacPrefix != want.MacPrefix || got.VendorName != want.VendorName || got.BlockType != want.BlockType || got.LastUpdate != want.LastUpdate {
		t.Fatalf("Lookup() = %+v, want %+v", got, want)
	}
	if got.Private == nil || *got.Private {
		t.Fatalf("Private = %v, want false", got.Private)
	}
}
