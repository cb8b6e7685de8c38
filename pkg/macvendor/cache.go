package macvendor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
	fileutil "github.com/projectdiscovery/utils/file"
	"github.com/rs/xid"
)

// DefaultStaleAfter is the age after which the cached database is refreshed
const DefaultStaleAfter = 7 * 24 * time.Hour

// Source reports which database Initialize ended up using
type Source int

const (
	// SourceEmpty means no database is available and every lookup is Unknown
	SourceEmpty Source = iota
	// SourceCache means the on-disk database was fresh and used as-is
	SourceCache
	// SourceRemote means a new database was downloaded and persisted
	SourceRemote
	// SourceStale means the download failed and the outdated cache is used
	SourceStale
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceRemote:
		return "remote"
	case SourceStale:
		return "stale"
	default:
		return "empty"
	}
}

// Option configures a Cache
type Option func(*Cache)

// WithStaleAfter overrides DefaultStaleAfter
func WithStaleAfter(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

// WithClock overrides the time source used for staleness checks
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache resolves hardware addresses to vendor entries. Initialize must
// return before Lookup is called; after that Lookup is safe for concurrent use.
type Cache struct {
	path       string
	fetcher    Fetcher
	staleAfter time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	db      Database
	index   map[string]Entry
	lookups gcache.Cache[string, Entry]
}

// New returns an empty cache persisted at path
func New(path string, fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		path:       path,
		fetcher:    fetcher,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		index:      map[string]Entry{},
		lookups:    newLookupCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the location of the persisted database
func (c *Cache) Path() string {
	return c.path
}

// Initialize loads the persisted database and refreshes it when it is missing
// or older than the stale threshold. Failures are logged unless silent and never
// returned: the cache degrades to stale data or to all-Unknown lookups.
func (c *Cache) Initialize(ctx context.Context, silent bool) Source {
	cached, err := c.load()
	if err != nil && !silent {
		gologger.Warning().Msgf("Could not read vendor cache %s: %s", c.path, err)
	}

	now := c.now()
	if err == nil && cached != nil && now.Sub(cached.LastUpdate) < c.staleAfter {
		c.use(*cached)
		if !silent {
			gologger.Verbose().Msgf("Using vendor cache %s updated %s", c.path, humanize.RelTime(cached.LastUpdate, now, "ago", "from now"))
		}
		return SourceCache
	}

	if !silent {
		gologger.Info().Msgf("Downloading vendor database")
	}
	entries, fetchErr := c.fetcher.Fetch(ctx)
	if fetchErr != nil {
		if cached != nil {
			c.use(*cached)
			if !silent {
				gologger.Warning().Msgf("Could not update vendor database, using cache from %s: %s", humanize.RelTime(cached.LastUpdate, now, "ago", "from now"), fetchErr)
			}
			return SourceStale
		}
		if !silent {
			gologger.Error().Msgf("Could not download vendor database, vendors will be reported as %s: %s", Unknown, fetchErr)
		}
		return SourceEmpty
	}

	db := Database{LastUpdate: now, MacInformations: entries}
	c.use(db)
	if err := c.save(db); err != nil && !silent {
		gologger.Warning().Msgf("Could not persist vendor cache %s: %s", c.path, err)
	}
	if !silent {
		gologger.Info().Msgf("Vendor database updated with %s entries", humanize.Comma(int64(len(entries))))
	}
	return SourceRemote
}

// Lookup returns the entry with the longest prefix matching mac, or a
// synthetic Unknown entry. It never fails.
func (c *Cache) Lookup(mac string) Entry {
	hex := normalizeHex(mac)

	c.mu.RLock()
	index, lookups := c.index, c.lookups
	c.mu.RUnlock()

	if entry, err := lookups.Get(hex); err == nil {
		return entry
	}
	entry, ok := lookupIndex(index, hex)
	if !ok {
		entry = UnknownEntry(mac)
	}
	_ = lookups.Set(hex, entry)
	return entry
}

// Len returns the number of entries in the active database
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.db.MacInformations)
}

// LastUpdate returns the download time of the active database
func (c *Cache) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db.LastUpdate
}

func (c *Cache) use(db Database) {
	index := buildIndex(db.MacInformations)
	c.mu.Lock()
	c.db = db
	c.index = index
	c.lookups = newLookupCache()
	c.mu.Unlock()
}

func newLookupCache() gcache.Cache[string, Entry] {
	return gcache.New[string, Entry](4096).LRU().Build()
}

// load returns nil without error when nothing is persisted yet
func (c *Cache) load() (*Database, error) {
	if !fileutil.FileExists(c.path) {
		return nil, nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("corrupted vendor cache: %w", err)
	}
	return &db, nil
}

// save writes db to a temporary file next to path and renames it into place
func (c *Cache) save(db Database) error {
	dir := filepath.Dir(c.path)
	if !fileutil.FolderExists(dir) {
		if err := fileutil.CreateFolder(dir); err != nil {
			return fmt.Errorf("could not create cache directory: %w", err)
		}
	}

	data, err := json.Marshal(db)
	if err != nil {
		return err
	}

	tmp := fmt.Sprintf("%s.%s.tmp", c.path, xid.New().String())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
