package external

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"

	"cropsense/internal/types"
)

// snapshot is the on-disk cache record for one location: the last readings
// we successfully fetched, gzip-compressed JSON.
type snapshot struct {
	FetchedAt    time.Time                  `json:"fetched_at"`
	Current      *types.WeatherObservation  `json:"current,omitempty"`
	Observations []types.WeatherObservation `json:"observations,omitempty"`
}

// SnapshotCache persists the last known readings per location so a full
// provider outage degrades to stale data instead of an empty cycle.
type SnapshotCache struct {
	dir   string
	ttl   time.Duration
	clock clockwork.Clock
}

// NewSnapshotCache creates the cache directory if needed. Entries older
// than ttl are treated as absent.
func NewSnapshotCache(dir string, ttl time.Duration, clock clockwork.Clock) (*SnapshotCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			fmt.Sprintf("failed to create cache directory %s", dir), err)
	}
	return &SnapshotCache{dir: dir, ttl: ttl, clock: clock}, nil
}

// Store merges into the snapshot for a location: a section the caller did
// not supply keeps its previously cached value, so writing a current
// reading never discards a cached range and vice versa. Best effort:
// callers log and continue on error since the cache is a degradation path,
// not a store of record.
func (c *SnapshotCache) Store(location string, current *types.WeatherObservation, observations []types.WeatherObservation) error {
	snap := snapshot{
		FetchedAt:    c.clock.Now().UTC(),
		Current:      current,
		Observations: observations,
	}
	if prior, ok := c.Load(location); ok {
		if snap.Current == nil {
			snap.Current = prior.Current
		}
		if snap.Observations == nil {
			snap.Observations = prior.Observations
		}
	}

	tmp, err := os.CreateTemp(c.dir, "snap-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		tmp.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(location))
}

// Load returns the snapshot for a location, or (nil, false) when missing,
// expired, or unreadable.
func (c *SnapshotCache) Load(location string) (*snapshot, bool) {
	f, err := os.Open(c.path(location))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false
	}
	defer zr.Close()

	var snap snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, false
	}
	if c.clock.Now().UTC().Sub(snap.FetchedAt) > c.ttl {
		return nil, false
	}
	return &snap, true
}

// path sanitizes the location into a stable filename.
func (c *SnapshotCache) path(location string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, location)
	return filepath.Join(c.dir, name+".json.gz")
}
