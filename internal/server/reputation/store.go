package reputation

import (
	"sync"
	"time"
)

// Expiry selects how a Store decides that cached values are stale.
type Expiry int

const (
	// ExpiryEpoch validates the whole store against the time of the last
	// bulk write: every entry expires TTL after the most recent Put,
	// whenever it was written.
	ExpiryEpoch Expiry = iota
	// ExpiryPerEntry expires each entry TTL after its own write.
	ExpiryPerEntry
)

// ParseExpiry maps a config value ("epoch" or "entry") to an Expiry.
func ParseExpiry(s string) (Expiry, bool) {
	switch s {
	case "epoch", "":
		return ExpiryEpoch, true
	case "entry":
		return ExpiryPerEntry, true
	default:
		return ExpiryEpoch, false
	}
}

type entry[V any] struct {
	value     V
	writtenAt time.Time
}

// Lookup is the result of Store.Get. Hits and Misses partition the
// requested fids.
type Lookup[V any] struct {
	Hits   map[int64]V
	Misses []int64
}

// Status is a read-only snapshot of a store.
type Status struct {
	Valid       bool `json:"valid"`
	AgeSeconds  int  `json:"ageSeconds"`
	CachedCount int  `json:"cachedCount"`
	TTLSeconds  int  `json:"ttlSeconds"`
}

// Store is a TTL-bound cache keyed by fid. The entry map and the bulk
// write epoch change together under one lock.
type Store[V any] struct {
	mu            sync.RWMutex
	entries       map[int64]entry[V]
	lastBulkWrite time.Time
	ttl           time.Duration
	expiry        Expiry
	now           func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	expiry Expiry
	now    func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.now = now }
}

// WithExpiry selects the expiry mode. The default is ExpiryEpoch.
func WithExpiry(e Expiry) StoreOption {
	return func(o *storeOptions) { o.expiry = e }
}

// NewStore creates an empty store.
func NewStore[V any](ttl time.Duration, opts ...StoreOption) *Store[V] {
	o := storeOptions{expiry: ExpiryEpoch, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{
		entries: make(map[int64]entry[V]),
		ttl:     ttl,
		expiry:  o.expiry,
		now:     o.now,
	}
}

// Get splits fids into cached hits and misses. Duplicate fids are reported
// once.
func (s *Store[V]) Get(fids []int64) Lookup[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	epochValid := s.validAt(s.lastBulkWrite, now)

	result := Lookup[V]{Hits: make(map[int64]V)}
	seen := make(map[int64]struct{}, len(fids))
	for _, fid := range fids {
		if _, dup := seen[fid]; dup {
			continue
		}
		seen[fid] = struct{}{}

		e, ok := s.entries[fid]
		if ok {
			switch s.expiry {
			case ExpiryPerEntry:
				ok = s.validAt(e.writtenAt, now)
			default:
				ok = epochValid
			}
		}

		if ok {
			result.Hits[fid] = e.value
		} else {
			result.Misses = append(result.Misses, fid)
		}
	}
	return result
}

// Put merges values into the store and advances the epoch. Entries not in
// values are kept.
func (s *Store[V]) Put(values map[int64]V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for fid, v := range values {
		s.entries[fid] = entry[V]{value: v, writtenAt: now}
	}
	s.lastBulkWrite = now
}

// Clear empties the store and resets the epoch, so every lookup misses.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[int64]entry[V])
	s.lastBulkWrite = time.Time{}
}

// Status reports validity and size without mutating the store.
func (s *Store[V]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	st := Status{
		Valid:       s.validAt(s.lastBulkWrite, now),
		CachedCount: len(s.entries),
		TTLSeconds:  int(s.ttl / time.Second),
	}
	if !s.lastBulkWrite.IsZero() {
		st.AgeSeconds = int(now.Sub(s.lastBulkWrite) / time.Second)
	}
	return st
}

// Snapshot returns a copy of every stored value, stale or not.
func (s *Store[V]) Snapshot() map[int64]V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]V, len(s.entries))
	for fid, e := range s.entries {
		out[fid] = e.value
	}
	return out
}

func (s *Store[V]) validAt(written, now time.Time) bool {
	if written.IsZero() {
		return false
	}
	return now.Sub(written) < s.ttl
}
