package cache

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "math/rand"
    "sync"
    "time"

    "marketgateway/internal/store"
)

// entry is one cached payload with its expiry bookkeeping. The payload is
// kept marshaled so every Get hands the caller a private copy.
type entry struct {
    Payload   json.RawMessage `json:"payload"`
    CreatedAt time.Time       `json:"created_at"`
    TTL       time.Duration   `json:"ttl"`
}

func (e entry) expired(now time.Time) bool {
    return now.After(e.CreatedAt.Add(e.TTL))
}

// Options configures a Store. Snapshot is optional; without it the store is
// purely in-memory.
type Options struct {
    Snapshot store.Snapshotter
    // Namespace keys the durable snapshot blob.
    Namespace string
    // PersistProb samples writes for background persistence (0..1).
    // Persisting on every Set would make write cost O(cache size).
    PersistProb float64
}

// Store is a TTL key-value cache mirrored to a durable snapshot.
// Entries are replaced, never mutated; a stale entry is a miss on read and
// is physically removed by Sweep or overwritten by the next Set.
type Store struct {
    mu    sync.RWMutex
    items map[string]entry

    snap        store.Snapshotter
    namespace   string
    persistProb float64

    now func() time.Time
}

func New(opts Options) *Store {
    ns := opts.Namespace
    if ns == "" { ns = "marketdata" }
    return &Store{
        items:       make(map[string]entry),
        snap:        opts.Snapshot,
        namespace:   ns,
        persistProb: opts.PersistProb,
        now:         time.Now,
    }
}

// Load seeds the store from the durable snapshot. Entries whose remaining
// ttl already elapsed while the process was down are discarded here.
func (s *Store) Load(ctx context.Context) error {
    if s.snap == nil {
        return nil
    }
    blob, err := s.snap.Load(ctx, s.namespace)
    if err != nil {
        return fmt.Errorf("cache load: %w", err)
    }
    if len(blob) == 0 {
        return nil
    }
    var items map[string]entry
    if err := json.Unmarshal(blob, &items); err != nil {
        return fmt.Errorf("cache load: decode snapshot: %w", err)
    }
    now := s.now()
    kept := 0
    s.mu.Lock()
    for k, e := range items {
        if e.expired(now) {
            continue
        }
        s.items[k] = e
        kept++
    }
    s.mu.Unlock()
    log.Printf("cache: restored %d of %d snapshot entries", kept, len(items))
    return nil
}

// Get unmarshals the cached payload for key into dst and reports a hit.
// An entry past its ttl is a miss; it is not deleted here so the read path
// stays lock-cheap, Sweep handles removal.
func (s *Store) Get(key string, dst any) bool {
    s.mu.RLock()
    e, ok := s.items[key]
    s.mu.RUnlock()
    if !ok || e.expired(s.now()) {
        return false
    }
    if err := json.Unmarshal(e.Payload, dst); err != nil {
        return false
    }
    return true
}

// Set replaces the entry for key. Last writer wins; cache entries are
// idempotent derivations of provider state so no further coordination is
// needed. A sampled subset of writes triggers a background persist.
func (s *Store) Set(ctx context.Context, key string, v any, ttl time.Duration) {
    payload, err := json.Marshal(v)
    if err != nil {
        log.Printf("cache: marshal %q: %v", key, err)
        return
    }
    s.mu.Lock()
    s.items[key] = entry{Payload: payload, CreatedAt: s.now(), TTL: ttl}
    s.mu.Unlock()

    if s.snap != nil && s.persistProb > 0 && rand.Float64() < s.persistProb {
        go s.persist(context.WithoutCancel(ctx))
    }
}

// Sweep removes every expired entry and persists the surviving map.
// Returns the number of removed entries.
func (s *Store) Sweep(ctx context.Context) int {
    now := s.now()
    s.mu.Lock()
    removed := 0
    for k, e := range s.items {
        if e.expired(now) {
            delete(s.items, k)
            removed++
        }
    }
    s.mu.Unlock()
    if s.snap != nil {
        s.persist(ctx)
    }
    return removed
}

func (s *Store) Len() int {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return len(s.items)
}

func (s *Store) persist(ctx context.Context) {
    s.mu.RLock()
    blob, err := json.Marshal(s.items)
    s.mu.RUnlock()
    if err != nil {
        log.Printf("cache: encode snapshot: %v", err)
        return
    }
    if err := s.snap.Save(ctx, s.namespace, blob); err != nil {
        log.Printf("cache: persist snapshot: %v", err)
    }
}
