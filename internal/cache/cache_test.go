package cache

import (
    "context"
    "sync"
    "testing"
    "time"
)

// memSnap is an in-memory Snapshotter for tests.
type memSnap struct {
    mu    sync.Mutex
    blobs map[string][]byte
    saves int
}

func newMemSnap() *memSnap { return &memSnap{blobs: make(map[string][]byte)} }

func (m *memSnap) Load(_ context.Context, ns string) ([]byte, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.blobs[ns], nil
}

func (m *memSnap) Save(_ context.Context, ns string, data []byte) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.blobs[ns] = append([]byte(nil), data...)
    m.saves++
    return nil
}

func (m *memSnap) Close() error { return nil }

func TestStore_TTLBoundary(t *testing.T) {
    s := New(Options{})
    base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
    now := base
    s.now = func() time.Time { return now }

    s.Set(context.Background(), "k", []int{1, 2, 3}, time.Minute)

    var got []int
    now = base.Add(time.Minute - time.Millisecond)
    if !s.Get("k", &got) {
        t.Fatal("want hit just before ttl")
    }
    if len(got) != 3 {
        t.Fatalf("payload lost: %v", got)
    }
    now = base.Add(time.Minute + time.Millisecond)
    if s.Get("k", &got) {
        t.Fatal("want miss just after ttl")
    }
    // stale read must not remove the entry; Sweep does
    if s.Len() != 1 {
        t.Fatalf("read evicted entry, len=%d", s.Len())
    }
    if removed := s.Sweep(context.Background()); removed != 1 {
        t.Fatalf("sweep removed %d, want 1", removed)
    }
    if s.Len() != 0 {
        t.Fatalf("len after sweep: %d", s.Len())
    }
}

func TestStore_GetReturnsPrivateCopy(t *testing.T) {
    s := New(Options{})
    s.Set(context.Background(), "k", []string{"a", "b"}, time.Minute)

    var first []string
    if !s.Get("k", &first) {
        t.Fatal("miss")
    }
    first[0] = "mutated"

    var second []string
    if !s.Get("k", &second) {
        t.Fatal("miss")
    }
    if second[0] != "a" {
        t.Fatalf("mutation leaked into cache: %v", second)
    }
}

func TestStore_SnapshotRoundTripDiscardsExpired(t *testing.T) {
    snap := newMemSnap()
    s := New(Options{Snapshot: snap, Namespace: "t"})
    base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
    now := base
    s.now = func() time.Time { return now }

    s.Set(context.Background(), "fresh", "v1", time.Hour)
    s.Set(context.Background(), "stale", "v2", time.Second)
    now = base.Add(time.Minute)
    s.Sweep(context.Background()) // persists; also drops "stale"

    // simulated restart after another minute
    s2 := New(Options{Snapshot: snap, Namespace: "t"})
    now2 := base.Add(2 * time.Minute)
    s2.now = func() time.Time { return now2 }
    if err := s2.Load(context.Background()); err != nil {
        t.Fatalf("load: %v", err)
    }
    var v string
    if !s2.Get("fresh", &v) || v != "v1" {
        t.Fatalf("fresh entry lost: hit=%v v=%q", s2.Get("fresh", &v), v)
    }
    if s2.Get("stale", &v) {
        t.Fatal("expired entry survived restart")
    }
}

func TestStore_SnapshotExpiryComputedFromPersistedCreatedAt(t *testing.T) {
    snap := newMemSnap()
    s := New(Options{Snapshot: snap, Namespace: "t"})
    base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
    s.now = func() time.Time { return base }
    s.Set(context.Background(), "k", 42, time.Minute)
    s.Sweep(context.Background())

    // restart lands past the entry's ttl: discard at load time
    s2 := New(Options{Snapshot: snap, Namespace: "t"})
    s2.now = func() time.Time { return base.Add(2 * time.Minute) }
    if err := s2.Load(context.Background()); err != nil {
        t.Fatalf("load: %v", err)
    }
    if s2.Len() != 0 {
        t.Fatalf("expired snapshot entry kept, len=%d", s2.Len())
    }
}
