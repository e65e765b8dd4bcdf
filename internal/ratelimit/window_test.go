package ratelimit

import (
    "context"
    "testing"
    "time"
)

func TestWindow_AllowsUpToMaxImmediately(t *testing.T) {
    w := NewWindow(3, time.Second)
    start := time.Now()
    for i := 0; i < 3; i++ {
        if err := w.Acquire(context.Background()); err != nil {
            t.Fatalf("acquire %d: %v", i, err)
        }
    }
    if el := time.Since(start); el > 100*time.Millisecond {
        t.Fatalf("first %d acquires should not block, took %v", 3, el)
    }
}

func TestWindow_OverQuotaDelaysWithinWindow(t *testing.T) {
    const window = 300 * time.Millisecond
    w := NewWindow(2, window)
    for i := 0; i < 2; i++ {
        if err := w.Acquire(context.Background()); err != nil {
            t.Fatalf("acquire %d: %v", i, err)
        }
    }
    start := time.Now()
    if err := w.Acquire(context.Background()); err != nil {
        t.Fatalf("third acquire: %v", err)
    }
    el := time.Since(start)
    if el < 100*time.Millisecond {
        t.Fatalf("third acquire returned too fast: %v", el)
    }
    if el > window+200*time.Millisecond {
        t.Fatalf("third acquire waited longer than the window: %v", el)
    }
}

func TestWindow_AcquireHonorsContextCancel(t *testing.T) {
    w := NewWindow(1, time.Minute)
    if err := w.Acquire(context.Background()); err != nil {
        t.Fatalf("first acquire: %v", err)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
    defer cancel()
    if err := w.Acquire(ctx); err != context.DeadlineExceeded {
        t.Fatalf("want DeadlineExceeded, got %v", err)
    }
}

func TestSet_UnconfiguredProviderPassesThrough(t *testing.T) {
    s := NewSet()
    s.Configure("yahoo", 1, time.Minute)
    if err := s.Acquire(context.Background(), "yahoo"); err != nil {
        t.Fatalf("yahoo: %v", err)
    }
    // no limiter registered for this one, must not block
    done := make(chan struct{})
    go func() {
        _ = s.Acquire(context.Background(), "newsfeed")
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("unconfigured provider blocked")
    }
}
