package ratelimit

import (
    "context"
    "sync"
    "time"
)

// Window is a sliding-window limiter: at most max calls within any trailing
// window duration. Acquire blocks until a slot frees or ctx is canceled.
type Window struct {
    max    int
    window time.Duration

    mu     sync.Mutex
    stamps []time.Time
}

func NewWindow(max int, window time.Duration) *Window {
    if max <= 0 { max = 1 }
    if window <= 0 { window = time.Second }
    return &Window{max: max, window: window, stamps: make([]time.Time, 0, max)}
}

// Acquire waits for a call slot and records the call timestamp once granted.
// The wait is re-evaluated in a loop: concurrent acquirers change the window,
// so a single fixed sleep is not enough.
func (w *Window) Acquire(ctx context.Context) error {
    for {
        w.mu.Lock()
        now := time.Now()
        cut := now.Add(-w.window)
        i := 0
        for i < len(w.stamps) && !w.stamps[i].After(cut) { i++ }
        if i > 0 {
            w.stamps = append(w.stamps[:0], w.stamps[i:]...)
        }
        if len(w.stamps) < w.max {
            w.stamps = append(w.stamps, now)
            w.mu.Unlock()
            return nil
        }
        wait := w.stamps[0].Add(w.window).Sub(now)
        w.mu.Unlock()

        if wait <= 0 { wait = time.Millisecond }
        timer := time.NewTimer(wait)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}

// Set holds one Window per provider id. Providers without a configured
// window pass through unthrottled.
type Set struct {
    mu      sync.Mutex
    windows map[string]*Window
}

func NewSet() *Set {
    return &Set{windows: make(map[string]*Window)}
}

func (s *Set) Configure(provider string, max int, window time.Duration) {
    s.mu.Lock()
    s.windows[provider] = NewWindow(max, window)
    s.mu.Unlock()
}

func (s *Set) Acquire(ctx context.Context, provider string) error {
    s.mu.Lock()
    w := s.windows[provider]
    s.mu.Unlock()
    if w == nil {
        return nil
    }
    return w.Acquire(ctx)
}
