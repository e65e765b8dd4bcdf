package store

import "context"

// Snapshotter persists opaque cache snapshots across process restarts.
// Load returns (nil, nil) when no snapshot exists for the namespace.
type Snapshotter interface {
    Load(ctx context.Context, namespace string) ([]byte, error)
    Save(ctx context.Context, namespace string, data []byte) error
    Close() error
}
