package store

import (
    "context"
    "errors"
    "fmt"

    "github.com/redis/go-redis/v9"
)

// Redis stores snapshots under snapshot:<namespace>. Alternate backend for
// deployments without a writable disk.
type Redis struct {
    client *redis.Client
}

func OpenRedis(addr, password string, db int) (*Redis, error) {
    client := redis.NewClient(&redis.Options{
        Addr:     addr,
        Password: password,
        DB:       db,
    })
    if err := client.Ping(context.Background()).Err(); err != nil {
        return nil, fmt.Errorf("connect to redis: %w", err)
    }
    return &Redis{client: client}, nil
}

func (r *Redis) Load(ctx context.Context, namespace string) ([]byte, error) {
    data, err := r.client.Get(ctx, "snapshot:"+namespace).Bytes()
    if errors.Is(err, redis.Nil) {
        return nil, nil
    }
    if err != nil {
        return nil, fmt.Errorf("load snapshot %q: %w", namespace, err)
    }
    return data, nil
}

func (r *Redis) Save(ctx context.Context, namespace string, data []byte) error {
    if err := r.client.Set(ctx, "snapshot:"+namespace, data, 0).Err(); err != nil {
        return fmt.Errorf("save snapshot %q: %w", namespace, err)
    }
    return nil
}

func (r *Redis) Close() error { return r.client.Close() }
