package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/identity"
)

const (
	nodeKeyPrefix = "graph:node:"
	nodeIndexKey  = "graph:nodes"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisStore implements Store using go-redis/v9. Each snapshot is a JSON
// value under graph:node:<addr>, with the address also added to the
// graph:nodes set for listing.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store with the given options and
// verifies connectivity with a ping.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, sdk.NewValidationError("store.NewRedisStore", fmt.Errorf("parse Redis URL: %w", err))
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, sdk.NewStorageError("store.NewRedisStore", fmt.Errorf("connect to Redis: %w", err))
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. The caller keeps
// ownership of the client's lifecycle only until Close is called on the
// store.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveNode stores the snapshot under its address key and indexes the
// address.
func (s *RedisStore) SaveNode(ctx context.Context, snap *NodeSnapshot) error {
	if snap == nil || snap.Addr == "" {
		return sdk.NewValidationError("store.SaveNode", fmt.Errorf("snapshot with address is required"))
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return sdk.NewInternalError("store.SaveNode", fmt.Errorf("marshal snapshot: %w", err))
	}

	if err := s.client.Set(ctx, nodeKeyPrefix+snap.Addr, data, 0).Err(); err != nil {
		return sdk.NewStorageError("store.SaveNode", fmt.Errorf("set node %s: %w", snap.Addr, err))
	}
	if err := s.client.SAdd(ctx, nodeIndexKey, snap.Addr).Err(); err != nil {
		return sdk.NewStorageError("store.SaveNode", fmt.Errorf("index node %s: %w", snap.Addr, err))
	}
	return nil
}

// LoadNode returns the snapshot stored under addr.
func (s *RedisStore) LoadNode(ctx context.Context, addr identity.Identity) (*NodeSnapshot, error) {
	data, err := s.client.Get(ctx, nodeKeyPrefix+string(addr)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("node %s: %w", addr, sdk.ErrNotFound)
		}
		return nil, sdk.NewStorageError("store.LoadNode", fmt.Errorf("get node %s: %w", addr, err))
	}

	var snap NodeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, sdk.NewInternalError("store.LoadNode", fmt.Errorf("unmarshal snapshot: %w", err))
	}
	return &snap, nil
}

// ListNodes returns all indexed node addresses. Set membership carries no
// order; callers needing a stable order should sort.
func (s *RedisStore) ListNodes(ctx context.Context) ([]identity.Identity, error) {
	members, err := s.client.SMembers(ctx, nodeIndexKey).Result()
	if err != nil {
		return nil, sdk.NewStorageError("store.ListNodes", fmt.Errorf("list nodes: %w", err))
	}
	out := make([]identity.Identity, 0, len(members))
	for _, m := range members {
		out = append(out, identity.Identity(m))
	}
	return out, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
