// Package directory publishes node instances to etcd so that other
// parties can locate them by node type. An announced node stays visible
// as long as its lease is kept alive; when the announcing process dies,
// the entry expires with the lease and resolvers stop seeing it.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/context-protocol/sdk/identity"
)

// EndpointsEnv is the environment variable NewClientFromEnv reads:
// a comma-separated list of etcd endpoints.
const EndpointsEnv = "GRAPH_DIRECTORY_ENDPOINTS"

// Config configures the directory connection.
type Config struct {
	// Endpoints is the list of etcd endpoints, e.g. ["localhost:2379"].
	Endpoints []string

	// Namespace prefixes every directory key. Defaults to "graph".
	Namespace string

	// TTL is the announcement lease in seconds. Defaults to 30.
	TTL int
}

// NodeInfo is the published record of one node instance.
type NodeInfo struct {
	// Addr is the node's address identity; it is also the directory key.
	Addr identity.Identity `json:"addr"`

	// Owner is the node's owner identity.
	Owner identity.Identity `json:"owner"`

	// TypeName is the registered node type name, e.g. "Organization".
	TypeName string `json:"type_name"`

	// TypeID is the hex id of the node type.
	TypeID string `json:"type_id"`

	// Endpoint is where the hosting process can be reached, if anywhere.
	Endpoint string `json:"endpoint,omitempty"`
}

// Client announces and resolves node instances against etcd. Announced
// leases are renewed every TTL/3 seconds until Withdraw or Close.
//
// All methods are safe for concurrent use.
type Client struct {
	client    *clientv3.Client
	namespace string
	ttl       int

	mu         sync.Mutex
	leases     map[identity.Identity]clientv3.LeaseID
	cancelFns  map[identity.Identity]context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	closedChan chan struct{}
}

// NewClient connects to etcd and verifies connectivity.
// The client must be closed with Close to stop keepalive goroutines.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("directory endpoints cannot be empty")
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "graph"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &Client{
		client:     cli,
		namespace:  namespace,
		ttl:        ttl,
		leases:     make(map[identity.Identity]clientv3.LeaseID),
		cancelFns:  make(map[identity.Identity]context.CancelFunc),
		closedChan: make(chan struct{}),
	}, nil
}

// NewClientFromEnv creates a client from the GRAPH_DIRECTORY_ENDPOINTS
// environment variable. An unset variable is not an error: it returns
// (nil, nil), and the caller runs without a directory.
func NewClientFromEnv() (*Client, error) {
	endpoints := parseEndpoints(os.Getenv(EndpointsEnv))
	if len(endpoints) == 0 {
		return nil, nil
	}
	return NewClient(Config{Endpoints: endpoints})
}

// parseEndpoints splits a comma-separated endpoint list, trimming
// whitespace and dropping empty entries.
func parseEndpoints(s string) []string {
	var out []string
	for _, ep := range strings.Split(s, ",") {
		if ep = strings.TrimSpace(ep); ep != "" {
			out = append(out, ep)
		}
	}
	return out
}

// Announce publishes the node under /namespace/nodes/type-name/addr with
// a leased entry and starts a keepalive goroutine renewing it. Announcing
// the same address again replaces the entry and restarts its keepalive.
func (c *Client) Announce(ctx context.Context, info NodeInfo) error {
	if info.Addr.IsZero() || info.TypeName == "" {
		return fmt.Errorf("node info requires addr and type name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("directory client is closed")
	}

	if cancelFn, exists := c.cancelFns[info.Addr]; exists {
		cancelFn()
		delete(c.cancelFns, info.Addr)
	}

	leaseResp, err := c.client.Grant(ctx, int64(c.ttl))
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal node info: %w", err)
	}

	key := c.buildKey(info.TypeName, info.Addr)
	if _, err := c.client.Put(ctx, key, string(data), clientv3.WithLease(leaseResp.ID)); err != nil {
		return fmt.Errorf("failed to announce node: %w", err)
	}

	c.leases[info.Addr] = leaseResp.ID

	keepaliveCtx, cancel := context.WithCancel(context.Background())
	c.cancelFns[info.Addr] = cancel

	c.wg.Add(1)
	go c.keepalive(keepaliveCtx, leaseResp.ID, info.Addr)

	return nil
}

// Withdraw removes the node's announcement by revoking its lease.
// Withdrawing an unannounced address is a no-op.
func (c *Client) Withdraw(ctx context.Context, addr identity.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("directory client is closed")
	}

	if cancelFn, exists := c.cancelFns[addr]; exists {
		cancelFn()
		delete(c.cancelFns, addr)
	}

	leaseID, exists := c.leases[addr]
	if !exists {
		return nil
	}
	if _, err := c.client.Revoke(ctx, leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	delete(c.leases, addr)
	return nil
}

// Resolve returns all announced instances of the given node type, in
// arbitrary order.
func (c *Client) Resolve(ctx context.Context, typeName string) ([]NodeInfo, error) {
	prefix := fmt.Sprintf("/%s/nodes/%s/", c.namespace, typeName)
	resp, err := c.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve nodes: %w", err)
	}

	instances := make([]NodeInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info NodeInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			// Skip invalid entries
			continue
		}
		instances = append(instances, info)
	}
	return instances, nil
}

// ResolveAddr returns the announcement of one node by type and address.
// The second result reports whether the node is announced.
func (c *Client) ResolveAddr(ctx context.Context, typeName string, addr identity.Identity) (NodeInfo, bool, error) {
	resp, err := c.client.Get(ctx, c.buildKey(typeName, addr))
	if err != nil {
		return NodeInfo{}, false, fmt.Errorf("failed to resolve node: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return NodeInfo{}, false, nil
	}
	var info NodeInfo
	if err := json.Unmarshal(resp.Kvs[0].Value, &info); err != nil {
		return NodeInfo{}, false, fmt.Errorf("failed to unmarshal node info: %w", err)
	}
	return info, true, nil
}

// Watch returns a channel that receives the current instance list of a
// node type whenever an announcement appears, changes, or expires. The
// initial state is sent immediately. The channel closes when the context
// is canceled or the client is closed.
func (c *Client) Watch(ctx context.Context, typeName string) (<-chan []NodeInfo, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("directory client is closed")
	}
	c.wg.Add(1)
	c.mu.Unlock()

	ch := make(chan []NodeInfo, 1)

	instances, err := c.Resolve(ctx, typeName)
	if err != nil {
		c.wg.Done()
		return nil, err
	}
	ch <- instances

	prefix := fmt.Sprintf("/%s/nodes/%s/", c.namespace, typeName)
	watchChan := c.client.Watch(ctx, prefix, clientv3.WithPrefix())

	go func() {
		defer c.wg.Done()
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.closedChan:
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil {
					return
				}

				instances, err := c.Resolve(context.Background(), typeName)
				if err != nil {
					continue
				}

				select {
				case ch <- instances:
				case <-ctx.Done():
					return
				case <-c.closedChan:
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close stops every keepalive and watch goroutine and closes the etcd
// connection. Announced entries expire with their leases.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	for _, cancel := range c.cancelFns {
		cancel()
	}
	c.cancelFns = make(map[identity.Identity]context.CancelFunc)

	close(c.closedChan)
	c.mu.Unlock()

	c.wg.Wait()
	return c.client.Close()
}

// keepalive renews the lease every TTL/3 seconds until the context is
// canceled or the lease becomes invalid.
func (c *Client) keepalive(ctx context.Context, leaseID clientv3.LeaseID, addr identity.Identity) {
	defer c.wg.Done()

	interval := time.Duration(c.ttl) * time.Second / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closedChan:
			return
		case <-ticker.C:
			if _, err := c.client.KeepAliveOnce(context.Background(), leaseID); err != nil {
				c.mu.Lock()
				delete(c.leases, addr)
				delete(c.cancelFns, addr)
				c.mu.Unlock()
				return
			}
		}
	}
}

// buildKey constructs the etcd key for one announcement.
//
// Format: /namespace/nodes/type-name/addr
func (c *Client) buildKey(typeName string, addr identity.Identity) string {
	return fmt.Sprintf("/%s/nodes/%s/%s", c.namespace, typeName, addr)
}
