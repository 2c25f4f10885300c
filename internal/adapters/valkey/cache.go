package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "fleetpulse:"

// ErrNotConnected is returned by a nil *Cache. Callers that hold a nil
// pointer behind the CacheService interface get errors, not panics.
var ErrNotConnected = errors.New("valkey: not connected")

// Cache implements ports.CacheService using Valkey (Redis-compatible).
// All keys are namespaced under the fleetpulse prefix so the instance
// can be shared with other services.
type Cache struct {
	client valkey.Client
}

// New creates a Valkey cache client and verifies connectivity.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		ClientName:  "fleetpulse",
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	return &Cache{client: client}, nil
}

// Get retrieves a value by key. A missing key returns an error the
// callers treat as a cache miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, ErrNotConnected
	}
	cmd := c.client.Do(ctx, c.client.B().Get().Key(keyPrefix+key).Build())
	if cmd.Error() != nil {
		return nil, cmd.Error()
	}
	return cmd.AsBytes()
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if c == nil {
		return ErrNotConnected
	}
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(keyPrefix+key).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil {
		return ErrNotConnected
	}
	cmd := c.client.Do(ctx, c.client.B().Del().Key(keyPrefix+key).Build())
	return cmd.Error()
}

// Close releases the client.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.client.Close()
}
