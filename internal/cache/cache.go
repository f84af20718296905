package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrMiss = errors.New("cache miss")

// Store is the minimal key/value surface the job views need.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrMiss when absent
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

type memEntry struct {
	val     []byte
	expires time.Time
}

// Memory is an in-process Store for single-engine setups and tests.
type Memory struct {
	mu  sync.Mutex
	m   map[string]memEntry
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]memEntry), Now: time.Now}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !c.Now().Before(e.expires) {
		delete(c.m, key)
		return nil, ErrMiss
	}
	return e.val, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = c.Now().Add(ttl)
	}
	c.m[key] = e
	return nil
}

func (c *Memory) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if e, ok := c.m[key]; ok {
		n = decodeInt(e.val)
	}
	n++
	c.m[key] = memEntry{val: encodeInt(n)}
	return n, nil
}
