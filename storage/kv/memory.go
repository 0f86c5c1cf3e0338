package kv

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

type Memory struct {
	c *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, err := m.Get(ctx, k); err == nil {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) MultiSet(_ context.Context, values map[string]string) error {
	for k, v := range values {
		m.c.Set(k, v, gocache.NoExpiration)
	}
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.c.Flush()
	return nil
}

func (m *Memory) Close() error { return nil }
