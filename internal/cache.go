package montop

import (
	"context"
	"sync"
)

// Service is a source of monitor metrics
type Service interface {
	FetchMetrics(ctx context.Context, id int64, metrics string) (*Response, error)
	DescribeMonitor(ctx context.Context, id int64) (*Monitor, error)
	Check(ctx context.Context) error
	Type() string
}

// Cache wraps a Service and remembers monitor descriptors, which do not
// change while the dashboard runs. Metrics are never cached.
type Cache struct {
	Service
	mu       sync.Mutex
	monitors map[int64]*Monitor
}

func NewCache(s Service) *Cache {
	return &Cache{Service: s}
}

func (c *Cache) DescribeMonitor(ctx context.Context, id int64) (*Monitor, error) {
	c.mu.Lock()
	if m, ok := c.monitors[id]; ok {
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	m, err := c.Service.DescribeMonitor(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monitors == nil {
		c.monitors = make(map[int64]*Monitor)
	}
	c.monitors[id] = m
	return m, nil
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monitors = nil
}
