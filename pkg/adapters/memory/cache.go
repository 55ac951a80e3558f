package memory

import (
	"context"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Cache implements ports.TransitionCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]*domain.TransitionSet
	mu   sync.RWMutex
}

// NewCache creates a new in-memory transition cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*domain.TransitionSet),
	}
}

// Get retrieves the cached set for a node.
func (c *Cache) Get(ctx context.Context, node string) (*domain.TransitionSet, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set, ok := c.data[node]
	if !ok {
		return nil, false, nil
	}

	// Copy on read so the caller can't mutate cache state through the slice.
	return copySet(set), true, nil
}

// Put stores the set for a node.
func (c *Cache) Put(ctx context.Context, node string, set *domain.TransitionSet) error {
	copied := copySet(set)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[node] = copied
	return nil
}

// Delete evicts the set for a node.
func (c *Cache) Delete(ctx context.Context, node string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, node)
	return nil
}

func copySet(set *domain.TransitionSet) *domain.TransitionSet {
	if set == nil {
		return nil
	}
	copied := *set
	copied.Transitions = make([]domain.Transition, len(set.Transitions))
	copy(copied.Transitions, set.Transitions)
	return &copied
}
