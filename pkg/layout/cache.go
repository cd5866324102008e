package layout

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ssargent/bitspec/pkg/codec"
)

// Cache holds built layouts by name. It is safe for concurrent use.
type Cache struct {
	lock    sync.RWMutex
	layouts map[string]*Layout
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{layouts: make(map[string]*Layout)}
}

// Get returns the layout called name.
func (c *Cache) Get(name string) (*Layout, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	l, ok := c.layouts[name]
	return l, ok
}

// Put adds l. A second layout with the same name is rejected.
func (c *Cache) Put(l *Layout) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, exists := c.layouts[l.Name()]; exists {
		return fmt.Errorf("%w: layout %s already registered", codec.ErrSchema, l.Name())
	}
	c.layouts[l.Name()] = l
	return nil
}

// GetOrBuild returns the cached layout called name, building and storing
// it on first use. build runs at most once per name.
func (c *Cache) GetOrBuild(name string, build func() (*Layout, error)) (*Layout, error) {
	if l, ok := c.Get(name); ok {
		return l, nil
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if l, ok := c.layouts[name]; ok {
		return l, nil
	}
	l, err := build()
	if err != nil {
		return nil, err
	}
	if l.Name() != name {
		return nil, fmt.Errorf("%w: built layout %s for name %s", codec.ErrSchema, l.Name(), name)
	}
	c.layouts[name] = l
	return l, nil
}

// Names returns the cached layout names, sorted.
func (c *Cache) Names() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	names := make([]string, 0, len(c.layouts))
	for name := range c.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached layouts.
func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.layouts)
}
