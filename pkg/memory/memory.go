// Package memory provides an in-process formz.Catalog.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/zoobzio/formz"
)

// Catalog stores items in a map guarded by a RWMutex.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]formz.Item
}

// New creates a Catalog seeded with items.
func New(items ...formz.Item) *Catalog {
	c := &Catalog{items: make(map[string]formz.Item, len(items))}
	for _, item := range items {
		c.items[item.ID] = item
	}
	return c
}

var _ formz.Catalog = (*Catalog)(nil)

// Exists reports whether id is assigned.
func (c *Catalog) Exists(_ context.Context, id string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[id]
	return ok, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(_ context.Context, id string) (formz.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return formz.Item{}, formz.ErrNotFound
	}
	return item, nil
}

// List returns every item ordered by id.
func (c *Catalog) List(_ context.Context) ([]formz.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]formz.Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b formz.Item) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Create stores a new item.
func (c *Catalog) Create(_ context.Context, item formz.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[item.ID]; ok {
		return formz.ErrExists
	}
	c.items[item.ID] = item
	return nil
}

// Update replaces the item stored under id. The stored item keeps id
// whatever item.ID says.
func (c *Catalog) Update(_ context.Context, id string, item formz.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return formz.ErrNotFound
	}
	item.ID = id
	c.items[id] = item
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return formz.ErrNotFound
	}
	delete(c.items, id)
	return nil
}
