// Package nats provides a formz.Catalog backed by a NATS JetStream
// key-value bucket and a draft watcher built on KV watches.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/zoobzio/formz"
)

// Catalog stores each item as JSON under its id. Create maps to the
// bucket's Create and Update to a revision-checked Update.
type Catalog struct {
	kv jetstream.KeyValue
}

// New creates a Catalog over kv.
func New(kv jetstream.KeyValue) *Catalog {
	return &Catalog{kv: kv}
}

var _ formz.Catalog = (*Catalog)(nil)

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	_, err := c.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("nats exists %s: %w", id, err)
	}
	return true, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	entry, err := c.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("nats get %s: %w", id, err)
	}
	var item formz.Item
	if err := json.Unmarshal(entry.Value(), &item); err != nil {
		return formz.Item{}, fmt.Errorf("nats decode %s: %w", id, err)
	}
	return item, nil
}

// List returns every item in the bucket ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("nats list: %w", err)
	}
	defer lister.Stop()

	var ids []string
	for id := range lister.Keys() {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	items := make([]formz.Item, 0, len(ids))
	for _, id := range ids {
		item, err := c.Get(ctx, id)
		if errors.Is(err, formz.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Create stores item if its id is unassigned.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("nats encode %s: %w", item.ID, err)
	}
	if _, err := c.kv.Create(ctx, item.ID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return formz.ErrExists
		}
		return fmt.Errorf("nats create %s: %w", item.ID, err)
	}
	return nil
}

// Update replaces the item stored under id.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	entry, err := c.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("nats update %s: %w", id, err)
	}
	item.ID = id
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("nats encode %s: %w", id, err)
	}
	if _, err := c.kv.Update(ctx, id, data, entry.Revision()); err != nil {
		return fmt.Errorf("nats update %s: %w", id, err)
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if _, err := c.kv.Get(ctx, id); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return formz.ErrNotFound
		}
		return fmt.Errorf("nats delete %s: %w", id, err)
	}
	if err := c.kv.Delete(ctx, id); err != nil {
		return fmt.Errorf("nats delete %s: %w", id, err)
	}
	return nil
}
