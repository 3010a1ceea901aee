// Package consul provides a formz.Catalog backed by Consul KV and a draft
// watcher built on blocking queries.
package consul

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/zoobzio/formz"
)

// DefaultPrefix is prepended to item ids to form KV keys.
const DefaultPrefix = "formz/items/"

// casAttempts bounds how often Update retries after losing a CAS race.
const casAttempts = 3

// Catalog stores each item as JSON under prefix+id. Writes use
// check-and-set on the pair's modify index.
type Catalog struct {
	kv     *api.KV
	prefix string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Catalog) {
		c.prefix = prefix
	}
}

// New creates a Catalog over client.
func New(client *api.Client, opts ...Option) *Catalog {
	c := &Catalog{
		kv:     client.KV(),
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ formz.Catalog = (*Catalog)(nil)

func (c *Catalog) key(id string) string {
	return c.prefix + id
}

func (c *Catalog) get(ctx context.Context, id string) (*api.KVPair, error) {
	pair, _, err := c.kv.Get(c.key(id), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul get %s: %w", id, err)
	}
	return pair, nil
}

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	pair, err := c.get(ctx, id)
	if err != nil {
		return false, err
	}
	return pair != nil, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	pair, err := c.get(ctx, id)
	if err != nil {
		return formz.Item{}, err
	}
	if pair == nil {
		return formz.Item{}, formz.ErrNotFound
	}
	return decode(pair)
}

// List returns every item under the prefix. Consul returns keys in
// lexical order.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	pairs, _, err := c.kv.List(c.prefix, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul list: %w", err)
	}
	items := make([]formz.Item, 0, len(pairs))
	for _, pair := range pairs {
		item, err := decode(pair)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Create stores item if its id is unassigned. A CAS with index zero only
// succeeds when the key does not exist.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	ok, err := c.cas(ctx, item.ID, item, 0)
	if err != nil {
		return err
	}
	if !ok {
		return formz.ErrExists
	}
	return nil
}

// Update replaces the item stored under id.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	item.ID = id
	for range casAttempts {
		pair, err := c.get(ctx, id)
		if err != nil {
			return err
		}
		if pair == nil {
			return formz.ErrNotFound
		}
		ok, err := c.cas(ctx, id, item, pair.ModifyIndex)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("consul update %s: concurrent modification", id)
}

func (c *Catalog) cas(ctx context.Context, id string, item formz.Item, index uint64) (bool, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return false, fmt.Errorf("consul encode %s: %w", id, err)
	}
	pair := &api.KVPair{Key: c.key(id), Value: data, ModifyIndex: index}
	ok, _, err := c.kv.CAS(pair, (&api.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("consul cas %s: %w", id, err)
	}
	return ok, nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	pair, err := c.get(ctx, id)
	if err != nil {
		return err
	}
	if pair == nil {
		return formz.ErrNotFound
	}
	ok, _, err := c.kv.DeleteCAS(pair, (&api.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return fmt.Errorf("consul delete %s: %w", id, err)
	}
	if !ok {
		return formz.ErrNotFound
	}
	return nil
}

func decode(pair *api.KVPair) (formz.Item, error) {
	var item formz.Item
	if err := json.Unmarshal(pair.Value, &item); err != nil {
		return formz.Item{}, fmt.Errorf("consul decode %s: %w", pair.Key, err)
	}
	return item, nil
}
