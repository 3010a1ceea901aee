// Package redis provides a formz.Catalog backed by Redis. Each item is
// stored as a JSON string under a prefixed key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/zoobzio/formz"
)

// DefaultPrefix is prepended to item ids to form Redis keys.
const DefaultPrefix = "formz:item:"

// Catalog stores items in Redis. Create relies on SETNX and Update on
// SET XX, so concurrent writers cannot overwrite each other's creates.
type Catalog struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPrefix sets the key prefix. Defaults to DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Catalog) {
		c.prefix = prefix
	}
}

// New creates a Catalog over client.
func New(client redis.UniversalClient, opts ...Option) *Catalog {
	c := &Catalog{
		client: client,
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

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", id, err)
	}
	return n > 0, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("redis get %s: %w", id, err)
	}
	var item formz.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return formz.Item{}, fmt.Errorf("decode item %s: %w", id, err)
	}
	return item, nil
}

// List returns every item under the prefix, ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	slices.Sort(keys)

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	items := make([]formz.Item, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		var item formz.Item
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", strings.TrimPrefix(keys[i], c.prefix), err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Create stores a new item.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}
	ok, err := c.client.SetNX(ctx, c.key(item.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx %s: %w", item.ID, err)
	}
	if !ok {
		return formz.ErrExists
	}
	return nil
}

// Update replaces the item stored under id.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	item.ID = id
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", id, err)
	}
	ok, err := c.client.SetXX(ctx, c.key(id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis set xx %s: %w", id, err)
	}
	if !ok {
		return formz.ErrNotFound
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	n, err := c.client.Del(ctx, c.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	if n == 0 {
		return formz.ErrNotFound
	}
	return nil
}
