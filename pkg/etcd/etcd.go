// Package etcd provides a formz.Catalog backed by etcd and a draft
// watcher built on the native Watch API.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zoobzio/formz"
)

// DefaultPrefix is prepended to item ids to form etcd keys.
const DefaultPrefix = "/formz/items/"

// Catalog stores each item as JSON under prefix+id. Create and Update are
// guarded by transactions on the key's create revision.
type Catalog struct {
	client *clientv3.Client
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
func New(client *clientv3.Client, opts ...Option) *Catalog {
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
	resp, err := c.client.Get(ctx, c.key(id), clientv3.WithCountOnly())
	if err != nil {
		return false, fmt.Errorf("etcd exists %s: %w", id, err)
	}
	return resp.Count > 0, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	resp, err := c.client.Get(ctx, c.key(id))
	if err != nil {
		return formz.Item{}, fmt.Errorf("etcd get %s: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return formz.Item{}, formz.ErrNotFound
	}
	var item formz.Item
	if err := json.Unmarshal(resp.Kvs[0].Value, &item); err != nil {
		return formz.Item{}, fmt.Errorf("etcd decode %s: %w", id, err)
	}
	return item, nil
}

// List returns every item under the prefix, ordered by key.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	resp, err := c.client.Get(ctx, c.prefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, fmt.Errorf("etcd list: %w", err)
	}
	items := make([]formz.Item, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var item formz.Item
		if err := json.Unmarshal(kv.Value, &item); err != nil {
			return nil, fmt.Errorf("etcd decode %s: %w", kv.Key, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Create stores item if its id is unassigned.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	return c.put(ctx, item.ID, item, "=", formz.ErrExists)
}

// Update replaces the item stored under id.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	item.ID = id
	return c.put(ctx, id, item, ">", formz.ErrNotFound)
}

// put writes item when the key's create revision compares to zero with op.
// A create revision of zero means the key does not exist.
func (c *Catalog) put(ctx context.Context, id string, item formz.Item, op string, failed error) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("etcd encode %s: %w", id, err)
	}
	key := c.key(id)
	resp, err := c.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), op, 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("etcd put %s: %w", id, err)
	}
	if !resp.Succeeded {
		return failed
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	resp, err := c.client.Delete(ctx, c.key(id))
	if err != nil {
		return fmt.Errorf("etcd delete %s: %w", id, err)
	}
	if resp.Deleted == 0 {
		return formz.ErrNotFound
	}
	return nil
}
