// Package zookeeper provides a formz.Catalog backed by ZooKeeper znodes and
// a draft watcher built on data watches.
package zookeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-zookeeper/zk"

	"github.com/zoobzio/formz"
)

// DefaultRoot is the parent znode of all items.
const DefaultRoot = "/formz/items"

// Catalog stores each item as JSON in a child znode of root. The root
// path is created on first write.
type Catalog struct {
	conn *zk.Conn
	root string
	acl  []zk.ACL
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithRoot sets the parent znode.
func WithRoot(root string) Option {
	return func(c *Catalog) {
		c.root = path.Clean(root)
	}
}

// WithACL sets the ACL applied to created znodes. Defaults to world:anyone.
func WithACL(acl []zk.ACL) Option {
	return func(c *Catalog) {
		c.acl = acl
	}
}

// New creates a Catalog over conn.
func New(conn *zk.Conn, opts ...Option) *Catalog {
	c := &Catalog{
		conn: conn,
		root: DefaultRoot,
		acl:  zk.WorldACL(zk.PermAll),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ formz.Catalog = (*Catalog)(nil)

func (c *Catalog) node(id string) string {
	return c.root + "/" + id
}

// ensureRoot creates each missing segment of the root path.
func (c *Catalog) ensureRoot() error {
	return ensurePath(c.conn, c.root, c.acl)
}

// ensurePath creates each missing segment of path.
func ensurePath(conn *zk.Conn, path string, acl []zk.ACL) error {
	current := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		current += "/" + part
		_, err := conn.Create(current, nil, 0, acl)
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return fmt.Errorf("zookeeper create %s: %w", current, err)
		}
	}
	return nil
}

// Exists reports whether id is assigned.
func (c *Catalog) Exists(_ context.Context, id string) (bool, error) {
	ok, _, err := c.conn.Exists(c.node(id))
	if err != nil {
		return false, fmt.Errorf("zookeeper exists %s: %w", id, err)
	}
	return ok, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(_ context.Context, id string) (formz.Item, error) {
	data, _, err := c.conn.Get(c.node(id))
	if errors.Is(err, zk.ErrNoNode) {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("zookeeper get %s: %w", id, err)
	}
	var item formz.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return formz.Item{}, fmt.Errorf("zookeeper decode %s: %w", id, err)
	}
	return item, nil
}

// List returns every child item ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	children, _, err := c.conn.Children(c.root)
	if errors.Is(err, zk.ErrNoNode) {
		return []formz.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("zookeeper list: %w", err)
	}
	slices.Sort(children)

	items := make([]formz.Item, 0, len(children))
	for _, id := range children {
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
func (c *Catalog) Create(_ context.Context, item formz.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("zookeeper encode %s: %w", item.ID, err)
	}
	_, err = c.conn.Create(c.node(item.ID), data, 0, c.acl)
	if errors.Is(err, zk.ErrNoNode) {
		if err := c.ensureRoot(); err != nil {
			return err
		}
		_, err = c.conn.Create(c.node(item.ID), data, 0, c.acl)
	}
	if errors.Is(err, zk.ErrNodeExists) {
		return formz.ErrExists
	}
	if err != nil {
		return fmt.Errorf("zookeeper create %s: %w", item.ID, err)
	}
	return nil
}

// Update replaces the item stored under id.
func (c *Catalog) Update(_ context.Context, id string, item formz.Item) error {
	item.ID = id
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("zookeeper encode %s: %w", id, err)
	}
	_, err = c.conn.Set(c.node(id), data, -1)
	if errors.Is(err, zk.ErrNoNode) {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("zookeeper update %s: %w", id, err)
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(_ context.Context, id string) error {
	err := c.conn.Delete(c.node(id), -1)
	if errors.Is(err, zk.ErrNoNode) {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("zookeeper delete %s: %w", id, err)
	}
	return nil
}
