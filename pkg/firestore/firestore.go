// Package firestore provides a formz.Catalog backed by a Firestore
// collection and a draft watcher built on realtime listeners.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zoobzio/formz"
)

// DefaultCollection holds one document per item, keyed by id.
const DefaultCollection = "catalog_items"

type document struct {
	Name         string `firestore:"name"`
	Description  string `firestore:"description"`
	Logo         string `firestore:"logo"`
	DateRelease  string `firestore:"date_release"`
	DateRevision string `firestore:"date_revision"`
}

func toDocument(item formz.Item) document {
	return document{
		Name:         item.Name,
		Description:  item.Description,
		Logo:         item.Logo,
		DateRelease:  item.DateRelease,
		DateRevision: item.DateRevision,
	}
}

func (d document) item(id string) formz.Item {
	return formz.Item{
		ID:           id,
		Name:         d.Name,
		Description:  d.Description,
		Logo:         d.Logo,
		DateRelease:  d.DateRelease,
		DateRevision: d.DateRevision,
	}
}

// Catalog stores items as documents whose id is the item id.
type Catalog struct {
	client     *firestore.Client
	collection string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(c *Catalog) {
		c.collection = name
	}
}

// New creates a Catalog over client.
func New(client *firestore.Client, opts ...Option) *Catalog {
	c := &Catalog{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ formz.Catalog = (*Catalog)(nil)

func (c *Catalog) doc(id string) *firestore.DocumentRef {
	return c.client.Collection(c.collection).Doc(id)
}

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	_, err := c.Get(ctx, id)
	if errors.Is(err, formz.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	snap, err := c.doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("firestore get %s: %w", id, err)
	}
	var d document
	if err := snap.DataTo(&d); err != nil {
		return formz.Item{}, fmt.Errorf("firestore decode %s: %w", id, err)
	}
	return d.item(snap.Ref.ID), nil
}

// List returns every item ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	iter := c.client.Collection(c.collection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	items := []formz.Item{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list: %w", err)
		}
		var d document
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("firestore decode %s: %w", snap.Ref.ID, err)
		}
		items = append(items, d.item(snap.Ref.ID))
	}
	return items, nil
}

// Create stores item if its id is unassigned.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	_, err := c.doc(item.ID).Create(ctx, toDocument(item))
	if status.Code(err) == codes.AlreadyExists {
		return formz.ErrExists
	}
	if err != nil {
		return fmt.Errorf("firestore create %s: %w", item.ID, err)
	}
	return nil
}

// Update replaces the item stored under id. Firestore rejects updates to
// missing documents.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	d := toDocument(item)
	_, err := c.doc(id).Update(ctx, []firestore.Update{
		{Path: "name", Value: d.Name},
		{Path: "description", Value: d.Description},
		{Path: "logo", Value: d.Logo},
		{Path: "date_release", Value: d.DateRelease},
		{Path: "date_revision", Value: d.DateRevision},
	})
	if status.Code(err) == codes.NotFound {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore update %s: %w", id, err)
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	_, err := c.doc(id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore delete %s: %w", id, err)
	}
	return nil
}
