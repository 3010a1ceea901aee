// Package kubernetes provides a formz.Catalog that keeps one ConfigMap per
// item, and a draft watcher over a ConfigMap or Secret key.
package kubernetes

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"

	"github.com/zoobzio/formz"
)

// Label marks ConfigMaps owned by a Catalog.
const Label = "formz.zoobzio.com/catalog"

// DefaultCatalogName is the label value used when WithName is not given.
const DefaultCatalogName = "default"

const (
	keyID           = "id"
	keyName         = "name"
	keyDescription  = "description"
	keyLogo         = "logo"
	keyDateRelease  = "date_release"
	keyDateRevision = "date_revision"
)

// Catalog stores items as ConfigMaps in a namespace. Object names are
// derived by hex-encoding the id, since ids may contain characters that
// are not valid in a Kubernetes name.
type Catalog struct {
	client    kubernetes.Interface
	namespace string
	name      string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithName sets the catalog label value, allowing several catalogs to
// share a namespace.
func WithName(name string) Option {
	return func(c *Catalog) {
		c.name = name
	}
}

// New creates a Catalog in namespace.
func New(client kubernetes.Interface, namespace string, opts ...Option) *Catalog {
	c := &Catalog{
		client:    client,
		namespace: namespace,
		name:      DefaultCatalogName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ formz.Catalog = (*Catalog)(nil)

func (c *Catalog) objectName(id string) string {
	return c.name + "-" + hex.EncodeToString([]byte(id))
}

func (c *Catalog) selector() string {
	return Label + "=" + c.name
}

func toData(item formz.Item) map[string]string {
	return map[string]string{
		keyID:           item.ID,
		keyName:         item.Name,
		keyDescription:  item.Description,
		keyLogo:         item.Logo,
		keyDateRelease:  item.DateRelease,
		keyDateRevision: item.DateRevision,
	}
}

func fromData(data map[string]string) formz.Item {
	return formz.Item{
		ID:           data[keyID],
		Name:         data[keyName],
		Description:  data[keyDescription],
		Logo:         data[keyLogo],
		DateRelease:  data[keyDateRelease],
		DateRevision: data[keyDateRevision],
	}
}

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	_, err := c.client.CoreV1().ConfigMaps(c.namespace).Get(ctx, c.objectName(id), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kubernetes exists %s: %w", id, err)
	}
	return true, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	cm, err := c.client.CoreV1().ConfigMaps(c.namespace).Get(ctx, c.objectName(id), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("kubernetes get %s: %w", id, err)
	}
	return fromData(cm.Data), nil
}

// List returns every item of this catalog ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	list, err := c.client.CoreV1().ConfigMaps(c.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: c.selector(),
	})
	if err != nil {
		return nil, fmt.Errorf("kubernetes list: %w", err)
	}
	items := make([]formz.Item, 0, len(list.Items))
	for _, cm := range list.Items {
		items = append(items, fromData(cm.Data))
	}
	slices.SortFunc(items, func(a, b formz.Item) int {
		return strings.Compare(a.ID, b.ID)
	})
	return items, nil
}

// Create stores item if its id is unassigned.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      c.objectName(item.ID),
			Namespace: c.namespace,
			Labels:    map[string]string{Label: c.name},
		},
		Data: toData(item),
	}
	_, err := c.client.CoreV1().ConfigMaps(c.namespace).Create(ctx, cm, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return formz.ErrExists
	}
	if err != nil {
		return fmt.Errorf("kubernetes create %s: %w", item.ID, err)
	}
	return nil
}

// Update replaces the item stored under id, retrying on write conflicts.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	item.ID = id
	configMaps := c.client.CoreV1().ConfigMaps(c.namespace)
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		cm, err := configMaps.Get(ctx, c.objectName(id), metav1.GetOptions{})
		if err != nil {
			return err
		}
		cm.Data = toData(item)
		_, err = configMaps.Update(ctx, cm, metav1.UpdateOptions{})
		return err
	})
	if apierrors.IsNotFound(err) {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("kubernetes update %s: %w", id, err)
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	err := c.client.CoreV1().ConfigMaps(c.namespace).Delete(ctx, c.objectName(id), metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return formz.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("kubernetes delete %s: %w", id, err)
	}
	return nil
}
