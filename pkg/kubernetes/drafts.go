package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/zoobzio/formz"
)

// ResourceType selects the kind of object a DraftWatcher reads.
type ResourceType int

const (
	// ConfigMap reads drafts from ConfigMap data.
	ConfigMap ResourceType = iota
	// Secret reads drafts from Secret data.
	Secret
)

var errWatchClosed = errors.New("watch channel closed")

// DraftWatcher emits one data key of a ConfigMap or Secret whenever the
// object changes. The watch is re-established after errors.
type DraftWatcher struct {
	client       kubernetes.Interface
	namespace    string
	name         string
	key          string
	resourceType ResourceType
	backoff      time.Duration
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// DraftOption configures a DraftWatcher.
type DraftOption func(*DraftWatcher)

// WithResourceType sets the object kind. Defaults to ConfigMap.
func WithResourceType(rt ResourceType) DraftOption {
	return func(w *DraftWatcher) {
		w.resourceType = rt
	}
}

// WithRetryInterval sets the pause before re-establishing a failed watch.
// Defaults to one second.
func WithRetryInterval(d time.Duration) DraftOption {
	return func(w *DraftWatcher) {
		w.backoff = d
	}
}

// NewDraftWatcher creates a watcher for key in namespace/name.
func NewDraftWatcher(client kubernetes.Interface, namespace, name, key string, opts ...DraftOption) *DraftWatcher {
	w := &DraftWatcher{
		client:       client,
		namespace:    namespace,
		name:         name,
		key:          key,
		resourceType: ConfigMap,
		backoff:      time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the current value of the key, then each later value.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			err := w.session(ctx, out)
			if ctx.Err() != nil {
				return
			}
			if err != nil && !errors.Is(err, errWatchClosed) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.backoff):
				}
			}
		}
	}()
	return out, nil
}

func (w *DraftWatcher) session(ctx context.Context, out chan<- []byte) error {
	value, version, err := w.current(ctx)
	if err != nil {
		return err
	}
	if !w.send(ctx, out, value) {
		return ctx.Err()
	}

	opts := metav1.ListOptions{
		FieldSelector:   fmt.Sprintf("metadata.name=%s", w.name),
		ResourceVersion: version,
	}
	var events watch.Interface
	if w.resourceType == ConfigMap {
		events, err = w.client.CoreV1().ConfigMaps(w.namespace).Watch(ctx, opts)
	} else {
		events, err = w.client.CoreV1().Secrets(w.namespace).Watch(ctx, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	defer events.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events.ResultChan():
			if !ok {
				return errWatchClosed
			}
			switch ev.Type {
			case watch.Error:
				return fmt.Errorf("watch error: %v", ev.Object)
			case watch.Deleted:
				continue
			}
			if !w.send(ctx, out, w.extract(ev.Object)) {
				return ctx.Err()
			}
		}
	}
}

// send delivers value unless it is empty. It reports false only when ctx
// ended first.
func (w *DraftWatcher) send(ctx context.Context, out chan<- []byte, value []byte) bool {
	if len(value) == 0 {
		return true
	}
	select {
	case out <- value:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *DraftWatcher) current(ctx context.Context) ([]byte, string, error) {
	if w.resourceType == ConfigMap {
		cm, err := w.client.CoreV1().ConfigMaps(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
		if err != nil {
			return nil, "", err
		}
		return []byte(cm.Data[w.key]), cm.ResourceVersion, nil
	}
	secret, err := w.client.CoreV1().Secrets(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
	if err != nil {
		return nil, "", err
	}
	return secret.Data[w.key], secret.ResourceVersion, nil
}

func (w *DraftWatcher) extract(obj runtime.Object) []byte {
	switch o := obj.(type) {
	case *corev1.ConfigMap:
		if w.resourceType == ConfigMap {
			return []byte(o.Data[w.key])
		}
	case *corev1.Secret:
		if w.resourceType == Secret {
			return o.Data[w.key]
		}
	}
	return nil
}
