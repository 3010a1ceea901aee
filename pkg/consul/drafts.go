package consul

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/zoobzio/formz"
)

// DraftWatcher emits the value of a Consul KV key whenever its modify
// index advances.
type DraftWatcher struct {
	kv  *api.KV
	key string
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// NewDraftWatcher creates a watcher for key.
func NewDraftWatcher(client *api.Client, key string) *DraftWatcher {
	return &DraftWatcher{kv: client.KV(), key: key}
}

// Watch emits the current draft, if any, then each later write. Deletes
// advance the index without emitting.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pair, meta, err := w.kv.Get(w.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", w.key, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)

		index := meta.LastIndex
		if pair != nil {
			select {
			case out <- pair.Value:
			case <-ctx.Done():
				return
			}
		}

		for ctx.Err() == nil {
			opts := (&api.QueryOptions{WaitIndex: index}).WithContext(ctx)
			pair, meta, err := w.kv.Get(w.key, opts)
			if err != nil {
				continue
			}
			if meta.LastIndex <= index {
				continue
			}
			index = meta.LastIndex
			if pair == nil {
				continue
			}
			select {
			case out <- pair.Value:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
