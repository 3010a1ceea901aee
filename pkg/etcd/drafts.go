package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zoobzio/formz"
)

// DraftWatcher emits the value of a single etcd key each time it is put.
// Collaborators write drafts to the key and bound forms apply them.
type DraftWatcher struct {
	client *clientv3.Client
	key    string
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// NewDraftWatcher creates a watcher for key.
func NewDraftWatcher(client *clientv3.Client, key string) *DraftWatcher {
	return &DraftWatcher{client: client, key: key}
}

// Watch emits the current draft, if any, then every later put. Deletes are
// ignored.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	resp, err := w.client.Get(ctx, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", w.key, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)

		send := func(data []byte) bool {
			select {
			case out <- data:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if len(resp.Kvs) > 0 && !send(resp.Kvs[0].Value) {
			return
		}

		events := w.client.Watch(ctx, w.key, clientv3.WithRev(resp.Header.Revision+1))
		for {
			select {
			case <-ctx.Done():
				return
			case wr, ok := <-events:
				if !ok {
					return
				}
				if wr.Err() != nil {
					continue
				}
				for _, ev := range wr.Events {
					if ev.Type != clientv3.EventTypePut {
						continue
					}
					if !send(ev.Kv.Value) {
						return
					}
				}
			}
		}
	}()
	return out, nil
}
