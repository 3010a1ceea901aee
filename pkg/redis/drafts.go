package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zoobzio/formz"
)

// DraftWatcher emits the value of a single Redis key whenever it is set.
// It relies on keyspace notifications, which must be enabled on the server:
//
//	CONFIG SET notify-keyspace-events KEA
type DraftWatcher struct {
	client redis.UniversalClient
	key    string
	db     int
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// DraftOption configures a DraftWatcher.
type DraftOption func(*DraftWatcher)

// WithDB sets the database index used in the keyspace channel. Defaults to 0.
func WithDB(db int) DraftOption {
	return func(w *DraftWatcher) {
		w.db = db
	}
}

// NewDraftWatcher creates a watcher for key.
func NewDraftWatcher(client redis.UniversalClient, key string, opts ...DraftOption) *DraftWatcher {
	w := &DraftWatcher{client: client, key: key}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch subscribes to the key's keyspace channel, emits the current draft
// if one is stored, then re-reads the key after every write command.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := w.client.Subscribe(ctx, fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer pubsub.Close()

		emit := func() bool {
			val, err := w.client.Get(ctx, w.key).Bytes()
			if err != nil {
				// redis.Nil means no draft yet; other errors wait for the next write.
				return ctx.Err() == nil
			}
			select {
			case out <- val:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				switch msg.Payload {
				case "set", "setex", "psetex", "setnx", "mset", "append":
					if !emit() {
						return
					}
				}
			}
		}
	}()
	return out, nil
}
