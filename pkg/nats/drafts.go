package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/zoobzio/formz"
)

// NewItemKey is the draft key for a form that creates a new item.
const NewItemKey = "new"

// DraftKey returns the KV key holding the shared draft for itemID. An
// empty itemID addresses the create draft.
func DraftKey(itemID string) string {
	if itemID == "" {
		return "draft." + NewItemKey
	}
	return "draft.item." + itemID
}

// DraftWatcher feeds a form the shared draft for one item. Collaborators
// put partial items under DraftKey(itemID) and every bound form applies
// them.
type DraftWatcher struct {
	kv     jetstream.KeyValue
	itemID string
	codec  formz.Codec
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// DraftOption configures a DraftWatcher.
type DraftOption func(*DraftWatcher)

// WithCodec sets the codec used to check drafts before they are
// delivered. Defaults to formz.AutoCodec.
func WithCodec(codec formz.Codec) DraftOption {
	return func(w *DraftWatcher) {
		w.codec = codec
	}
}

// NewDraftWatcher creates a watcher for the draft of itemID, or of a new
// item when itemID is empty.
func NewDraftWatcher(kv jetstream.KeyValue, itemID string, opts ...DraftOption) *DraftWatcher {
	w := &DraftWatcher{kv: kv, itemID: itemID, codec: formz.AutoCodec{}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// PublishDraft stores a draft for itemID, replacing the previous one.
func PublishDraft(ctx context.Context, kv jetstream.KeyValue, itemID string, data []byte) error {
	if _, err := kv.Put(ctx, DraftKey(itemID), data); err != nil {
		return fmt.Errorf("nats publish draft %s: %w", DraftKey(itemID), err)
	}
	return nil
}

// Watch replays the stored draft, if any, then delivers each later put.
// Deletes and purges withdraw nothing from a form, so they are skipped.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	key := DraftKey(w.itemID)
	kw, err := w.kv.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch draft %s: %w", key, err)
	}

	feed := formz.NewDraftFeed(ctx, w.codec)
	go func() {
		defer feed.Close()
		defer kw.Stop()

		updates := kw.Updates()
		for {
			var entry jetstream.KeyValueEntry
			select {
			case <-ctx.Done():
				return
			case e, ok := <-updates:
				if !ok {
					return
				}
				entry = e
			}
			// nil marks the end of the initial replay.
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}
			if !feed.Send(entry.Value()) {
				return
			}
		}
	}()
	return feed.C(), nil
}
