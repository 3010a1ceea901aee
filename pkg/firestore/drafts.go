package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/zoobzio/formz"
)

// DefaultDraftField is the document field holding the encoded draft.
const DefaultDraftField = "draft"

// DraftWatcher emits one field of a Firestore document whenever the
// document changes. The field may be a string or bytes.
type DraftWatcher struct {
	doc   *firestore.DocumentRef
	field string
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// DraftOption configures a DraftWatcher.
type DraftOption func(*DraftWatcher)

// WithDraftField sets the document field read for drafts.
func WithDraftField(field string) DraftOption {
	return func(w *DraftWatcher) {
		w.field = field
	}
}

// NewDraftWatcher creates a watcher for collection/document.
func NewDraftWatcher(client *firestore.Client, collection, document string, opts ...DraftOption) *DraftWatcher {
	w := &DraftWatcher{
		doc:   client.Collection(collection).Doc(document),
		field: DefaultDraftField,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the field on every snapshot in which it is present.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)
	go func() {
		defer close(out)

		snapshots := w.doc.Snapshots(ctx)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if !snap.Exists() {
				continue
			}

			var value []byte
			switch v := snap.Data()[w.field].(type) {
			case []byte:
				value = v
			case string:
				value = []byte(v)
			default:
				continue
			}

			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// PublishDraft writes data to the draft field of collection/document.
func PublishDraft(ctx context.Context, client *firestore.Client, collection, document string, data []byte) error {
	_, err := client.Collection(collection).Doc(document).Set(ctx, map[string]any{
		DefaultDraftField: string(data),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to publish draft: %w", err)
	}
	return nil
}
