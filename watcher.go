package formz

import "context"

// Watcher observes a source of drafts and emits raw bytes on a channel.
// A form bound to a watcher decodes each payload as a Draft and applies
// it as a user edit.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits
	// raw bytes when a new draft is available. The channel is closed when
	// the context is canceled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan []byte, error)
}
