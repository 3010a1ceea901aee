package formz

import "context"

// ChannelWatcher adapts a channel of draft payloads to a Watcher, for
// producers that already hold drafts in memory (a UI event loop, tests).
// Payloads are forwarded undecoded so that Bind reports malformed ones;
// consecutive duplicates are dropped.
type ChannelWatcher struct {
	ch <-chan []byte
}

// NewChannelWatcher creates a ChannelWatcher over ch.
func NewChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{ch: ch}
}

// Watch forwards drafts from the wrapped channel until it closes or ctx
// is done.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	feed := NewDraftFeed(ctx, nil)
	go func() {
		defer feed.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-w.ch:
				if !ok || !feed.Send(raw) {
					return
				}
			}
		}
	}()
	return feed.C(), nil
}
