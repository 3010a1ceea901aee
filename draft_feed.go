package formz

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/zoobzio/capitan"
)

var errEmptyDraft = errors.New("draft sets no field")

// DraftFeed is the sending half of a Watcher. Store-backed watchers push
// every payload they observe into it and hand C to the bound form.
//
// A payload identical to the last one delivered is dropped: stores replay
// the current value on reconnect and a repeated draft is a no-op for the
// form anyway. With a codec set, payloads that do not decode as a Draft,
// or decode to a draft that sets no field (an empty znode, a "{}" put),
// are dropped and reported as DraftRejected.
type DraftFeed struct {
	ctx   context.Context
	out   chan []byte
	codec Codec
	last  []byte
	sent  bool
}

// NewDraftFeed creates a feed that stops accepting payloads once ctx is
// done. A nil codec forwards payloads without decoding them.
func NewDraftFeed(ctx context.Context, codec Codec) *DraftFeed {
	return &DraftFeed{
		ctx:   ctx,
		out:   make(chan []byte),
		codec: codec,
	}
}

// C returns the channel drafts are delivered on.
func (f *DraftFeed) C() <-chan []byte {
	return f.out
}

// Send delivers raw unless it is filtered out. It blocks until the
// receiver takes the draft and returns false once the feed's context is
// done, which tells the producer to stop.
func (f *DraftFeed) Send(raw []byte) bool {
	if f.ctx.Err() != nil {
		return false
	}
	if f.sent && bytes.Equal(raw, f.last) {
		return true
	}
	if f.codec != nil {
		if err := f.check(raw); err != nil {
			capitan.Emit(f.ctx, DraftRejected,
				KeyError.Field(err.Error()),
			)
			return true
		}
	}

	select {
	case f.out <- raw:
		f.last = bytes.Clone(raw)
		f.sent = true
		return true
	case <-f.ctx.Done():
		return false
	}
}

// Close closes C. The producer calls it once it stops sending.
func (f *DraftFeed) Close() {
	close(f.out)
}

func (f *DraftFeed) check(raw []byte) error {
	var d Draft
	if err := f.codec.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("decode draft: %w", err)
	}
	if d.Empty() {
		return errEmptyDraft
	}
	return nil
}
