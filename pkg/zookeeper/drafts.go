package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/go-zookeeper/zk"

	"github.com/zoobzio/formz"
)

// DefaultDraftRoot is the parent znode of shared drafts.
const DefaultDraftRoot = "/formz/drafts"

// newItemNode holds the draft of a form creating a new item. Item ids
// cannot collide with it: they never start with an underscore.
const newItemNode = "_new"

// DraftPath returns the znode holding the draft for itemID under root.
// An empty itemID addresses the create draft.
func DraftPath(root, itemID string) string {
	if itemID == "" {
		itemID = newItemNode
	}
	return path.Join(root, itemID)
}

// DraftWatcher feeds a form the shared draft for one item. The znode may
// not exist yet; the watcher waits for it and follows it through deletes
// and re-creation.
type DraftWatcher struct {
	conn   *zk.Conn
	itemID string
	root   string
	codec  formz.Codec
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// DraftOption configures a DraftWatcher.
type DraftOption func(*DraftWatcher)

// WithDraftRoot sets the parent znode of drafts. Defaults to DefaultDraftRoot.
func WithDraftRoot(root string) DraftOption {
	return func(w *DraftWatcher) {
		w.root = root
	}
}

// WithCodec sets the codec used to check drafts before they are
// delivered. Defaults to formz.AutoCodec.
func WithCodec(codec formz.Codec) DraftOption {
	return func(w *DraftWatcher) {
		w.codec = codec
	}
}

// NewDraftWatcher creates a watcher for the draft of itemID, or of a new
// item when itemID is empty.
func NewDraftWatcher(conn *zk.Conn, itemID string, opts ...DraftOption) *DraftWatcher {
	w := &DraftWatcher{
		conn:   conn,
		itemID: itemID,
		root:   DefaultDraftRoot,
		codec:  formz.AutoCodec{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// PublishDraft writes the draft for itemID under root, creating the znode
// and its parents on first use.
func PublishDraft(conn *zk.Conn, root, itemID string, data []byte) error {
	p := DraftPath(root, itemID)
	_, err := conn.Set(p, data, -1)
	if !errors.Is(err, zk.ErrNoNode) {
		return wrapDraftErr(p, err)
	}
	acl := zk.WorldACL(zk.PermAll)
	if err := ensurePath(conn, root, acl); err != nil {
		return err
	}
	_, err = conn.Create(p, data, 0, acl)
	if errors.Is(err, zk.ErrNodeExists) {
		_, err = conn.Set(p, data, -1)
	}
	return wrapDraftErr(p, err)
}

func wrapDraftErr(p string, err error) error {
	if err != nil {
		return fmt.Errorf("zookeeper publish draft %s: %w", p, err)
	}
	return nil
}

// Watch arms an exists watch, which fires on create, change and delete of
// the draft znode, and reads the data whenever the znode is present.
// Session events re-arm the watch. The channel closes when ctx is done or
// the connection is closed.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	p := DraftPath(w.root, w.itemID)
	feed := formz.NewDraftFeed(ctx, w.codec)
	go func() {
		defer feed.Close()
		for {
			exists, _, events, err := w.conn.ExistsW(p)
			if err != nil {
				return
			}
			if exists {
				data, _, err := w.conn.Get(p)
				// A delete between the two calls fires the watch armed above.
				if err == nil && !feed.Send(data) {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-events:
			}
		}
	}()
	return feed.C(), nil
}
