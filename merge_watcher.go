package formz

import (
	"context"
	"fmt"
	"sync"
)

// SourceError identifies which source of a merged watcher failed to start.
type SourceError struct {
	Index int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("draft source %d: %v", e.Index, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// MergedWatcher fans drafts from several sources into one stream. Each
// draft is forwarded as-is; the form applies them in arrival order, so a
// later draft wins for any field it names.
type MergedWatcher struct {
	sources []Watcher
}

// MergeWatchers combines sources into a single Watcher. A form bound to
// the result receives drafts from a local file and a shared store alike.
func MergeWatchers(sources ...Watcher) *MergedWatcher {
	return &MergedWatcher{sources: sources}
}

// Watch starts every source. If any source fails to start, the ones
// already started are cancelled and a *SourceError is returned. The output
// channel closes once every source channel has closed or ctx is done.
func (m *MergedWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	ctx, cancel := context.WithCancel(ctx)

	chans := make([]<-chan []byte, 0, len(m.sources))
	for i, w := range m.sources {
		ch, err := w.Watch(ctx)
		if err != nil {
			cancel()
			return nil, &SourceError{Index: i, Err: err}
		}
		chans = append(chans, ch)
	}

	out := make(chan []byte)
	var wg sync.WaitGroup
	for _, ch := range chans {
		wg.Add(1)
		go func(ch <-chan []byte) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- v:
					case <-ctx.Done():
						return
					}
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()

	return out, nil
}
