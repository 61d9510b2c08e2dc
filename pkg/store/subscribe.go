package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrWatchClosed is reported to a subscription whose change feed ended while
// the subscription was still live.
var ErrWatchClosed = errors.New("store: change feed closed")

// SubscribeCollection delivers the documents of path now and again after
// every change that touches it.
func (p *persistence) SubscribeCollection(path string, onChange func([]Document), onError func(error)) Unsubscribe {
	return p.subscribe(path, onChange, onError)
}

// SubscribeSubcollection subscribes to one weekday partition of an entity in
// the root collection.
func (p *persistence) SubscribeSubcollection(entityID, day string, onChange func([]Document), onError func(error)) Unsubscribe {
	return p.subscribe(Join(p.root, entityID, day), onChange, onError)
}

func (p *persistence) subscribe(path string, onChange func([]Document), onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	stop := func() { once.Do(cancel) }

	if _, err := collectionPrefix(path); err != nil {
		go onError(err)
		return stop
	}

	// Register before the first read so a change landing between the read and
	// the registration is not lost.
	dirty, release, err := p.hub.register(path)
	if err != nil {
		go onError(fmt.Errorf("store: subscribe %s: %w", path, err))
		return stop
	}

	go func() {
		defer release()
		f := feed{p: p, path: path, onChange: onChange, onError: onError}
		f.run(ctx, dirty)
	}()
	return stop
}

// feed is the producer loop of one subscription: reload the collection on
// every dirty signal and forward snapshots that differ from the last one.
type feed struct {
	p        *persistence
	path     string
	onChange func([]Document)
	onError  func(error)

	last      []Document
	delivered bool
}

func (f *feed) run(ctx context.Context, dirty <-chan struct{}) {
	f.deliver(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-dirty:
			if !ok {
				if ctx.Err() == nil {
					f.onError(ErrWatchClosed)
				}
				return
			}
			f.deliver(ctx)
		}
	}
}

func (f *feed) deliver(ctx context.Context) {
	docs, err := f.p.List(ctx, f.path)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		f.onError(err)
		return
	}
	if f.delivered && reflect.DeepEqual(f.last, docs) {
		return
	}
	f.last, f.delivered = docs, true
	f.onChange(docs)
}

// hub shares a single filesystem watcher between every live subscription and
// fans its events out as per-path dirty signals.
type hub struct {
	p *persistence

	mu     sync.Mutex
	subs   map[int]*hubSub
	next   int
	gen    int
	cancel context.CancelFunc
}

type hubSub struct {
	path  string
	dirty chan struct{}
}

func newHub(p *persistence) *hub {
	return &hub{p: p, subs: make(map[int]*hubSub)}
}

func (h *hub) register(path string) (<-chan struct{}, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := h.p.Watch(ctx)
		if err != nil {
			cancel()
			return nil, nil, err
		}
		h.cancel = cancel
		h.gen++
		go h.fanOut(h.gen, events)
	}

	id := h.next
	h.next++
	sub := &hubSub{path: path, dirty: make(chan struct{}, 1)}
	h.subs[id] = sub

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; !ok {
				return
			}
			delete(h.subs, id)
			if len(h.subs) == 0 && h.cancel != nil {
				h.cancel()
				h.cancel = nil
			}
		})
	}
	return sub.dirty, release, nil
}

func (h *hub) fanOut(gen int, events <-chan Event) {
	for ev := range events {
		h.mu.Lock()
		for _, sub := range h.subs {
			if ev.Type != EventInvalidated && ev.Path != sub.path {
				continue
			}
			select {
			case sub.dirty <- struct{}{}:
			default:
				// Already marked dirty; one reload covers both.
			}
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gen == gen && h.cancel != nil {
		// The watcher died underneath live subscribers. Close their signals
		// so each reports the failure, and let the next register start over.
		for id, sub := range h.subs {
			close(sub.dirty)
			delete(h.subs, id)
		}
		h.cancel()
		h.cancel = nil
	}
}
