// Package storetest provides an in-memory store.Source whose subscriptions are
// driven by the test: nothing is delivered until Emit or Fail is called, and
// every delivery runs on the caller's goroutine.
package storetest

import (
	"sort"
	"sync"

	"tableflip.dev/uniroutine/pkg/store"
)

// Handle is one subscription opened against the Source. It stays reachable
// after Unsubscribe so tests can simulate callbacks that were already in
// flight when the subscription was torn down.
type Handle struct {
	Path string

	src      *Source
	onChange func([]store.Document)
	onError  func(error)
	closed   bool
}

// Deliver invokes the change callback even if the handle was closed.
func (h *Handle) Deliver(docs ...store.Document) {
	if docs == nil {
		docs = []store.Document{}
	}
	h.onChange(docs)
}

// Fail invokes the error callback even if the handle was closed.
func (h *Handle) Fail(err error) {
	h.onError(err)
}

// Closed reports whether Unsubscribe was called.
func (h *Handle) Closed() bool {
	h.src.mu.Lock()
	defer h.src.mu.Unlock()
	return h.closed
}

// Source is a fake transport that counts live subscriptions.
type Source struct {
	Root string

	mu      sync.Mutex
	handles []*Handle
}

// New returns a Source rooted at store.DefaultCollection.
func New() *Source {
	return &Source{Root: store.DefaultCollection}
}

func (s *Source) SubscribeCollection(path string, onChange func([]store.Document), onError func(error)) store.Unsubscribe {
	return s.open(path, onChange, onError)
}

func (s *Source) SubscribeSubcollection(entityID, day string, onChange func([]store.Document), onError func(error)) store.Unsubscribe {
	return s.open(store.Join(s.Root, entityID, day), onChange, onError)
}

func (s *Source) open(path string, onChange func([]store.Document), onError func(error)) store.Unsubscribe {
	h := &Handle{Path: path, src: s, onChange: onChange, onError: onError}
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		h.closed = true
		s.mu.Unlock()
	}
}

// Active counts subscriptions that have not been unsubscribed.
func (s *Source) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.handles {
		if !h.closed {
			n++
		}
	}
	return n
}

// Opened counts every subscription ever opened.
func (s *Source) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// ActivePaths lists the paths of live subscriptions, sorted.
func (s *Source) ActivePaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var paths []string
	for _, h := range s.handles {
		if !h.closed {
			paths = append(paths, h.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Handles returns every handle ever opened on path, oldest first.
func (s *Source) Handles(path string) []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Handle
	for _, h := range s.handles {
		if h.Path == path {
			out = append(out, h)
		}
	}
	return out
}

func (s *Source) live(path string) []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Handle
	for _, h := range s.handles {
		if h.Path == path && !h.closed {
			out = append(out, h)
		}
	}
	return out
}

// Emit delivers docs to every live subscription on path and returns how many
// received them.
func (s *Source) Emit(path string, docs ...store.Document) int {
	live := s.live(path)
	for _, h := range live {
		h.Deliver(docs...)
	}
	return len(live)
}

// EmitDay is Emit for a weekday partition of entityID.
func (s *Source) EmitDay(entityID, day string, docs ...store.Document) int {
	return s.Emit(store.Join(s.Root, entityID, day), docs...)
}

// Fail reports err to every live subscription on path.
func (s *Source) Fail(path string, err error) int {
	live := s.live(path)
	for _, h := range live {
		h.Fail(err)
	}
	return len(live)
}

// Doc builds a document from alternating field names and values.
func Doc(id string, kv ...string) store.Document {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return store.Document{ID: id, Fields: fields}
}
