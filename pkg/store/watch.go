package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a persistence change notification.
type EventType int

const (
	// EventDocumentsChanged indicates the documents of the collection at Path
	// changed (added, edited, or removed).
	EventDocumentsChanged EventType = iota

	// EventInvalidated signals a change that could not be attributed to a
	// single collection (directory churn, watcher errors). Every subscriber
	// should reload.
	EventInvalidated
)

// Event is emitted by Persistence.Watch when underlying storage changes.
type Event struct {
	Type EventType
	Path string
}

// Watch streams change events until ctx is cancelled. Callers should drain the
// returned channel to avoid blocking the watcher. The channel is closed once
// ctx is done or the watcher encounters an unrecoverable error.
func (p *persistence) Watch(ctx context.Context) (<-chan Event, error) {
	if p.basePath == "" {
		return nil, errors.New("store: persistence base path unknown")
	}

	if err := os.MkdirAll(p.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				slog.Warn("store: watcher close", "error", err)
			}
		})
	}

	dirs, err := collectDirs(p.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		// Subscribers only reload on events for their own path, so a send
		// that does not fit is reported back to the throttle, which turns it
		// into an invalidation once the channel drains.
		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			default:
				return false
			}
		}

		throttle := newEventThrottle(100*time.Millisecond, cap(events))
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				throttle.Enqueue(Event{Type: EventInvalidated}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						// diskv creates nested directories in one MkdirAll, so
						// the children may already exist by the time we see
						// the parent.
						nested, err := collectDirs(filepath.Clean(evt.Name))
						if err != nil {
							slog.Warn("store: enumerate directory", "path", evt.Name, "error", err)
						}
						for _, dir := range nested {
							if _, found := watched[dir]; found {
								continue
							}
							if err := watcher.Add(dir); err != nil {
								slog.Warn("store: watch directory", "path", dir, "error", err)
								continue
							}
							watched[dir] = struct{}{}
						}
						throttle.Enqueue(Event{Type: EventInvalidated}, send)
						continue
					}
				}

				path := p.collectionForPath(evt.Name)
				if path == "" {
					throttle.Enqueue(Event{Type: EventInvalidated}, send)
					continue
				}

				throttle.Enqueue(Event{Type: EventDocumentsChanged, Path: path}, send)
			}
		}
	}()

	return events, nil
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// collectionForPath derives the logical collection path of a document file.
// Anything that is not a document yields "".
func (p *persistence) collectionForPath(path string) string {
	rel, err := filepath.Rel(p.basePath, path)
	if err != nil {
		return ""
	}
	if rel == "." || !strings.HasSuffix(rel, documentExt) {
		return ""
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	parts := strings.Split(dir, string(os.PathSeparator))
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return ""
		}
		segments = append(segments, fromSegment(part))
	}
	return Join(segments...)
}

// eventThrottle coalesces rapid change notifications so subscribers reload once
// per burst of filesystem activity instead of on every single write.
//
// A change is never lost: a burst touching more than burst collections, or
// any event the channel could not take, is folded into one EventInvalidated
// that is retried until it is delivered.
type eventThrottle struct {
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[EventType]map[string]struct{}
	delay    time.Duration
	burst    int
	overflow bool
	stopped  bool
}

func newEventThrottle(delay time.Duration, burst int) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		burst:   burst,
		pending: make(map[EventType]map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.pending[ev.Type] == nil {
		t.pending[ev.Type] = make(map[string]struct{})
	}
	t.pending[ev.Type][ev.Path] = struct{}{}
	t.armLocked(send)
}

func (t *eventThrottle) armLocked(send func(Event) bool) {
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
}

// flush sends while holding the lock so Stop cannot return while a send to a
// soon-to-be-closed channel is in flight. send must not block; it reports
// whether the event was accepted.
func (t *eventThrottle) flush(send func(Event) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	pending := t.pending
	t.pending = make(map[EventType]map[string]struct{})
	t.timer = nil

	_, invalidated := pending[EventInvalidated]
	changed := pending[EventDocumentsChanged]
	if t.overflow || invalidated || len(changed) > t.burst {
		// A full reload covers every per-collection change.
		t.overflow = !send(Event{Type: EventInvalidated})
	} else {
		for path := range changed {
			if !send(Event{Type: EventDocumentsChanged, Path: path}) {
				t.overflow = true
				break
			}
		}
	}
	if t.overflow {
		t.armLocked(send)
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
