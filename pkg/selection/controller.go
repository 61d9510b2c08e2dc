// Package selection owns which class is selected and keeps its weekly schedule
// in sync with the store.
//
// The Controller is the single writer for the session and its schedule.
// Catalog updates, day snapshots and Select/Clear calls may arrive on any
// goroutine; each is applied under one mutex. Every selection starts a new
// epoch, and any day delivery tagged with an older epoch is discarded, so a
// slow subscription of a previous class can never leak into the current one.
package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tableflip.dev/uniroutine/pkg/catalog"
	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/store"
	"tableflip.dev/uniroutine/pkg/subscription"
)

var (
	// ErrUnknownEntity is returned by Select for an id missing from the catalog.
	ErrUnknownEntity = errors.New("selection: unknown entity")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("selection: controller closed")
)

// Options configures a Controller.
type Options struct {
	// AutoSelectFirst selects the first class of the first non-empty catalog
	// load. Off by default: the controller starts and stays Idle until Select.
	AutoSelectFirst bool
	// Collection is the catalog root (store.DefaultCollection when empty).
	Collection string
	// Fields overrides the period field fallbacks.
	Fields period.Fields
	Logger *slog.Logger
}

// Controller drives the catalog subscription and the per-day subscriptions of
// the selected class.
type Controller struct {
	catalog   *catalog.Catalog
	manager   *subscription.Manager
	assembler *schedule.Assembler
	opts      Options
	log       *slog.Logger

	mu             sync.Mutex
	state          State
	entities       []catalog.Entity
	catalogLoaded  bool
	catalogErr     error
	autoSelectDone bool
	selected       *catalog.Entity
	invalidated    string
	epoch          uint64
	snapshot       schedule.Snapshot
	settle         *schedule.Settle
	dayErrs        map[schedule.Day]error
	stop           subscription.StopFunc
	unsubCatalog   store.Unsubscribe
	started        bool
	closed         bool
	version        uint64

	watchMu     sync.Mutex
	watchers    map[int]chan struct{}
	nextWatch   int
	watchClosed bool
}

// New builds an idle Controller over src. Call Start to open the catalog.
func New(src store.Source, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	assembler := schedule.NewAssembler(logger)
	if opts.Fields.Subject != nil || opts.Fields.Teacher != nil || opts.Fields.Code != nil || opts.Fields.Room != nil {
		assembler.Fields = opts.Fields
	}
	return &Controller{
		catalog:   catalog.New(src, opts.Collection, logger),
		manager:   subscription.NewManager(src, logger),
		assembler: assembler,
		opts:      opts,
		log:       logger,
		state:     Idle,
		snapshot:  schedule.Snapshot{},
		watchers:  make(map[int]chan struct{}),
	}
}

// Start opens the catalog subscription. Calling it again is a no-op.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	unsub := c.catalog.Subscribe(c.onCatalog)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsubCatalog = unsub
	c.mu.Unlock()
}

// Select switches to the class with id. An empty id clears the selection.
// Selecting the class that is already selected starts a fresh session.
func (c *Controller) Select(id string) error {
	if id == "" {
		c.Clear()
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	entity, ok := catalog.Find(c.entities, id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w %q", ErrUnknownEntity, id)
	}
	c.autoSelectDone = true
	epoch := c.beginLocked(entity)
	c.mu.Unlock()

	c.startSession(entity.ID, epoch)
	c.notify()
	return nil
}

// Clear drops the selection, stops its subscriptions and empties the schedule.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.autoSelectDone = true
	c.invalidated = ""
	c.resetLocked()
	c.mu.Unlock()
	c.notify()
}

// Close tears everything down. The controller cannot be reused.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.resetLocked()
	unsub := c.unsubCatalog
	c.unsubCatalog = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	c.watchMu.Lock()
	c.watchClosed = true
	for id, ch := range c.watchers {
		close(ch)
		delete(c.watchers, id)
	}
	c.watchMu.Unlock()
}

// Watch returns a channel that receives a signal after every change of the
// view. Signals coalesce: read View after each one. The channel is closed by
// Close or by the returned cancel func; after Close it is returned closed.
func (c *Controller) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.watchMu.Lock()
	if c.watchClosed {
		c.watchMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = ch
	c.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.watchMu.Lock()
			defer c.watchMu.Unlock()
			if _, ok := c.watchers[id]; ok {
				delete(c.watchers, id)
				close(ch)
			}
		})
	}
}

// beginLocked tears down the current session and opens a new epoch for
// entity. Teardown and the epoch bump happen in the same critical section,
// before any subscription of the new epoch exists.
func (c *Controller) beginLocked(entity catalog.Entity) uint64 {
	c.teardownLocked()
	c.epoch++
	c.selected = &entity
	c.invalidated = ""
	c.state = Selecting
	c.snapshot = schedule.Snapshot{}
	c.settle = schedule.NewSettle(c.epoch)
	c.dayErrs = make(map[schedule.Day]error)
	c.version++
	c.log.Debug("selection: selecting", "entity", entity.ID, "epoch", c.epoch)
	return c.epoch
}

func (c *Controller) resetLocked() {
	c.teardownLocked()
	c.epoch++
	c.selected = nil
	c.state = Idle
	c.snapshot = schedule.Snapshot{}
	c.settle = nil
	c.dayErrs = nil
	c.version++
}

func (c *Controller) teardownLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

func (c *Controller) startSession(entityID string, epoch uint64) {
	stop := c.manager.Start(entityID, epoch, c.onDay, c.onDayError)

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		// Superseded while the subscriptions were being opened.
		c.mu.Unlock()
		stop()
		return
	}
	c.stop = stop
	c.mu.Unlock()
}

func (c *Controller) onCatalog(u catalog.Update) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.entities = u.Entities
	c.catalogErr = u.Err
	c.catalogLoaded = true
	c.version++

	var (
		start bool
		epoch uint64
		id    string
	)
	switch {
	case c.selected != nil:
		if entity, ok := catalog.Find(u.Entities, c.selected.ID); ok {
			c.selected = &entity
			break
		}
		c.state = Invalidated
		c.log.Info("selection: selected entity left the catalog", "entity", c.selected.ID)
		c.invalidated = c.selected.ID
		c.resetLocked()
	case c.opts.AutoSelectFirst && !c.autoSelectDone && len(u.Entities) > 0:
		c.autoSelectDone = true
		first := u.Entities[0]
		epoch = c.beginLocked(first)
		id = first.ID
		start = true
	}
	c.mu.Unlock()

	if start {
		c.startSession(id, epoch)
	}
	c.notify()
}

func (c *Controller) onDay(day schedule.Day, docs []store.Document, epoch uint64) {
	c.mu.Lock()
	if !c.acceptLocked(day, epoch) {
		c.mu.Unlock()
		return
	}
	c.snapshot = c.assembler.ApplyDaySnapshot(c.snapshot, day, docs, epoch, c.epoch)
	delete(c.dayErrs, day)
	c.settledLocked(day, epoch)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onDayError(day schedule.Day, epoch uint64, err error) {
	c.mu.Lock()
	if !c.acceptLocked(day, epoch) {
		c.mu.Unlock()
		return
	}
	c.snapshot = c.assembler.ApplyDaySnapshot(c.snapshot, day, nil, epoch, c.epoch)
	c.dayErrs[day] = err
	c.settledLocked(day, epoch)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) acceptLocked(day schedule.Day, epoch uint64) bool {
	if c.closed || c.selected == nil || epoch != c.epoch {
		c.log.Debug("selection: rejected stale day delivery", "day", day, "epoch", epoch, "current", c.epoch)
		return false
	}
	return true
}

func (c *Controller) settledLocked(day schedule.Day, epoch uint64) {
	if c.settle != nil && c.settle.Mark(day, epoch) && c.settle.Done() {
		c.log.Debug("selection: all days settled", "entity", c.selected.ID, "epoch", epoch)
	}
	if c.state == Selecting {
		c.state = Active
	}
	c.version++
}

func (c *Controller) notify() {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	for _, ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
