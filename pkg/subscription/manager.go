// Package subscription opens and tears down the per-day subscriptions of one
// selected class.
package subscription

import (
	"fmt"
	"log/slog"
	"sync"

	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/store"
)

// DayFunc receives the full document set of day, tagged with the epoch the
// subscription was started with.
type DayFunc func(day schedule.Day, docs []store.Document, epoch uint64)

// DayErrorFunc receives a failure local to one day.
type DayErrorFunc func(day schedule.Day, epoch uint64, err error)

// StopFunc unsubscribes every day of a session. It is idempotent.
type StopFunc func()

// DaySubscribeError wraps a transport failure on one weekday subscription.
type DaySubscribeError struct {
	EntityID string
	Day      schedule.Day
	Epoch    uint64
	Err      error
}

func (e *DaySubscribeError) Error() string {
	return fmt.Sprintf("subscription: %s/%s (epoch %d): %v", e.EntityID, e.Day, e.Epoch, e.Err)
}

func (e *DaySubscribeError) Unwrap() error {
	return e.Err
}

// Manager opens one subscription per schedule.Days entry.
type Manager struct {
	Source store.Source
	Logger *slog.Logger
}

// NewManager returns a Manager over src.
func NewManager(src store.Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{Source: src, Logger: logger}
}

// Start subscribes to every weekday partition of entityID. Each callback
// carries epoch unchanged; deciding whether it is still current is the
// caller's job.
func (m *Manager) Start(entityID string, epoch uint64, onDay DayFunc, onDayError DayErrorFunc) StopFunc {
	log := m.logger().With("entity", entityID, "epoch", epoch)

	unsubs := make([]store.Unsubscribe, 0, len(schedule.Days))
	for _, day := range schedule.Days {
		day := day
		unsub := m.Source.SubscribeSubcollection(entityID, string(day),
			func(docs []store.Document) {
				onDay(day, docs, epoch)
			},
			func(err error) {
				derr := &DaySubscribeError{EntityID: entityID, Day: day, Epoch: epoch, Err: err}
				log.Warn("subscription: day failed", "day", day, "error", err)
				onDayError(day, epoch, derr)
			},
		)
		unsubs = append(unsubs, unsub)
	}
	log.Debug("subscription: started", "days", len(unsubs))

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsub := range unsubs {
				unsub()
			}
			log.Debug("subscription: stopped")
		})
	}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
