// Package connectivity reports online/offline transitions of the schedule
// source. It only feeds the offline banner; subscriptions heal on their own.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// Status of the source.
type Status int

const (
	Online Status = iota
	Offline
)

func (s Status) String() string {
	if s == Offline {
		return "offline"
	}
	return "online"
}

// Probe returns nil when the source is reachable.
type Probe func(ctx context.Context) error

// PathProbe checks that a store directory is reachable, which covers
// network mounts going away.
func PathProbe(path string) Probe {
	return func(context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("connectivity: %s is not a directory", path)
		}
		return nil
	}
}

// DialProbe checks that a TCP endpoint accepts connections.
func DialProbe(addr string, timeout time.Duration) Probe {
	return func(ctx context.Context) error {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// Monitor polls a Probe.
type Monitor struct {
	Probe    Probe
	Interval time.Duration
	Logger   *slog.Logger
}

// New returns a Monitor polling probe every interval (5s when zero).
func New(probe Probe, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{Probe: probe, Interval: interval, Logger: logger}
}

// Watch sends the initial status and then every transition until ctx is
// done, when the channel is closed.
func (m *Monitor) Watch(ctx context.Context) <-chan Status {
	out := make(chan Status, 1)
	interval := m.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := Status(-1)
		for {
			status := m.check(ctx)
			if ctx.Err() != nil {
				return
			}
			if status != last {
				last = status
				select {
				case out <- status:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

func (m *Monitor) check(ctx context.Context) Status {
	if m.Probe == nil {
		return Online
	}
	if err := m.Probe(ctx); err != nil {
		if m.Logger != nil {
			m.Logger.Debug("connectivity: probe failed", "error", err)
		}
		return Offline
	}
	return Online
}
