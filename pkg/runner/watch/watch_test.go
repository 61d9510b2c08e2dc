package watch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/uniroutine/pkg/connectivity"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store/storetest"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchRendersLiveUpdates(t *testing.T) {
	color.NoColor = true
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := storetest.New()
	out := &syncBuffer{}

	probe := func(context.Context) error { return errors.New("down") }
	w := &Watch{
		Source:  src,
		Options: selection.Options{Logger: logger},
		ID:      "10A",
		Monitor: connectivity.New(probe, time.Hour, logger),
		Out:     out,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Do(ctx) }()

	waitFor(t, ctx, func() bool { return src.Active() >= 1 })
	src.Emit(src.Root, storetest.Doc("10A", "name", "Ten A"))
	waitFor(t, ctx, func() bool { return src.Active() >= 1+len(schedule.Days) })
	for _, day := range schedule.Days {
		src.EmitDay("10A", string(day))
	}
	src.EmitDay("10A", "mon", storetest.Doc("1", "sname", "Math"))
	waitFor(t, ctx, func() bool { return strings.Contains(out.String(), "Math") })
	waitFor(t, ctx, func() bool { return strings.Contains(out.String(), "You're offline") })

	src.EmitDay("10A", "mon", storetest.Doc("1", "sname", "Physics"))
	waitFor(t, ctx, func() bool { return strings.Contains(out.String(), "Physics") })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	if src.Active() != 0 {
		t.Fatalf("watch leaked subscriptions: %v", src.ActivePaths())
	}
}

func TestWatchUnknownClass(t *testing.T) {
	src := storetest.New()
	w := &Watch{
		Source:  src,
		Options: selection.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		ID:      "nope",
		Out:     io.Discard,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Do(ctx) }()

	waitFor(t, ctx, func() bool { return src.Active() >= 1 })
	src.Emit(src.Root, storetest.Doc("10A"))

	select {
	case err := <-done:
		if !errors.Is(err, selection.ErrUnknownEntity) {
			t.Fatalf("expected ErrUnknownEntity, got %v", err)
		}
	case <-ctx.Done():
		t.Fatal("watch did not fail")
	}
}

func waitFor(t *testing.T, ctx context.Context, cond func() bool) {
	t.Helper()
	for !cond() {
		select {
		case <-ctx.Done():
			t.Fatal("timed out")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
