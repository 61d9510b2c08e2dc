package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/store"
	"tableflip.dev/uniroutine/pkg/store/storetest"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(t *testing.T, opts Options) (*Controller, *storetest.Source) {
	t.Helper()
	src := storetest.New()
	opts.Logger = quiet()
	c := New(src, opts)
	c.Start()
	t.Cleanup(c.Close)
	return c, src
}

func emitCatalog(src *storetest.Source, ids ...string) {
	docs := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, storetest.Doc(id, "name", "Class "+id))
	}
	src.Emit(src.Root, docs...)
}

func dayPath(src *storetest.Source, id string, day schedule.Day) string {
	return store.Join(src.Root, id, string(day))
}

func settleAll(src *storetest.Source, id string) {
	for _, day := range schedule.Days {
		src.EmitDay(id, string(day))
	}
}

func TestStartsIdle(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "10A", "9B")

	v := c.View()
	if v.State != Idle || v.Selected != nil {
		t.Fatalf("expected idle without selection, got %s %+v", v.State, v.Selected)
	}
	if !v.CatalogLoaded || len(v.Entities) != 2 {
		t.Fatalf("expected loaded catalog with 2 entities, got %+v", v.Entities)
	}
	if got := src.ActivePaths(); !reflect.DeepEqual(got, []string{src.Root}) {
		t.Fatalf("expected only the catalog subscription, got %v", got)
	}
}

func TestSelectEndToEnd(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "10A")

	if err := c.Select("10A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v := c.View(); v.State != Selecting || !v.Loading || !v.Disabled() {
		t.Fatalf("expected selecting and loading, got %s loading=%v", v.State, v.Loading)
	}
	if got := src.Active(); got != 1+len(schedule.Days) {
		t.Fatalf("expected catalog plus %d day subscriptions, got %d", len(schedule.Days), got)
	}

	src.EmitDay("10A", "mon", storetest.Doc("1", "sname", "Math", "tname", "Mr. X"))

	v := c.View()
	if v.State != Active {
		t.Fatalf("expected active after first day, got %s", v.State)
	}
	rec, ok := v.Lookup(schedule.Monday, 1)
	if !ok {
		t.Fatal("expected mon/1")
	}
	if want := (period.Record{Number: 1, Subject: "Math", Teacher: "Mr. X"}); rec != want {
		t.Fatalf("expected %+v, got %+v", want, rec)
	}
	if _, ok := v.Lookup(schedule.Monday, 2); ok {
		t.Fatal("expected mon/2 to be absent")
	}
	if v.SelectedID() != "10A" || v.Selected.Name != "Class 10A" {
		t.Fatalf("unexpected selection %+v", v.Selected)
	}
}

func TestLoadingUntilAllDaysSettle(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "10A")
	if err := c.Select("10A"); err != nil {
		t.Fatalf("select: %v", err)
	}

	for i, day := range schedule.Days {
		if v := c.View(); !v.Loading {
			t.Fatalf("loading cleared after %d days", i)
		}
		src.EmitDay("10A", string(day))
	}
	v := c.View()
	if v.Loading || v.Settled != len(schedule.Days) {
		t.Fatalf("expected settled, got loading=%v settled=%d", v.Loading, v.Settled)
	}
	if len(v.Snapshot) != len(schedule.Days) {
		t.Fatalf("expected every day reported, got %d", len(v.Snapshot))
	}
}

func TestDayErrorSettlesOnlyThatDay(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "10A")
	if err := c.Select("10A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	src.EmitDay("10A", "tue", storetest.Doc("2", "sname", "Bio"))

	boom := errors.New("quota exceeded")
	src.Fail(dayPath(src, "10A", schedule.Wednesday), boom)

	v := c.View()
	if v.Settled != 2 || !v.Loading {
		t.Fatalf("expected 2 settled days and still loading, got %d %v", v.Settled, v.Loading)
	}
	if !errors.Is(v.DayErrors[schedule.Wednesday], boom) {
		t.Fatalf("expected wednesday error, got %v", v.DayErrors)
	}
	if periods, ok := v.Snapshot[schedule.Wednesday]; !ok || len(periods) != 0 {
		t.Fatalf("expected failed day to render empty, got %+v", periods)
	}
	if _, ok := v.Lookup(schedule.Tuesday, 2); !ok {
		t.Fatal("failure of one day affected another")
	}

	src.EmitDay("10A", "wed", storetest.Doc("1", "sname", "Art"))
	if v := c.View(); v.DayErrors[schedule.Wednesday] != nil {
		t.Fatalf("expected recovery to clear the day error, got %v", v.DayErrors)
	}
}

func TestStaleDeliveryRejected(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "A", "B")

	if err := c.Select("A"); err != nil {
		t.Fatalf("select A: %v", err)
	}
	oldMon := src.Handles(dayPath(src, "A", schedule.Monday))[0]

	if err := c.Select("B"); err != nil {
		t.Fatalf("select B: %v", err)
	}
	if !oldMon.Closed() {
		t.Fatal("expected A subscriptions to be closed")
	}
	for _, p := range src.ActivePaths() {
		if p == dayPath(src, "A", schedule.Monday) {
			t.Fatalf("A still subscribed: %v", src.ActivePaths())
		}
	}

	// A callback of A that was already in flight lands after the switch.
	oldMon.Deliver(storetest.Doc("1", "sname", "Leaked"))
	oldMon.Fail(errors.New("late"))

	v := c.View()
	if v.SelectedID() != "B" || v.Session.EntityID != "B" {
		t.Fatalf("expected B selected, got %+v", v.Session)
	}
	if len(v.Snapshot) != 0 || v.Settled != 0 || len(v.DayErrors) != 0 {
		t.Fatalf("stale delivery leaked: snapshot=%+v settled=%d errs=%v", v.Snapshot, v.Settled, v.DayErrors)
	}

	src.EmitDay("B", "mon", storetest.Doc("1", "sname", "Fresh"))
	if rec, _ := c.View().Lookup(schedule.Monday, 1); rec.Subject != "Fresh" {
		t.Fatalf("expected B data, got %+v", rec)
	}
}

func TestReselectStartsNewEpoch(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "A")
	if err := c.Select("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	first := c.View().Session.Epoch
	old := src.Handles(dayPath(src, "A", schedule.Friday))[0]

	if err := c.Select("A"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if got := c.View().Session.Epoch; got <= first {
		t.Fatalf("expected epoch to advance past %d, got %d", first, got)
	}
	old.Deliver(storetest.Doc("1", "sname", "Old"))
	if _, ok := c.View().Snapshot[schedule.Friday]; ok {
		t.Fatal("delivery from previous session was applied")
	}
}

func TestSelectUnknown(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "A")
	if err := c.Select("Z"); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
	if c.View().State != Idle {
		t.Fatal("unknown select changed state")
	}
}

func TestClear(t *testing.T) {
	for name, reset := range map[string]func(*Controller){
		"clear":        func(c *Controller) { c.Clear() },
		"empty select": func(c *Controller) { _ = c.Select("") },
	} {
		t.Run(name, func(t *testing.T) {
			c, src := newController(t, Options{})
			emitCatalog(src, "A")
			if err := c.Select("A"); err != nil {
				t.Fatalf("select: %v", err)
			}
			settleAll(src, "A")
			src.EmitDay("A", "mon", storetest.Doc("1", "sname", "Math"))

			reset(c)

			v := c.View()
			if v.State != Idle || v.Selected != nil || v.Loading {
				t.Fatalf("expected idle, got %s %+v loading=%v", v.State, v.Selected, v.Loading)
			}
			if len(v.Snapshot) != 0 {
				t.Fatalf("expected empty snapshot, got %+v", v.Snapshot)
			}
			if got := src.ActivePaths(); !reflect.DeepEqual(got, []string{src.Root}) {
				t.Fatalf("expected only the catalog subscription, got %v", got)
			}
		})
	}
}

func TestSelectionLeavesCatalog(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "A", "B")
	if err := c.Select("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	src.EmitDay("A", "mon", storetest.Doc("1", "sname", "Math"))

	emitCatalog(src, "B")

	v := c.View()
	if v.State != Idle || v.Selected != nil {
		t.Fatalf("expected idle after removal, got %s %+v", v.State, v.Selected)
	}
	if v.Invalidated != "A" {
		t.Fatalf("expected invalidated A, got %q", v.Invalidated)
	}
	if len(v.Snapshot) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", v.Snapshot)
	}
	if got := src.ActivePaths(); !reflect.DeepEqual(got, []string{src.Root}) {
		t.Fatalf("expected day subscriptions closed, got %v", got)
	}
}

func TestCatalogRenameKeepsSelection(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "A")
	if err := c.Select("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	epoch := c.View().Session.Epoch

	src.Emit(src.Root, storetest.Doc("A", "name", "Renamed"))

	v := c.View()
	if v.Selected == nil || v.Selected.Name != "Renamed" {
		t.Fatalf("expected renamed selection, got %+v", v.Selected)
	}
	if v.Session.Epoch != epoch {
		t.Fatalf("rename restarted the session: %d != %d", v.Session.Epoch, epoch)
	}
}

func TestAutoSelectFirst(t *testing.T) {
	c, src := newController(t, Options{AutoSelectFirst: true})

	emitCatalog(src)
	if c.View().Selected != nil {
		t.Fatal("empty catalog should not select")
	}
	emitCatalog(src, "X", "Y")
	if got := c.View().SelectedID(); got != "X" {
		t.Fatalf("expected X auto-selected, got %q", got)
	}

	c.Clear()
	emitCatalog(src, "Y", "X")
	if got := c.View().SelectedID(); got != "" {
		t.Fatalf("auto-select fired again: %q", got)
	}
}

func TestCatalogError(t *testing.T) {
	c, src := newController(t, Options{})
	emitCatalog(src, "A")
	src.Fail(src.Root, errors.New("denied"))

	v := c.View()
	if v.CatalogErr == nil {
		t.Fatal("expected catalog error")
	}
	if len(v.Entities) != 0 {
		t.Fatalf("expected no options, got %+v", v.Entities)
	}
	if err := c.Select("A"); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestWatchSignals(t *testing.T) {
	c, src := newController(t, Options{})
	changes, cancel := c.Watch()
	defer cancel()

	emitCatalog(src, "A")
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}

	cancel()
	if _, ok := <-changes; ok {
		t.Fatal("expected channel closed after cancel")
	}
}

func TestClose(t *testing.T) {
	src := storetest.New()
	c := New(src, Options{Logger: quiet()})
	c.Start()
	emitCatalog(src, "A")
	if err := c.Select("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	c.Close()
	c.Close()

	if src.Active() != 0 {
		t.Fatalf("expected no live subscriptions, got %v", src.ActivePaths())
	}
	if err := c.Select("A"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	changes, cancel := c.Watch()
	defer cancel()
	select {
	case _, ok := <-changes:
		if ok {
			t.Fatal("expected a closed channel from Watch after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Watch after Close returned a channel that never closes")
	}
}

func TestLoad(t *testing.T) {
	src := storetest.New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		waitFor(ctx, func() bool { return src.Active() >= 1 })
		src.Emit(src.Root, storetest.Doc("10A", "name", "Ten A"))
		waitFor(ctx, func() bool { return src.Active() >= 1+len(schedule.Days) })
		for _, day := range schedule.Days {
			src.EmitDay("10A", string(day), storetest.Doc("3", "sname", "Math", "room", "101"))
		}
	}()

	v, err := Load(ctx, src, "10A", Options{Logger: quiet()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v.Loading || v.SelectedID() != "10A" {
		t.Fatalf("unexpected view: loading=%v selected=%q", v.Loading, v.SelectedID())
	}
	if rec, ok := v.Lookup(schedule.Saturday, 3); !ok || rec.Room != "101" {
		t.Fatalf("expected sat/3 in room 101, got %+v %v", rec, ok)
	}
	if src.Active() != 0 {
		t.Fatalf("load leaked subscriptions: %v", src.ActivePaths())
	}
}

func TestLoadUnknown(t *testing.T) {
	src := storetest.New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		waitFor(ctx, func() bool { return src.Active() >= 1 })
		src.Emit(src.Root, storetest.Doc("10A"))
	}()

	if _, err := Load(ctx, src, "nope", Options{Logger: quiet()}); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func waitFor(ctx context.Context, cond func() bool) {
	for !cond() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}
