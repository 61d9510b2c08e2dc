package seed

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"tableflip.dev/uniroutine/pkg/store"
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string { return t.path }
func (t testConfig) Collection() string { return store.DefaultCollection }
func (t testConfig) AutoSelectFirst() bool { return false }
func (t testConfig) LegacyFields() bool { return true }
func (t testConfig) RequireSubject() bool { return false }
func (t testConfig) ProbeInterval() time.Duration { return time.Second }

const fixture = `
classes:
  - id: 10A
    name: Class 10A
    days:
      Monday:
        1: {sname: Math, tname: Mr. X}
        3: {subject: Physics, room: Lab}
      wed:
        2: {sname: Art}
  - id: 9B
`

func TestSeed(t *testing.T) {
	p, err := store.Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()

	s := &Seed{Store: p, Path: "-", Input: strings.NewReader(fixture), Out: io.Discard}
	if err := s.Do(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	classes, err := p.List(ctx, store.DefaultCollection)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(classes) != 2 || classes[0].ID != "10A" || classes[0].Fields["name"] != "Class 10A" {
		t.Fatalf("unexpected classes %+v", classes)
	}

	mon, err := p.List(ctx, store.Join(store.DefaultCollection, "10A", "mon"))
	if err != nil {
		t.Fatalf("list mon: %v", err)
	}
	if len(mon) != 2 || mon[0].ID != "1" || mon[0].Fields["tname"] != "Mr. X" {
		t.Fatalf("unexpected monday %+v", mon)
	}
}

func TestSeedPrune(t *testing.T) {
	p, err := store.Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()
	stale := store.Join(store.DefaultCollection, "10A", "wed")
	if err := p.Put(stale, "7", map[string]any{"sname": "Old"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	s := &Seed{Store: p, Path: "-", Input: strings.NewReader(fixture), Prune: true, Out: io.Discard}
	if err := s.Do(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	wed, err := p.List(ctx, stale)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wed) != 1 || wed[0].ID != "2" {
		t.Fatalf("expected only period 2 left, got %+v", wed)
	}
}

func TestSeedRejectsUnknownDay(t *testing.T) {
	p, err := store.Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	in := "classes:\n  - id: x\n    days:\n      sunday:\n        1: {sname: A}\n"
	s := &Seed{Store: p, Path: "-", Input: strings.NewReader(in), Out: io.Discard}
	if err := s.Do(context.Background()); err == nil {
		t.Fatal("expected error for sunday")
	}
}
