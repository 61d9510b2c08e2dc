package store

import (
	"context"
	"reflect"
	"testing"
)

func TestListDirectChildrenOnly(t *testing.T) {
	p := load(t)
	mustPut(t, p, DefaultCollection, "9B", map[string]any{"name": "Nine B"})
	mustPut(t, p, DefaultCollection, "10A", map[string]any{"name": "Ten A"})
	mustPut(t, p, Join(DefaultCollection, "10A", "mon"), "1", map[string]any{"sname": "Math"})

	docs, err := p.List(context.Background(), DefaultCollection)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(docs); !reflect.DeepEqual(got, []string{"10A", "9B"}) {
		t.Fatalf("expected [10A 9B], got %v", got)
	}
	if docs[0].Fields["name"] != "Ten A" {
		t.Fatalf("unexpected fields %+v", docs[0].Fields)
	}

	days, err := p.List(context.Background(), Join(DefaultCollection, "10A", "mon"))
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(days) != 1 || days[0].ID != "1" || days[0].Fields["sname"] != "Math" {
		t.Fatalf("unexpected day docs %+v", days)
	}
}

func TestListMissingCollectionIsEmpty(t *testing.T) {
	p := load(t)
	docs, err := p.List(context.Background(), Join(DefaultCollection, "nobody", "sat"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty list, got %#v", docs)
	}
}

func TestEscapedIDsRoundTrip(t *testing.T) {
	p := load(t)
	mustPut(t, p, DefaultCollection, "10 A?", map[string]any{"name": "odd"})

	docs, err := p.List(context.Background(), DefaultCollection)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(docs); !reflect.DeepEqual(got, []string{"10 A?"}) {
		t.Fatalf("expected unescaped id, got %v", got)
	}
}

func TestDelete(t *testing.T) {
	p := load(t)
	mustPut(t, p, DefaultCollection, "10A", nil)
	if err := p.Delete(DefaultCollection, "10A"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	docs, err := p.List(context.Background(), DefaultCollection)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no docs, got %v", ids(docs))
	}
}

func TestInvalidSegments(t *testing.T) {
	p := load(t)
	for _, id := range []string{"", "..", "a/b"} {
		if err := p.Put(DefaultCollection, id, nil); err == nil {
			t.Fatalf("expected error for id %q", id)
		}
	}
	if _, err := p.List(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func mustPut(t *testing.T, p Persistence, path, id string, fields map[string]any) {
	t.Helper()
	if err := p.Put(path, id, fields); err != nil {
		t.Fatalf("put %s/%s: %v", path, id, err)
	}
}

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
