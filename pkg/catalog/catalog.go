// Package catalog keeps the live list of selectable classes.
package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"tableflip.dev/uniroutine/pkg/store"
)

// Entity is a selectable class. Name is never empty: it falls back to ID.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubscribeError wraps a transport failure on the catalog subscription.
type SubscribeError struct {
	Path string
	Err  error
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("catalog: subscribe %s: %v", e.Path, e.Err)
}

func (e *SubscribeError) Unwrap() error {
	return e.Err
}

// Update is delivered on every catalog change. Entities is the full current
// list, never a diff. When Err is set the list is empty.
type Update struct {
	Entities []Entity
	Err      error
}

// Catalog subscribes to the root collection of the store.
type Catalog struct {
	Source     store.Source
	Collection string
	Logger     *slog.Logger
}

// New returns a Catalog over collection (store.DefaultCollection when empty).
func New(src store.Source, collection string, logger *slog.Logger) *Catalog {
	if collection == "" {
		collection = store.DefaultCollection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{Source: src, Collection: collection, Logger: logger}
}

// Subscribe opens the single live subscription and calls onUpdate with the full
// entity list after every upstream change. A transport failure is delivered
// as an Update with an empty list and a *SubscribeError.
func (c *Catalog) Subscribe(onUpdate func(Update)) store.Unsubscribe {
	path := c.Collection
	if path == "" {
		path = store.DefaultCollection
	}
	return c.Source.SubscribeCollection(path,
		func(docs []store.Document) {
			onUpdate(Update{Entities: Entities(docs)})
		},
		func(err error) {
			c.logger().Error("catalog: subscription failed", "path", path, "error", err)
			onUpdate(Update{Entities: []Entity{}, Err: &SubscribeError{Path: path, Err: err}})
		},
	)
}

func (c *Catalog) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Entities converts catalog documents, keeping their order.
func Entities(docs []store.Document) []Entity {
	out := make([]Entity, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromDocument(doc))
	}
	return out
}

// FromDocument reads an entity, falling back to the id for the name.
func FromDocument(doc store.Document) Entity {
	name, _ := doc.Fields["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		name = doc.ID
	}
	return Entity{ID: doc.ID, Name: name}
}

// Find returns the entity with id.
func Find(entities []Entity, id string) (Entity, bool) {
	for _, e := range entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}
