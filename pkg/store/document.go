package store

import (
	"fmt"
	"net/url"
	"strings"
)

// Document is a single stored record: its identifier within the collection
// plus the decoded JSON fields.
type Document struct {
	ID     string
	Fields map[string]any
}

// Unsubscribe stops a live subscription. Implementations must make it safe to
// call more than once.
type Unsubscribe func()

// Source is the live document transport consumed by the schedule engine. Both
// subscriptions deliver the full, id-ordered document set of the collection on
// every change, never a diff. Callbacks are never invoked on the caller's
// goroutine during the Subscribe call itself.
type Source interface {
	SubscribeCollection(path string, onChange func([]Document), onError func(error)) Unsubscribe
	SubscribeSubcollection(entityID, day string, onChange func([]Document), onError func(error)) Unsubscribe
}

// Join builds a collection path out of raw segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split breaks a collection path back into its segments.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func validSegment(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("store: empty path segment")
	}
	if s == "." || s == ".." {
		return fmt.Errorf("store: invalid path segment %q", s)
	}
	if strings.Contains(s, "/") {
		return fmt.Errorf("store: path segment %q contains '/'", s)
	}
	return nil
}

func escapeSegment(s string) string {
	return url.PathEscape(s)
}

// toKey makes `escaped/collection/path/escapedID`
func toKey(path, id string) (string, error) {
	segments := append(Split(path), id)
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		if err := validSegment(s); err != nil {
			return "", err
		}
		escaped = append(escaped, escapeSegment(s))
	}
	return strings.Join(escaped, "/"), nil
}

func fromSegment(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
