package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// Persistence is the diskv-backed document store. The schedule engine only
// reads through the Source half; Put and Delete exist for fixtures and seeding.
type Persistence interface {
	Source
	Root() string
	List(ctx context.Context, path string) ([]Document, error)
	Put(path, id string, fields map[string]any) error
	Delete(path, id string) error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Persistence backed by diskv using the provided config.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	root := cfg.Collection()
	if root == "" {
		root = DefaultCollection
	}
	if err := validSegment(root); err != nil {
		return nil, err
	}
	p := &persistence{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	}), basePath: basePath, root: root}
	p.hub = newHub(p)
	return p, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
	root     string
	hub      *hub
}

func (p *persistence) Root() string {
	return p.root
}

// read bypasses the diskv cache: other processes write into the same tree and
// the cache only learns about writes made through this handle.
func (p *persistence) read(key string) (map[string]any, error) {
	rc, err := p.d.ReadStream(key, true)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	val, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if len(strings.TrimSpace(string(val))) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(val, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// List returns the direct documents of a collection ordered by id. A missing
// collection is an empty list, not an error.
func (p *persistence) List(ctx context.Context, path string) ([]Document, error) {
	prefix, err := collectionPrefix(path)
	if err != nil {
		return nil, err
	}
	segments := Split(path)
	depth := len(segments)

	docs := make([]Document, 0)
	dir := filepath.Join(append([]string{p.basePath}, strings.Split(strings.TrimSuffix(prefix, "/"), "/")...)...)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return docs, nil
		}
		return nil, fmt.Errorf("store: stat %s: %w", Join(segments...), err)
	}
	for key := range p.d.KeysPrefix(prefix, ctx.Done()) {
		parts := strings.Split(key, "/")
		if len(parts) != depth+1 {
			continue
		}
		fields, err := p.read(key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Removed between the walk and the read.
				continue
			}
			slog.Warn("store: skipping unreadable document", "key", key, "error", err)
			continue
		}
		docs = append(docs, Document{ID: fromSegment(parts[depth]), Fields: fields})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sortDocuments(docs)
	return docs, nil
}

func (p *persistence) Put(path, id string, fields map[string]any) error {
	key, err := toKey(path, id)
	if err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return p.d.Write(key, data)
}

func (p *persistence) Delete(path, id string) error {
	key, err := toKey(path, id)
	if err != nil {
		return err
	}
	return p.d.Erase(key)
}

const documentExt = ".json"

func collectionPrefix(path string) (string, error) {
	segments := Split(path)
	if len(segments) == 0 {
		return "", errors.New("store: collection path required")
	}
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		if err := validSegment(s); err != nil {
			return "", err
		}
		escaped = append(escaped, escapeSegment(s))
	}
	return strings.Join(escaped, "/") + "/", nil
}

func sortDocuments(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1] + documentExt,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	name := strings.TrimSuffix(pathKey.FileName, documentExt)
	path := make([]string, 0, len(pathKey.Path))
	for _, p := range pathKey.Path {
		if p == "" || p == "." {
			continue
		}
		path = append(path, p)
	}
	if len(path) == 0 {
		return name
	}
	return fmt.Sprintf("%s/%s", strings.Join(path, "/"), name)
}
