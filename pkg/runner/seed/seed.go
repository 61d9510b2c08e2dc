// Package seed loads classes and their periods from a YAML fixture into the
// store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/store"
)

// File is the fixture layout:
//
//	classes:
//	  - id: 10A
//	    name: Class 10A
//	    days:
//	      Monday:
//	        1: {sname: Math, tname: Mr. X}
type File struct {
	Classes []Class `yaml:"classes"`
}

type Class struct {
	ID   string                            `yaml:"id"`
	Name string                            `yaml:"name"`
	Days map[string]map[int]map[string]any `yaml:"days"`
}

// Writer is the part of store.Persistence seeding needs.
type Writer interface {
	Root() string
	List(ctx context.Context, path string) ([]store.Document, error)
	Put(path, id string, fields map[string]any) error
	Delete(path, id string) error
}

type Seed struct {
	Store Writer
	// Path of the fixture; "-" reads Input.
	Path  string
	Input io.Reader
	// Prune removes stored periods of a seeded day that the fixture omits.
	Prune bool
	Out   io.Writer
}

func (s *Seed) Do(ctx context.Context) error {
	if s.Store == nil {
		return errors.New("seed: no store")
	}
	f, err := s.read()
	if err != nil {
		return err
	}

	root := s.Store.Root()
	periods := 0
	for _, class := range f.Classes {
		if class.ID == "" {
			return errors.New("seed: class without id")
		}
		fields := map[string]any{}
		if class.Name != "" {
			fields["name"] = class.Name
		}
		if err := s.Store.Put(root, class.ID, fields); err != nil {
			return fmt.Errorf("seed: class %s: %w", class.ID, err)
		}

		for key, slots := range class.Days {
			day, err := schedule.ParseDay(key)
			if err != nil {
				return fmt.Errorf("seed: class %s: %w", class.ID, err)
			}
			path := store.Join(root, class.ID, string(day))
			for n, fields := range slots {
				if n < 1 {
					return fmt.Errorf("seed: class %s %s: invalid period %d", class.ID, day, n)
				}
				if err := s.Store.Put(path, strconv.Itoa(n), fields); err != nil {
					return fmt.Errorf("seed: %s/%d: %w", path, n, err)
				}
				periods++
			}
			if s.Prune {
				if err := s.prune(ctx, path, slots); err != nil {
					return err
				}
			}
		}
	}

	out := s.Out
	if out == nil {
		out = color.Output
	}
	_, _ = fmt.Fprintf(out, "Seeded %d classes, %d periods.\n", len(f.Classes), periods)
	return nil
}

func (s *Seed) read() (*File, error) {
	var r io.Reader
	switch {
	case s.Path == "-" || (s.Path == "" && s.Input != nil):
		r = s.Input
		if r == nil {
			r = os.Stdin
		}
	case s.Path != "":
		fh, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		defer fh.Close()
		r = fh
	default:
		return nil, errors.New("seed: fixture path required")
	}

	f := &File{}
	if err := yaml.NewDecoder(r).Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return f, nil
}

func (s *Seed) prune(ctx context.Context, path string, keep map[int]map[string]any) error {
	docs, err := s.Store.List(ctx, path)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		n, err := strconv.Atoi(doc.ID)
		if err == nil {
			if _, ok := keep[n]; ok {
				continue
			}
		}
		if err := s.Store.Delete(path, doc.ID); err != nil {
			return fmt.Errorf("seed: prune %s/%s: %w", path, doc.ID, err)
		}
	}
	return nil
}
