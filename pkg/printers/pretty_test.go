package printers

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"tableflip.dev/uniroutine/pkg/catalog"
	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
)

func init() {
	color.NoColor = true
}

func TestCellText(t *testing.T) {
	tests := map[string]struct {
		rec            period.Record
		ok             bool
		requireSubject bool
		want           string
	}{
		"absent": {want: "-"},
		"blank":  {rec: period.Record{Number: 1}, ok: true, want: "-"},
		"full": {
			rec:  period.Record{Number: 1, Subject: "Math", Code: "M1", Teacher: "Mr. X", Room: "101"},
			ok:   true,
			want: "Math\nM1\nMr. X\n101",
		},
		"teacher only": {
			rec:  period.Record{Number: 2, Teacher: "Mr. X"},
			ok:   true,
			want: "Mr. X",
		},
		"teacher only, subject required": {
			rec:            period.Record{Number: 2, Teacher: "Mr. X"},
			ok:             true,
			requireSubject: true,
			want:           "-",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CellText(tc.rec, tc.ok, tc.requireSubject); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestScheduleGrid(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf, Days: []schedule.Day{schedule.Monday}}
	snap := schedule.Snapshot{
		schedule.Monday: {
			{Number: 1, Subject: "Math", Teacher: "Mr. X"},
			{Number: 4, Subject: "Hidden"},
		},
	}
	pp.Schedule(catalog.Entity{ID: "10A"}, snap, map[schedule.Day]error{schedule.Monday: errors.New("boom")})

	out := buf.String()
	for _, want := range []string{"10A", "Monday", "9:00 - 10:00", "Math", "Mr. X", "Lunch Break", "-", "Monday could not be loaded: boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Hidden") {
		t.Fatalf("lunch slot rendered stored data:\n%s", out)
	}
	if strings.Contains(out, "Tuesday") {
		t.Fatalf("expected only monday:\n%s", out)
	}
}

func TestViewStates(t *testing.T) {
	tests := map[string]struct {
		view selection.View
		want string
	}{
		"catalog loading": {view: selection.View{}, want: "Loading classes..."},
		"catalog error":   {view: selection.View{CatalogLoaded: true, CatalogErr: errors.New("denied")}, want: "Failed to load classes: denied"},
		"no classes":      {view: selection.View{CatalogLoaded: true}, want: "No classes found"},
		"no selection": {
			view: selection.View{CatalogLoaded: true, Entities: []catalog.Entity{{ID: "a", Name: "a"}}},
			want: "Select a Class",
		},
		"schedule loading": {
			view: selection.View{CatalogLoaded: true, Selected: &catalog.Entity{ID: "a", Name: "A"}, Loading: true},
			want: "Loading schedule...",
		},
		"invalidated": {
			view: selection.View{CatalogLoaded: true, Entities: []catalog.Entity{{ID: "b", Name: "b"}}, Invalidated: "a"},
			want: "a is no longer available.",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			(&PrettyPrint{Out: &buf}).View(tc.view)
			if !strings.Contains(buf.String(), tc.want) {
				t.Fatalf("expected %q, got:\n%s", tc.want, buf.String())
			}
		})
	}
}

func TestClassesAndOffline(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.Classes([]catalog.Entity{{ID: "10A", Name: "Ten A"}, {ID: "9B", Name: "9B"}}, "9B")
	pp.Offline()

	out := buf.String()
	for _, want := range []string{"Ten A", "*", "You're offline", "Please check your network connection"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
