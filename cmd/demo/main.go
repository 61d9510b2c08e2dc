// Command demo seeds the configured store with a small set of routines.
package main

import (
	"context"
	"os"
	"strings"

	"tableflip.dev/uniroutine/pkg/runner/seed"
	"tableflip.dev/uniroutine/pkg/store"
)

const routines = `
classes:
  - id: 10A
    name: Class 10A
    days:
      mon:
        1: {sname: Mathematics, scode: MTH101, tname: Mr. X, room: "101"}
        2: {sname: Physics, scode: PHY101, tname: Dr. Y, room: Lab 1}
        5: {sname: English, tname: Ms. Z, room: "101"}
      tue:
        1: {subject: Chemistry, faculty: Dr. Y, venue: Lab 2}
        3: {sname: History, tname: Mr. W}
      wed:
        2: {sname: Mathematics, scode: MTH101, tname: Mr. X, room: "101"}
        6: {sname: Art, tname: Ms. V, room: Studio}
      thu:
        1: {sname: Biology, tname: Dr. U, room: Lab 3}
      fri:
        7: {sname: Sports, tname: Coach T, room: Field}
      sat: {}
  - id: 9B
    name: Class 9B
    days:
      mon:
        1: {sname: Geography, tname: Ms. S}
`

func main() {
	p, err := store.Load(nil)
	if err != nil {
		panic(err)
	}

	s := seed.Seed{Store: p, Path: "-", Input: strings.NewReader(routines), Prune: true, Out: os.Stdout}
	if err := s.Do(context.Background()); err != nil {
		panic(err)
	}
}
