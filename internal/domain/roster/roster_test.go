package roster_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/pitwall/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultRoster(t *testing.T) {
	Convey("Given the embedded reference roster", t, func() {
		r := roster.Default()

		Convey("Then it lists the active grid before retired drivers", func() {
			drivers := r.Drivers()
			So(len(drivers), ShouldBeGreaterThan, 20)
			seenRetired := false
			for _, d := range drivers {
				if !d.CurrentGrid {
					seenRetired = true
					continue
				}
				So(seenRetired, ShouldBeFalse)
			}
			So(r.Version(), ShouldNotBeEmpty)
		})

		Convey("Then drivers are found by id regardless of case", func() {
			d, ok := r.ByID("ham")
			So(ok, ShouldBeTrue)
			So(d.FullName, ShouldEqual, "Lewis Hamilton")
			So(d.Team, ShouldEqual, "Ferrari")

			_, ok = r.ByID("XXX")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the current grid allow-list holds twenty codes", func() {
			grid := r.CurrentGrid()
			So(grid, ShouldHaveLength, 20)
			So(grid[0], ShouldEqual, "VER")
			So(grid, ShouldNotContain, "PER")
		})

		Convey("Then Drivers returns a copy", func() {
			drivers := r.Drivers()
			drivers[0].FullName = "changed"
			d, _ := r.ByID(drivers[0].ID)
			So(d.FullName, ShouldNotEqual, "changed")
		})

		Convey("Then Each stops when asked", func() {
			n := 0
			r.Each(func(roster.Driver) bool {
				n++
				return n < 3
			})
			So(n, ShouldEqual, 3)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given YAML roster documents", t, func() {
		Convey("When the document is valid", func() {
			r, err := roster.Load(strings.NewReader(`
version: test
drivers:
  - {id: AAA, full_name: Ann Able, last_name: Able, team: One, number: 1, current_grid: true}
  - {id: BBB, full_name: Bob Baker, last_name: Baker, team: Two, number: 2}
`))

			Convey("Then order and flags are preserved", func() {
				So(err, ShouldBeNil)
				So(r.Len(), ShouldEqual, 2)
				So(r.Drivers()[1].ID, ShouldEqual, "BBB")
				So(r.CurrentGrid(), ShouldResemble, []string{"AAA"})
			})
		})

		Convey("When ids collide", func() {
			_, err := roster.Load(strings.NewReader(`
drivers:
  - {id: AAA, full_name: Ann Able, last_name: Able}
  - {id: aaa, full_name: Al Able, last_name: Able}
`))
			So(errors.Is(err, roster.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When a last name is missing", func() {
			_, err := roster.Load(strings.NewReader(`
drivers:
  - {id: AAA, full_name: Ann Able, last_name: "  "}
`))
			So(errors.Is(err, roster.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When the roster is empty or malformed", func() {
			_, err := roster.Load(strings.NewReader(`drivers: []`))
			So(errors.Is(err, roster.ErrInvalidRoster), ShouldBeTrue)

			_, err = roster.Load(strings.NewReader(`drivers: [`))
			So(errors.Is(err, roster.ErrInvalidRoster), ShouldBeTrue)

			_, err = roster.Load(strings.NewReader(`unknown_key: 1`))
			So(errors.Is(err, roster.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := roster.LoadFile("/non/existent/roster.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}
