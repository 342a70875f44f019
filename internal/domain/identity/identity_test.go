package identity_test

import (
	"testing"

	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given a resolver over the reference roster", t, func() {
		r := identity.NewResolver(roster.Default())

		Convey("When the name matches a roster full name exactly", func() {
			d, ok := r.Resolve("Lewis Hamilton")

			Convey("Then that driver is returned", func() {
				So(ok, ShouldBeTrue)
				So(d.FullName, ShouldEqual, "Lewis Hamilton")
				So(d.ID, ShouldEqual, "HAM")
			})
		})

		Convey("When the upstream name carries extra tokens", func() {
			d, s := r.ResolveWithStrategy("Max Emilian Verstappen")

			Convey("Then the last-name rule matches", func() {
				So(s, ShouldEqual, identity.StrategyLastName)
				So(d.LastName, ShouldEqual, "Verstappen")
			})
		})

		Convey("When the name is the canonical one", func() {
			d, s := r.ResolveWithStrategy("Max Verstappen")
			So(s, ShouldEqual, identity.StrategyExact)
			So(d.ID, ShouldEqual, "VER")
		})

		Convey("When the name is unknown", func() {
			_, ok := r.Resolve("Zzz Nobody")
			So(ok, ShouldBeFalse)
		})

		Convey("When the name is empty or blank", func() {
			_, s := r.ResolveWithStrategy("   ")
			So(s, ShouldEqual, identity.StrategyNone)
		})

		Convey("When matching is case-sensitive for the exact rule", func() {
			d, s := r.ResolveWithStrategy("lewis hamilton")

			Convey("Then only the folded rule can match", func() {
				So(s, ShouldEqual, identity.StrategyFolded)
				So(d.ID, ShouldEqual, "HAM")
			})
		})

		Convey("When upstream drops diacritics", func() {
			d, s := r.ResolveWithStrategy("Sergio Perez")
			So(s, ShouldEqual, identity.StrategyFolded)
			So(d.ID, ShouldEqual, "PER")

			d, _ = r.ResolveWithStrategy("Nico Hulkenberg")
			So(d.ID, ShouldEqual, "HUL")
		})

		Convey("When two drivers share a last name", func() {
			rs, err := roster.New("t", []roster.Driver{
				{ID: "AAA", FullName: "Ann Smith", LastName: "Smith", CurrentGrid: true},
				{ID: "BBB", FullName: "Bob Smith", LastName: "Smith"},
			})
			So(err, ShouldBeNil)
			d, ok := identity.NewResolver(rs).Resolve("Carl Smith")

			Convey("Then roster order breaks the tie", func() {
				So(ok, ShouldBeTrue)
				So(d.ID, ShouldEqual, "AAA")
			})
		})
	})
}

func TestResolveOrUpstreamID(t *testing.T) {
	Convey("Given a resolver over the reference roster", t, func() {
		r := identity.NewResolver(roster.Default())

		Convey("When the name resolves locally", func() {
			d, s := r.ResolveOrUpstreamIDWithStrategy("Lando Norris", "PIA")

			Convey("Then the local result wins over a conflicting upstream code", func() {
				So(s, ShouldEqual, identity.StrategyExact)
				So(d.ID, ShouldEqual, "NOR")
			})
		})

		Convey("When only the upstream code is known to the roster", func() {
			d, s := r.ResolveOrUpstreamIDWithStrategy("L. N.", "nor")
			So(s, ShouldEqual, identity.StrategyUpstreamID)
			So(d.FullName, ShouldEqual, "Lando Norris")
		})

		Convey("When the upstream code is unknown to the roster", func() {
			d, ok := r.ResolveOrUpstreamID("Jane Rookie", "ROO")

			Convey("Then a synthetic identity carries the code verbatim", func() {
				So(ok, ShouldBeTrue)
				So(d.Synthetic, ShouldBeTrue)
				So(d.ID, ShouldEqual, "ROO")
				So(d.FullName, ShouldEqual, "Jane Rookie")
				So(d.LastName, ShouldEqual, "Rookie")
			})
		})

		Convey("When neither name nor code resolve", func() {
			_, ok := r.ResolveOrUpstreamID("Zzz Nobody", "  ")
			So(ok, ShouldBeFalse)
		})
	})
}
