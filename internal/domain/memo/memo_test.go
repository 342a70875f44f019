package memo_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/okian/pitwall/internal/domain/memo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given a new Set", t, func() {
		s := memo.New(memo.WithCapacity(8))

		Convey("Then it starts empty", func() {
			So(s.Size(), ShouldEqual, 0)
			So(s.Keys(), ShouldBeEmpty)
		})

		Convey("When a key is recorded", func() {
			seen := s.SeenAndRecord("https://cdn.test/ver.png")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(s.Size(), ShouldEqual, 1)
				So(s.Seen("https://cdn.test/ver.png"), ShouldBeTrue)
			})

			Convey("And it is recorded again", func() {
				again := s.SeenAndRecord("https://cdn.test/ver.png")

				Convey("Then it is reported as seen without growing", func() {
					So(again, ShouldBeTrue)
					So(s.Size(), ShouldEqual, 1)
				})
			})

			Convey("And it is unrecorded", func() {
				s.Unrecord("https://cdn.test/ver.png")
				s.Unrecord("never-recorded")

				Convey("Then it can be recorded as new again", func() {
					So(s.Size(), ShouldEqual, 0)
					So(s.SeenAndRecord("https://cdn.test/ver.png"), ShouldBeFalse)
				})
			})
		})

		Convey("When several keys are recorded", func() {
			for _, k := range []string{"c", "a", "b"} {
				s.SeenAndRecord(k)
			}

			Convey("Then Keys lists them in lexical order", func() {
				So(s.Keys(), ShouldResemble, []string{"a", "b", "c"})
			})

			Convey("And the set is reset", func() {
				s.Reset()

				Convey("Then everything is forgotten", func() {
					So(s.Size(), ShouldEqual, 0)
					So(s.Seen("a"), ShouldBeFalse)
				})
			})
		})

		Convey("When many goroutines race on the same keys", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for g := 0; g < 16; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						if !s.SeenAndRecord(fmt.Sprintf("key-%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each key is new exactly once", func() {
				So(fresh, ShouldEqual, 50)
				So(s.Size(), ShouldEqual, 50)
			})
		})
	})
}
