package forecast_test

import (
	"testing"

	"github.com/okian/pitwall/internal/domain/forecast"
	"github.com/okian/pitwall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPodium(t *testing.T) {
	Convey("Given the podium curve", t, func() {
		Convey("When the driver is predicted on the podium", func() {
			So(forecast.Podium(1, 40), ShouldEqual, 80)
			So(forecast.Podium(1, 60), ShouldEqual, 99)
			So(forecast.Podium(3, 10), ShouldEqual, 70)
		})

		Convey("When the driver is predicted in the midfield", func() {
			So(forecast.Podium(4, 10), ShouldEqual, 40)
			So(forecast.Podium(5, 2), ShouldEqual, 20)
			So(forecast.Podium(6, 30), ShouldEqual, 60)
		})

		Convey("When the driver is predicted further back", func() {
			So(forecast.Podium(7, 90), ShouldEqual, 8)
			So(forecast.Podium(14, 0), ShouldEqual, 1)
			So(forecast.Podium(20, 0), ShouldEqual, 1)
		})

		Convey("When the position is unknown", func() {
			So(forecast.Podium(model.UnknownPosition, 50), ShouldEqual, 1)
		})
	})
}

func TestPoints(t *testing.T) {
	Convey("Given the points curve", t, func() {
		So(forecast.Points(1), ShouldEqual, 95)
		So(forecast.Points(8), ShouldEqual, 60)
		So(forecast.Points(10), ShouldEqual, 60)
		So(forecast.Points(11), ShouldEqual, 35)
		So(forecast.Points(15), ShouldEqual, 15)
		So(forecast.Points(17), ShouldEqual, 5)
		So(forecast.Points(22), ShouldEqual, 5)
		So(forecast.Points(model.UnknownPosition), ShouldEqual, 5)
	})
}

func TestDerive(t *testing.T) {
	Convey("Given a prediction with only a win probability", t, func() {
		p := forecast.Derive(2, 30, nil, nil)

		Convey("Then podium and points are derived", func() {
			So(p, ShouldResemble, model.Probabilities{Win: 30, Podium: 70, Points: 90})
		})
	})

	Convey("Given a prediction with explicit stats", t, func() {
		podium, points := 12.5, 140.0
		p := forecast.Derive(2, 30, &podium, &points)

		Convey("Then the explicit values are used verbatim", func() {
			So(p.Podium, ShouldEqual, 12.5)
			So(p.Points, ShouldEqual, 140)
		})
	})

	Convey("Given a prediction with only an explicit podium value", t, func() {
		podium := 55.0
		p := forecast.Derive(12, 3, &podium, nil)

		Convey("Then points are still derived", func() {
			So(p.Podium, ShouldEqual, 55)
			So(p.Points, ShouldEqual, 30)
		})
	})
}
