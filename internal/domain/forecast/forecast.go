// Package forecast derives podium and points probabilities for predictions
// whose upstream model only supplies a win probability.
//
// The curves are empirical and kept bit-for-bit compatible with what the
// prediction screens have always shown: a monotone decreasing confidence by
// grid position. All values are percentages; rounding happens at display time.
//
// Unknown positions (model.UnknownPosition) deliberately depart from the
// curves: fed through them, position 0 would land in the front-row and top-ten
// bands and claim near-certain podium and points. They get the floors
// instead, podium 1 and points 5.
package forecast

import (
	"math"

	"github.com/okian/pitwall/internal/domain/model"
)

// Curve constants.
const (
	podiumFrontRowMultiplier = 2
	podiumFrontRowMin        = 70
	podiumFrontRowMax        = 99
	podiumMidfieldMultiplier = 4
	podiumMidfieldMin        = 20
	podiumMidfieldMax        = 60
	podiumBackmarkerBase     = 15
	podiumFloor              = 1

	pointsTopTenBase  = 100
	pointsTopTenStep  = 5
	pointsTopTenMin   = 60
	pointsTopTenMax   = 99
	pointsOutsideBase = 40
	pointsOutsideStep = 5
	pointsFloor       = 5

	frontRowLastPosition = 3
	midfieldLastPosition = 6
	pointsLastPosition   = 10
)

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// Podium derives the podium probability for a predicted position.
// UnknownPosition carries no rank information and gets the floor.
func Podium(position int, winProbability float64) float64 {
	switch {
	case position == model.UnknownPosition:
		return podiumFloor
	case position <= frontRowLastPosition:
		return clamp(winProbability*podiumFrontRowMultiplier, podiumFrontRowMin, podiumFrontRowMax)
	case position <= midfieldLastPosition:
		return clamp(winProbability*podiumMidfieldMultiplier, podiumMidfieldMin, podiumMidfieldMax)
	default:
		return math.Max(podiumFloor, float64(podiumBackmarkerBase-position))
	}
}

// Points derives the points-finish probability for a predicted position.
// UnknownPosition gets the floor.
func Points(position int) float64 {
	switch {
	case position == model.UnknownPosition:
		return pointsFloor
	case position <= pointsLastPosition:
		return clamp(float64(pointsTopTenBase-position*pointsTopTenStep), pointsTopTenMin, pointsTopTenMax)
	default:
		return math.Max(pointsFloor, float64(pointsOutsideBase-(position-pointsLastPosition)*pointsOutsideStep))
	}
}

// Derive builds the full probability set for a prediction. Explicit upstream
// values win over derived ones and are used verbatim.
func Derive(position int, winProbability float64, podium, points *float64) model.Probabilities {
	p := model.Probabilities{Win: winProbability}
	if podium != nil {
		p.Podium = *podium
	} else {
		p.Podium = Podium(position, winProbability)
	}
	if points != nil {
		p.Points = *points
	} else {
		p.Points = Points(position)
	}
	return p
}
