package trend

import (
	"fmt"
	"slices"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// Point is one (x, y) observation for the regression.
type Point struct {
	X float64
	Y float64
}

// Slope returns the ordinary least-squares slope of points. The boolean is
// false when there are fewer than two points. A zero denominator (every x
// equal) yields a slope of 0.
func Slope(points []Point) (float64, bool) {
	n := float64(len(points))
	if len(points) < 2 {
		return 0, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumXX += p.X * p.X
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, true
	}
	return (n*sumXY - sumX*sumY) / denom, true
}

// DirectionOf maps a slope onto a trend direction.
func DirectionOf(slope float64) types.TrendDirection {
	switch {
	case slope > 0:
		return types.TrendIncreasing
	case slope < 0:
		return types.TrendDecreasing
	default:
		return types.TrendFlat
	}
}

// Compute builds a series from chronologically ordered years and values.
// Regression x values are chronological indexes regardless of order, so the
// display order never flips the sign of the slope.
func Compute(years []string, values []*int, order types.YearOrder) types.TrendSeries {
	if order != types.OldestFirst {
		order = types.NewestFirst
	}

	var points []Point
	for i, v := range values {
		if v != nil {
			points = append(points, Point{X: float64(i), Y: float64(*v)})
		}
	}

	series := types.TrendSeries{
		Years:     append([]string(nil), years...),
		Values:    append([]*int(nil), values...),
		Direction: types.TrendInsufficientData,
		Order:     order,
	}
	if slope, ok := Slope(points); ok {
		series.Slope = &slope
		series.Direction = DirectionOf(slope)
	}

	if order == types.NewestFirst {
		slices.Reverse(series.Years)
		slices.Reverse(series.Values)
	}
	return series
}

// Summary renders a one-sentence description of the series.
func Summary(series types.TrendSeries) string {
	if series.Slope == nil || series.Direction == types.TrendInsufficientData {
		return "Not enough yearly data to compute a trend."
	}
	return fmt.Sprintf("Employment rate trend over last %d years is %s (slope %.2f).",
		len(series.Years), series.Direction, *series.Slope)
}

