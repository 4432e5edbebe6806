package presentation

import (
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// baseHeightCM keeps the empty bar visible as a thin line.
const baseHeightCM = 0.01

// Point is a vertex in centimetres relative to the screen centre.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is everything needed to draw the bar for one frame.
type Geometry struct {
	// Fill is the rising bar: bottom-left, top-left, top-right, bottom-right.
	Fill [4]Point `json:"fill"`
	// Outline is the full static bar in the same vertex order.
	Outline [4]Point `json:"outline"`
	// TargetY is the height of the target arrows.
	TargetY float64 `json:"target_y"`
}

// HeightFraction is the bar height for a frame: elapsed time capped at the
// trial's deadline, as a fraction of the full trial duration, in [0, 1].
func HeightFraction(elapsed, deadline, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	effective := elapsed
	if effective > deadline {
		effective = deadline
	}
	f := float64(effective) / float64(total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// BarGeometry computes fresh vertices for a height fraction. It has no state;
// every frame gets its own geometry.
func BarGeometry(fraction float64, layout domain.BarLayout, targetFraction float64) Geometry {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	half := layout.HeightCM / 2
	left, right := -layout.WidthCM/2, layout.WidthCM/2
	base := -half
	top := base + baseHeightCM + fraction*layout.HeightCM

	return Geometry{
		Fill: [4]Point{
			{X: left, Y: base},
			{X: left, Y: top},
			{X: right, Y: top},
			{X: right, Y: base},
		},
		Outline: [4]Point{
			{X: left, Y: base},
			{X: left, Y: half},
			{X: right, Y: half},
			{X: right, Y: base},
		},
		TargetY: targetFraction*layout.HeightCM - half,
	}
}
