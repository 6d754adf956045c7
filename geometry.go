package framesync

import (
	"fmt"
	"image"
	"math"
)

// Point is a position or extent in presentation-surface coordinates.
type Point struct {
	X, Y float64
}

// Geometry is the rectangle a video is drawn into.
type Geometry struct {
	Origin Point
	Size   Point
}

func (g Geometry) String() string {
	return fmt.Sprintf("%.1fx%.1f@(%.1f,%.1f)", g.Size.X, g.Size.Y, g.Origin.X, g.Origin.Y)
}

// Fit scales a width x height video uniformly to fit inside bounds and centers it.
// Degenerate inputs yield a zero-size geometry at the bounds origin.
func Fit(bounds image.Rectangle, width, height int) Geometry {
	origin := Point{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)}
	if width <= 0 || height <= 0 || bounds.Empty() {
		return Geometry{Origin: origin}
	}

	bw, bh := float64(bounds.Dx()), float64(bounds.Dy())
	vw, vh := float64(width), float64(height)
	scale := math.Min(bw/vw, bh/vh)

	size := Point{X: vw * scale, Y: vh * scale}
	return Geometry{
		Origin: Point{X: origin.X + (bw-size.X)/2, Y: origin.Y + (bh-size.Y)/2},
		Size:   size,
	}
}
