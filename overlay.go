package framesync

import (
	"fmt"
	"image"
)

// MaxFrameDimension is the largest frame width or height accepted for
// playback. The overlay for such a frame is 8192x8192 cells.
const MaxFrameDimension = 4096

// OpaqueBlack is the ARGB value written to darkened overlay cells.
const OpaqueBlack uint32 = 0xFF000000

// OverlayMask is a square ARGB buffer holding a scanline darkening pattern.
// It is built once per load and never mutated afterwards.
type OverlayMask struct {
	// Side is the width and height of the buffer, twice the padded texture size.
	Side int
	// Visible is the region of the buffer that maps onto the video:
	// the frame width by twice the frame height.
	Visible image.Rectangle
	// Pix holds Side*Side cells in row-major order.
	Pix []uint32
}

// At returns the cell at (x, y), or 0 outside the buffer.
func (m *OverlayMask) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= m.Side || y >= m.Side {
		return 0
	}
	return m.Pix[y*m.Side+x]
}

// NextPowerOf2 returns the smallest power of two >= n, and 1 for n <= 1.
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// BuildOverlayMask returns the mask for a width x height frame. Every even
// row of the visible region is set to OpaqueBlack; every other cell stays 0.
// Frames larger than MaxFrameDimension on either side are rejected with
// ErrFrameTooLarge.
func BuildOverlayMask(width, height int) (*OverlayMask, error) {
	if width > MaxFrameDimension || height > MaxFrameDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrFrameTooLarge, width, height, MaxFrameDimension)
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	side := 2 * NextPowerOf2(max(width, height))
	m := &OverlayMask{
		Side:    side,
		Visible: image.Rect(0, 0, width, 2*height),
		Pix:     make([]uint32, side*side),
	}
	for y := 0; y < height; y++ {
		row := m.Pix[2*y*side : 2*y*side+width]
		for x := range row {
			row[x] = OpaqueBlack
		}
	}
	return m, nil
}
