package framesync

import (
	"errors"
	"testing"
)

func mustBuildOverlayMask(t *testing.T, width, height int) *OverlayMask {
	t.Helper()
	m, err := BuildOverlayMask(width, height)
	if err != nil {
		t.Fatalf("BuildOverlayMask(%d, %d) failed: %v", width, height, err)
	}
	return m
}

func TestNextPowerOf2(t *testing.T) {
	for _, tt := range []struct{ in, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {200, 256}, {320, 512}, {1024, 1024},
	} {
		if got := NextPowerOf2(tt.in); got != tt.want {
			t.Errorf("NextPowerOf2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildOverlayMaskScanlines(t *testing.T) {
	// A 4x2 frame covers a 4x4 region of the mask.
	m := mustBuildOverlayMask(t, 4, 2)

	if m.Side != 8 || len(m.Pix) != 64 {
		t.Fatalf("Expected an 8x8 buffer, got side %d with %d cells", m.Side, len(m.Pix))
	}
	if m.Visible.Dx() != 4 || m.Visible.Dy() != 4 {
		t.Errorf("Expected a 4x4 visible region, got %v", m.Visible)
	}

	for y := 0; y < m.Side; y++ {
		for x := 0; x < m.Side; x++ {
			want := uint32(0)
			if (y == 0 || y == 2) && x < 4 {
				want = OpaqueBlack
			}
			if got := m.At(x, y); got != want {
				t.Errorf("At(%d, %d) = %#x, want %#x", x, y, got, want)
			}
		}
	}
}

func TestBuildOverlayMaskCoversEveryFrameRow(t *testing.T) {
	m := mustBuildOverlayMask(t, 3, 5)

	if m.Side != 16 {
		t.Fatalf("Expected side 16, got %d", m.Side)
	}
	dark := 0
	for _, p := range m.Pix {
		if p == OpaqueBlack {
			dark++
		}
	}
	if dark != 3*5 {
		t.Errorf("Expected %d dark cells, got %d", 3*5, dark)
	}
	for y := 0; y < 5; y++ {
		if m.At(0, 2*y) != OpaqueBlack || m.At(0, 2*y+1) != 0 {
			t.Errorf("Row pair %d is not a dark/clear scanline pair", y)
		}
	}
	if m.At(-1, 0) != 0 || m.At(0, m.Side) != 0 {
		t.Error("Out-of-range reads must return 0")
	}
}

func TestBuildOverlayMaskEmptyFrame(t *testing.T) {
	m := mustBuildOverlayMask(t, 0, 0)
	if m.Side != 2 || !m.Visible.Empty() {
		t.Errorf("Expected a minimal empty mask, got side %d visible %v", m.Side, m.Visible)
	}
	for _, p := range m.Pix {
		if p != 0 {
			t.Fatal("Expected an all-clear mask")
		}
	}
}

func TestBuildOverlayMaskRejectsOversizedFrames(t *testing.T) {
	for _, size := range [][2]int{
		{MaxFrameDimension + 1, 1},
		{1, MaxFrameDimension + 1},
		{1 << 30, 1 << 30},
	} {
		m, err := BuildOverlayMask(size[0], size[1])
		if !errors.Is(err, ErrFrameTooLarge) || m != nil {
			t.Errorf("BuildOverlayMask(%d, %d) = %v, %v; want ErrFrameTooLarge", size[0], size[1], m, err)
		}
	}
}
