package framesync

import "image"

// Frame is one decoded video frame as handed to the presentation surface.
type Frame struct {
	Index  int
	Width  int
	Height int
	Data   []byte
}

// Stream is an opened, incrementally decodable video stream.
//
// CurrentFrame never decreases between calls to Reset and stays within
// [0, TotalFrames]. Streams that also implement io.Closer are closed when the
// owning session is released.
type Stream interface {
	FrameRate() float64
	TotalFrames() int
	Size() (width, height int)
	CurrentFrame() int
	// Frame returns the most recently decoded frame.
	Frame() Frame
	// AdvanceFrame decodes the next frame and increments CurrentFrame.
	AdvanceFrame() error
	// Reset rewinds the cursor to the first frame.
	Reset() error
	// Audio returns the soundtrack associated with the stream.
	Audio() []byte
}

// Opener resolves a source id into a Stream. Failures should wrap
// ErrSourceNotFound or ErrDecode.
type Opener interface {
	Open(source string) (Stream, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(source string) (Stream, error)

func (f OpenerFunc) Open(source string) (Stream, error) { return f(source) }

// Layer selects which uploaded texture a draw call refers to.
type Layer int

const (
	LayerVideo Layer = iota
	LayerOverlay
)

func (l Layer) String() string {
	switch l {
	case LayerVideo:
		return "video"
	case LayerOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// Surface is the presentation target: texture uploads and scaled draws.
type Surface interface {
	UploadFrame(f Frame)
	UploadOverlay(m *OverlayMask)
	DrawScaled(layer Layer, g Geometry)
}

// AudioSink plays a stream's soundtrack.
type AudioSink interface {
	PlayTrack(track []byte)
	Stop()
}

// BoundsProvider supplies the render rectangle used at load time.
type BoundsProvider interface {
	RenderBounds() image.Rectangle
}

// BoundsFunc adapts a function to the BoundsProvider interface.
type BoundsFunc func() image.Rectangle

func (f BoundsFunc) RenderBounds() image.Rectangle { return f() }

type noopSurface struct{}

func (noopSurface) UploadFrame(Frame)          {}
func (noopSurface) UploadOverlay(*OverlayMask) {}
func (noopSurface) DrawScaled(Layer, Geometry) {}

type noopAudio struct{}

func (noopAudio) PlayTrack([]byte) {}
func (noopAudio) Stop()            {}
