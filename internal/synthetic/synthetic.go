// Package synthetic provides a procedural video source for demos and tests.
// Frames are generated on the fly from the frame index, so any clip length
// is available without reading media from disk.
package synthetic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	framesync "github.com/jonoton/go-framesync"
)

// Scheme prefixes source ids that describe a clip inline, e.g.
// "synthetic:320x200@15/150" for 150 frames of 320x200 at 15 fps.
const Scheme = "synthetic:"

// DefaultSampleRate is used for the generated soundtrack when a clip does not set one.
const DefaultSampleRate = 8000

// Limits on generated clips. Frame sides follow framesync.MaxFrameDimension.
const (
	MaxFrames         = 1 << 20
	MaxSampleRate     = 192000
	MaxSoundtrackSize = 64 << 20 // bytes of 8-bit mono audio
)

// Clip describes a generated video.
type Clip struct {
	Width      int
	Height     int
	FrameRate  float64
	Frames     int
	SampleRate int
	// FailAt makes decoding of that frame index fail; 0 disables it.
	FailAt int
}

// ParseClip parses the part of a source id after Scheme:
// WIDTHxHEIGHT@FPS/FRAMES with an optional "!N" suffix setting FailAt.
func ParseClip(id string) (Clip, error) {
	var c Clip
	id, fail, hasFail := strings.Cut(id, "!")
	size, timing, ok := strings.Cut(id, "@")
	if !ok {
		return c, fmt.Errorf("clip %q: missing '@'", id)
	}
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return c, fmt.Errorf("clip %q: size must be WIDTHxHEIGHT", id)
	}
	fps, frames, ok := strings.Cut(timing, "/")
	if !ok {
		return c, fmt.Errorf("clip %q: timing must be FPS/FRAMES", id)
	}

	var err error
	if c.Width, err = strconv.Atoi(w); err != nil {
		return c, fmt.Errorf("clip %q: width: %w", id, err)
	}
	if c.Height, err = strconv.Atoi(h); err != nil {
		return c, fmt.Errorf("clip %q: height: %w", id, err)
	}
	if c.FrameRate, err = strconv.ParseFloat(fps, 64); err != nil {
		return c, fmt.Errorf("clip %q: frame rate: %w", id, err)
	}
	if c.Frames, err = strconv.Atoi(frames); err != nil {
		return c, fmt.Errorf("clip %q: frames: %w", id, err)
	}
	if hasFail {
		if c.FailAt, err = strconv.Atoi(fail); err != nil {
			return c, fmt.Errorf("clip %q: fail index: %w", id, err)
		}
	}
	return c, nil
}

// Opener resolves named clips and inline "synthetic:" ids.
type Opener struct {
	clips map[string]Clip
}

// NewOpener returns an Opener that also knows the given named clips.
func NewOpener(clips map[string]Clip) *Opener {
	o := &Opener{clips: make(map[string]Clip, len(clips))}
	for name, c := range clips {
		o.clips[name] = c
	}
	return o
}

// Open implements framesync.Opener. Unknown names wrap
// framesync.ErrSourceNotFound; malformed inline ids wrap framesync.ErrDecode.
func (o *Opener) Open(source string) (framesync.Stream, error) {
	clip, ok := o.clips[source]
	if !ok {
		id, inline := strings.CutPrefix(source, Scheme)
		if !inline {
			return nil, fmt.Errorf("%w: %s", framesync.ErrSourceNotFound, source)
		}
		var err error
		if clip, err = ParseClip(id); err != nil {
			return nil, fmt.Errorf("%w: %w", framesync.ErrDecode, err)
		}
	}
	if err := clip.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", framesync.ErrDecode, source, err)
	}
	return NewStream(clip), nil
}

// Validate rejects clips whose frame buffer or soundtrack would be too large
// to allocate. Zero frames and a zero frame rate pass, so the controller can
// report them with its own errors.
func (c Clip) Validate() error {
	switch {
	case c.Width < 0 || c.Height < 0 || c.Frames < 0 || c.SampleRate < 0:
		return errors.New("negative clip dimensions")
	case c.Width > framesync.MaxFrameDimension || c.Height > framesync.MaxFrameDimension:
		return fmt.Errorf("%w: %dx%d", framesync.ErrFrameTooLarge, c.Width, c.Height)
	case c.Frames > MaxFrames:
		return fmt.Errorf("%d frames exceeds %d", c.Frames, MaxFrames)
	case c.SampleRate > MaxSampleRate:
		return fmt.Errorf("sample rate %d exceeds %d", c.SampleRate, MaxSampleRate)
	}
	if n := soundtrackSize(c); !(n <= MaxSoundtrackSize) {
		return fmt.Errorf("soundtrack of %.0f bytes exceeds %d", n, MaxSoundtrackSize)
	}
	return nil
}

func soundtrackSize(c Clip) float64 {
	if c.FrameRate <= 0 || c.Frames <= 0 {
		return 0
	}
	rate := c.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return float64(c.Frames) / c.FrameRate * float64(rate)
}

// Stream is a generated framesync.Stream with RGBA frames.
type Stream struct {
	clip   Clip
	cur    int
	pix    []byte
	audio  []byte
	closed bool
}

var errClosed = errors.New("stream closed")

// NewStream returns a stream positioned on frame 0.
func NewStream(c Clip) *Stream {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	s := &Stream{
		clip:  c,
		pix:   make([]byte, 4*max(c.Width, 0)*max(c.Height, 0)),
		audio: soundtrack(c),
	}
	s.render()
	return s
}

func (s *Stream) FrameRate() float64 { return s.clip.FrameRate }
func (s *Stream) TotalFrames() int   { return s.clip.Frames }
func (s *Stream) Size() (int, int)   { return s.clip.Width, s.clip.Height }
func (s *Stream) CurrentFrame() int  { return s.cur }
func (s *Stream) Audio() []byte      { return s.audio }

// Frame returns the current frame. The pixel buffer is reused by the next
// AdvanceFrame or Reset, so consumers must copy it if they keep it.
func (s *Stream) Frame() framesync.Frame {
	return framesync.Frame{Index: s.cur, Width: s.clip.Width, Height: s.clip.Height, Data: s.pix}
}

func (s *Stream) AdvanceFrame() error {
	switch {
	case s.closed:
		return fmt.Errorf("%w: %w", framesync.ErrDecode, errClosed)
	case s.cur >= s.clip.Frames:
		return fmt.Errorf("%w: no frame after %d", framesync.ErrDecode, s.cur)
	case s.clip.FailAt > 0 && s.cur+1 == s.clip.FailAt:
		return fmt.Errorf("%w: corrupt frame %d", framesync.ErrDecode, s.clip.FailAt)
	}
	s.cur++
	s.render()
	return nil
}

func (s *Stream) Reset() error {
	if s.closed {
		return errClosed
	}
	s.cur = 0
	s.render()
	return nil
}

func (s *Stream) Close() error {
	s.closed = true
	s.pix = nil
	return nil
}

// render paints a horizontal gradient whose phase moves with the frame index
// and a vertical bar marking playback position.
func (s *Stream) render() {
	w, h := s.clip.Width, s.clip.Height
	if w <= 0 || h <= 0 || len(s.pix) == 0 {
		return
	}
	bar := 0
	if s.clip.Frames > 0 {
		bar = s.cur * (w - 1) / s.clip.Frames
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := 4 * (y*w + x)
			shade := byte((x + s.cur*4) % 256)
			if x == bar {
				shade = 0xFF
			}
			s.pix[i+0] = shade
			s.pix[i+1] = byte(y * 255 / max(h-1, 1))
			s.pix[i+2] = byte(s.cur)
			s.pix[i+3] = 0xFF
		}
	}
}

// soundtrack generates an unsigned 8-bit mono tone lasting as long as the clip.
func soundtrack(c Clip) []byte {
	n := int(soundtrackSize(c))
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	for i := range out {
		v := math.Sin(2 * math.Pi * 440 * float64(i) / float64(c.SampleRate))
		out[i] = byte(128 + 100*v)
	}
	return out
}
