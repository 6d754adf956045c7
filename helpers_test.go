package framesync

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// --- Test Clock ---

// testClock is a manually advanced Clock.
type testClock struct {
	elapsed time.Duration
	resets  int
}

func (c *testClock) Reset() {
	c.elapsed = 0
	c.resets++
}

func (c *testClock) Elapsed() time.Duration { return c.elapsed }

func (c *testClock) set(seconds float64) {
	c.elapsed = time.Duration(seconds * float64(time.Second))
}

// --- Test Stream ---

// testStream is an in-memory Stream whose frames carry their own index.
type testStream struct {
	frameRate float64
	total     int
	width     int
	height    int
	cur       int

	failAt   int // AdvanceFrame fails when the cursor is at failAt; -1 disables.
	resetErr error

	advances int
	resets   int
	closed   bool
}

func newTestStream(frameRate float64, total int) *testStream {
	return &testStream{frameRate: frameRate, total: total, width: 320, height: 200, failAt: -1}
}

func (s *testStream) FrameRate() float64 { return s.frameRate }
func (s *testStream) TotalFrames() int   { return s.total }
func (s *testStream) Size() (int, int)   { return s.width, s.height }
func (s *testStream) CurrentFrame() int  { return s.cur }
func (s *testStream) Audio() []byte      { return []byte("soundtrack") }

func (s *testStream) Frame() Frame {
	return Frame{Index: s.cur, Width: s.width, Height: s.height, Data: []byte{byte(s.cur)}}
}

func (s *testStream) AdvanceFrame() error {
	if s.cur == s.failAt {
		return errors.New("corrupt block")
	}
	s.cur++
	s.advances++
	return nil
}

func (s *testStream) Reset() error {
	if s.resetErr != nil {
		return s.resetErr
	}
	s.cur = 0
	s.resets++
	return nil
}

func (s *testStream) Close() error {
	s.closed = true
	return nil
}

// --- Test Opener ---

type testOpener struct {
	streams map[string]func() *testStream
	opened  map[string][]*testStream
	opens   int
}

func newTestOpener() *testOpener {
	return &testOpener{
		streams: make(map[string]func() *testStream),
		opened:  make(map[string][]*testStream),
	}
}

func (o *testOpener) add(source string, factory func() *testStream) {
	o.streams[source] = factory
}

func (o *testOpener) Open(source string) (Stream, error) {
	o.opens++
	factory, ok := o.streams[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	s := factory()
	o.opened[source] = append(o.opened[source], s)
	return s, nil
}

// last returns the most recently opened stream for source.
func (o *testOpener) last(source string) *testStream {
	list := o.opened[source]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// --- Test Surface and Audio ---

type drawCall struct {
	layer    Layer
	geometry Geometry
}

type testSurface struct {
	uploads  []Frame
	overlays []*OverlayMask
	draws    []drawCall
}

func (s *testSurface) UploadFrame(f Frame)          { s.uploads = append(s.uploads, f) }
func (s *testSurface) UploadOverlay(m *OverlayMask) { s.overlays = append(s.overlays, m) }
func (s *testSurface) DrawScaled(layer Layer, g Geometry) {
	s.draws = append(s.draws, drawCall{layer: layer, geometry: g})
}

func (s *testSurface) lastUpload() Frame {
	if len(s.uploads) == 0 {
		return Frame{Index: -1}
	}
	return s.uploads[len(s.uploads)-1]
}

func (s *testSurface) clear() {
	s.uploads, s.overlays, s.draws = nil, nil, nil
}

type testAudio struct {
	tracks [][]byte
	stops  int
}

func (a *testAudio) PlayTrack(track []byte) { a.tracks = append(a.tracks, track) }
func (a *testAudio) Stop()                  { a.stops++ }

// --- Test Logger ---

type testLogger struct {
	t  *testing.T
	mu sync.Mutex
	// errors collects Errorf lines so tests can assert on expected failures
	// without failing the test.
	errors []string
}

func (l *testLogger) Debugf(format string, args ...any) { l.t.Logf("DEBUG: "+format, args...) }
func (l *testLogger) Infof(format string, args ...any)  { l.t.Logf("INFO: "+format, args...) }
func (l *testLogger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
	l.t.Logf("ERROR: "+format, args...)
}

// --- Fixture ---

type fixture struct {
	opener  *testOpener
	surface *testSurface
	audio   *testAudio
	clock   *testClock
	ctrl    *Controller
}

func newFixture(t *testing.T, opts ...func(*Controller)) *fixture {
	t.Helper()
	f := &fixture{
		opener:  newTestOpener(),
		surface: &testSurface{},
		audio:   &testAudio{},
		clock:   &testClock{},
	}
	f.opener.add("intro.vqa", func() *testStream { return newTestStream(30, 90) })
	f.opener.add("outro.vqa", func() *testStream { return newTestStream(15, 45) })

	opts = append([]func(*Controller){WithClock(f.clock), WithLogger(&testLogger{t: t})}, opts...)
	f.ctrl = NewController(f.opener, f.surface, f.audio, opts...)
	return f
}

func (f *fixture) mustLoad(t *testing.T, source string) *testStream {
	t.Helper()
	if err := f.ctrl.Load(source); err != nil {
		t.Fatalf("Load(%q) failed: %v", source, err)
	}
	return f.opener.last(source)
}
