package framesync

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// --- Playback State ---

// State is the controller's playback state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// --- Events and Metrics ---

// EventType defines the kind of notable event emitted by the controller.
type EventType string

const (
	EventLoaded            EventType = "Loaded"
	EventLoadFailed        EventType = "LoadFailed"
	EventOverlayBuilt      EventType = "OverlayBuilt"
	EventPlaybackStarted   EventType = "PlaybackStarted"
	EventPlaybackStopped   EventType = "PlaybackStopped"
	EventPlaybackCompleted EventType = "PlaybackCompleted"
	EventFramesSkipped     EventType = "FramesSkipped"
	EventDecodeFailed      EventType = "DecodeFailed"
)

// Event is a notification sent by the controller on state changes. Session is
// the id of the session the event belongs to, or uuid.Nil when none is loaded.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Session   uuid.UUID
	Metadata  map[string]any
}

// Metrics holds the controller's counters.
type Metrics struct {
	Loads          uint64 // Successful loads.
	CacheHits      uint64 // Loads skipped because the source was already loaded.
	Ticks          uint64 // Ticks processed while playing.
	FramesDecoded  uint64 // Frames decoded by catch-up loops.
	FramesUploaded uint64 // Frames uploaded to the surface, including rewinds.
	FramesSkipped  uint64 // Decoded frames that were never uploaded.
	Completions    uint64 // Playbacks that ran to the end of the stream.
	DecodeErrors   uint64 // Decode failures during Tick.
}

// --- Session ---

// session is everything owned by one successful Load. It is replaced as a
// whole and never partially reused.
type session struct {
	id        uuid.UUID
	source    string
	stream    Stream
	scheduler *Scheduler
	width     int
	height    int
	geometry  Geometry
	mask      *OverlayMask
}

func (s *session) release() error {
	return closeStream(s.stream)
}

func closeStream(stream Stream) error {
	if c, ok := stream.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// --- Controller Implementation ---

// Controller keeps a decoded video stream in step with wall-clock time. The host
// calls Tick once per rendered frame; Load, Play and Stop drive the Stopped and
// Playing states. All methods are serialized by an internal mutex.
type Controller struct {
	mu sync.Mutex

	opener  Opener
	surface Surface
	audio   AudioSink

	// Configuration
	bounds      BoundsProvider
	clock       Clock
	logger      Logger
	eventCh     chan<- Event
	drawOverlay bool

	// Dynamic State
	state   State
	session *session
	metrics Metrics
}

// WithClock replaces the wall clock, typically with a test double.
func WithClock(clock Clock) func(*Controller) {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger injects a logger for diagnostic messages.
func WithLogger(logger Logger) func(*Controller) {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventChannel provides a channel for structured events. Events are dropped
// when the channel is full.
func WithEventChannel(eventCh chan<- Event) func(*Controller) {
	return func(c *Controller) { c.eventCh = eventCh }
}

// WithOverlay enables or disables the scanline overlay. It is enabled by default.
func WithOverlay(enabled bool) func(*Controller) {
	return func(c *Controller) { c.drawOverlay = enabled }
}

// WithBounds sets the render rectangle provider consulted on every Load.
// Without one, videos are drawn at their native size at the origin.
func WithBounds(bounds BoundsProvider) func(*Controller) {
	return func(c *Controller) { c.bounds = bounds }
}

// NewController creates a stopped controller with nothing loaded. A nil surface
// or audio sink is replaced with one that discards everything.
func NewController(opener Opener, surface Surface, audio AudioSink, opts ...func(*Controller)) *Controller {
	if surface == nil {
		surface = noopSurface{}
	}
	if audio == nil {
		audio = noopAudio{}
	}
	c := &Controller{
		opener:      opener,
		surface:     surface,
		audio:       audio,
		clock:       NewWallClock(),
		logger:      &noopLogger{},
		drawOverlay: true,
		state:       Stopped,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load opens source and makes it the current session. Loading the source that
// is already loaded does nothing. Any current playback is discarded first, so a
// failed Load leaves the controller stopped with nothing loaded.
func (c *Controller) Load(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.source == source {
		c.metrics.CacheHits++
		c.logger.Debugf("Source %q already loaded, skipping.", source)
		return nil
	}

	c.unloadLocked("load")

	if c.opener == nil {
		return ErrNoOpener
	}

	stream, err := c.opener.Open(source)
	if err != nil {
		c.logger.Errorf("Failed to open %q: %v", source, err)
		c.emitEvent(EventLoadFailed, uuid.Nil, map[string]any{"source": source, "error": err.Error()})
		return fmt.Errorf("load %q: %w", source, err)
	}

	s, err := c.newSession(source, stream)
	if err != nil {
		if cerr := closeStream(stream); cerr != nil {
			c.logger.Errorf("Failed to close rejected stream %q: %v", source, cerr)
		}
		c.logger.Errorf("Rejected %q: %v", source, err)
		c.emitEvent(EventLoadFailed, uuid.Nil, map[string]any{"source": source, "error": err.Error()})
		return fmt.Errorf("load %q: %w", source, err)
	}

	c.session = s
	c.metrics.Loads++
	c.surface.UploadFrame(stream.Frame())
	c.metrics.FramesUploaded++
	if s.mask != nil {
		c.publishOverlayLocked()
	}

	c.logger.Infof("Loaded %q (%dx%d, %d frames @ %.2f fps), geometry %s.",
		source, s.width, s.height, s.scheduler.TotalFrames(), s.scheduler.FrameRate(), s.geometry)
	c.emitEvent(EventLoaded, s.id, map[string]any{
		"source":      source,
		"frames":      s.scheduler.TotalFrames(),
		"frame_rate":  s.scheduler.FrameRate(),
		"width":       s.width,
		"height":      s.height,
		"geometry":    s.geometry.String(),
		"has_overlay": s.mask != nil,
	})
	return nil
}

// newSession validates stream and computes everything derived from it,
// including the overlay mask when overlays are enabled. It has no side effects
// on the controller or its collaborators.
func (c *Controller) newSession(source string, stream Stream) (*session, error) {
	scheduler, err := NewScheduler(stream.FrameRate(), stream.TotalFrames())
	if err != nil {
		return nil, err
	}

	width, height := stream.Size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid frame size %dx%d", ErrDecode, width, height)
	}
	if width > MaxFrameDimension || height > MaxFrameDimension {
		return nil, fmt.Errorf("%w: %w: %dx%d exceeds %d", ErrDecode, ErrFrameTooLarge, width, height, MaxFrameDimension)
	}

	var mask *OverlayMask
	if c.drawOverlay {
		if mask, err = BuildOverlayMask(width, height); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}

	bounds := image.Rect(0, 0, width, height)
	if c.bounds != nil {
		bounds = c.bounds.RenderBounds()
	}

	return &session{
		id:        uuid.New(),
		source:    source,
		stream:    stream,
		scheduler: scheduler,
		width:     width,
		height:    height,
		geometry:  Fit(bounds, width, height),
		mask:      mask,
	}, nil
}

func (c *Controller) buildOverlayLocked() {
	s := c.session
	if s == nil || s.mask != nil {
		return
	}
	mask, err := BuildOverlayMask(s.width, s.height)
	if err != nil {
		c.logger.Errorf("Failed to build overlay for %q: %v", s.source, err)
		return
	}
	s.mask = mask
	c.publishOverlayLocked()
}

func (c *Controller) publishOverlayLocked() {
	s := c.session
	c.surface.UploadOverlay(s.mask)
	c.emitEvent(EventOverlayBuilt, s.id, map[string]any{"side": s.mask.Side})
}

// Play starts playback from the current (rewound) position. It does nothing
// while already playing or when nothing is loaded.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.state == Playing {
		return
	}

	c.clock.Reset()
	c.state = Playing
	c.audio.PlayTrack(c.session.stream.Audio())

	c.logger.Infof("Playing %q.", c.session.source)
	c.emitEvent(EventPlaybackStarted, c.session.id, map[string]any{"source": c.session.source})
}

// Stop halts playback, rewinds the stream and re-uploads its first frame.
// It does nothing unless playing. If the stream cannot be rewound the session
// is released and the error returned.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked("stopped")
}

func (c *Controller) stopLocked(reason string) error {
	s := c.session
	if c.state != Playing || s == nil {
		return nil
	}

	c.state = Stopped
	c.audio.Stop()
	c.emitEvent(EventPlaybackStopped, s.id, map[string]any{"reason": reason})

	if err := s.stream.Reset(); err != nil {
		c.logger.Errorf("Failed to rewind %q, unloading: %v", s.source, err)
		c.releaseLocked()
		return fmt.Errorf("rewind %q: %w", s.source, err)
	}
	c.surface.UploadFrame(s.stream.Frame())
	c.metrics.FramesUploaded++

	c.logger.Infof("Stopped %q (%s).", s.source, reason)
	return nil
}

// Tick advances playback to the frame due at the current clock reading and
// draws it. It does nothing unless playing. When the clock has run past the
// end of the stream, playback stops. A decode failure stops playback and is
// returned.
func (c *Controller) Tick() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if c.state != Playing || s == nil {
		return nil
	}
	c.metrics.Ticks++

	elapsed := c.clock.Elapsed().Seconds()
	decision := s.scheduler.Decide(elapsed, s.stream.CurrentFrame())

	switch decision.Action {
	case Finish:
		c.metrics.Completions++
		c.logger.Debugf("Target frame %d is past the end (%d frames).", decision.Target, s.scheduler.TotalFrames())
		c.emitEvent(EventPlaybackCompleted, s.id, map[string]any{"target": decision.Target})
		return c.stopLocked("completed")
	case Advance:
		if err := c.catchUpLocked(s, decision.Target); err != nil {
			c.metrics.DecodeErrors++
			c.logger.Errorf("Decode failed on %q: %v", s.source, err)
			c.emitEvent(EventDecodeFailed, s.id, map[string]any{"error": err.Error(), "target": decision.Target})
			return errors.Join(fmt.Errorf("tick %q: %w", s.source, err), c.stopLocked("decode error"))
		}
	}

	c.drawLocked()
	return nil
}

// catchUpLocked decodes until the cursor reaches target and uploads only the
// frame that lands on it.
func (c *Controller) catchUpLocked(s *session, target int) error {
	from := s.stream.CurrentFrame()
	for cur := from; cur < target; {
		if err := s.stream.AdvanceFrame(); err != nil {
			if !errors.Is(err, ErrDecode) {
				err = fmt.Errorf("%w: %w", ErrDecode, err)
			}
			return fmt.Errorf("advance past frame %d: %w", cur, err)
		}
		next := s.stream.CurrentFrame()
		if next <= cur {
			return fmt.Errorf("%w: cursor stalled at frame %d", ErrDecode, cur)
		}
		cur = next
		c.metrics.FramesDecoded++

		if cur == target {
			c.surface.UploadFrame(s.stream.Frame())
			c.metrics.FramesUploaded++
		}
	}

	if skipped := target - from - 1; skipped > 0 {
		c.metrics.FramesSkipped += uint64(skipped)
		c.emitEvent(EventFramesSkipped, s.id, map[string]any{"count": skipped, "target": target})
	}
	return nil
}

// Draw issues the draw calls for the current surface contents without
// advancing playback. Tick draws on its own; Draw is for hosts that keep
// rendering while stopped.
func (c *Controller) Draw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawLocked()
}

func (c *Controller) drawLocked() {
	s := c.session
	if s == nil {
		return
	}
	c.surface.DrawScaled(LayerVideo, s.geometry)
	if c.drawOverlay && s.mask != nil {
		c.surface.DrawScaled(LayerOverlay, s.geometry)
	}
}

// SetOverlay toggles overlay drawing. Enabling it on a loaded session builds
// the mask if that has not happened yet.
func (c *Controller) SetOverlay(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawOverlay = enabled
	if enabled {
		c.buildOverlayLocked()
	}
}

// Unload stops playback and releases the current session.
func (c *Controller) Unload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unloadLocked("unload")
}

func (c *Controller) unloadLocked(reason string) {
	s := c.session
	if s == nil {
		return
	}
	if c.state == Playing {
		c.state = Stopped
		c.audio.Stop()
		c.emitEvent(EventPlaybackStopped, s.id, map[string]any{"reason": reason})
	}
	c.releaseLocked()
	c.logger.Debugf("Released %q.", s.source)
}

func (c *Controller) releaseLocked() {
	if c.session == nil {
		return
	}
	if err := c.session.release(); err != nil {
		c.logger.Errorf("Failed to close %q: %v", c.session.source, err)
	}
	c.session = nil
	c.state = Stopped
}

// --- Accessors ---

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Source returns the loaded source id, or "" when nothing is loaded.
func (c *Controller) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.source
}

// SessionID returns the current session id, or uuid.Nil when nothing is loaded.
func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return uuid.Nil
	}
	return c.session.id
}

// CurrentFrame returns the decoder cursor, or 0 when nothing is loaded.
func (c *Controller) CurrentFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.stream.CurrentFrame()
}

// TotalFrames returns the loaded stream length, or 0 when nothing is loaded.
func (c *Controller) TotalFrames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.scheduler.TotalFrames()
}

// Progress returns the fraction of the stream played so far, in [0, 1].
// It is 0 while stopped since stopping rewinds.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.state != Playing {
		return 0
	}
	return c.session.scheduler.Progress(c.clock.Elapsed().Seconds())
}

// Geometry returns the presentation rectangle of the loaded video.
func (c *Controller) Geometry() (Geometry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Geometry{}, false
	}
	return c.session.geometry, true
}

// Overlay returns the overlay mask of the loaded video, if one was built.
func (c *Controller) Overlay() *OverlayMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.mask
}

// Metrics returns a snapshot of the controller's counters.
func (c *Controller) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

func (c *Controller) emitEvent(eventType EventType, id uuid.UUID, metadata map[string]any) {
	if c.eventCh == nil {
		return
	}
	event := Event{Type: eventType, Timestamp: time.Now(), Session: id, Metadata: metadata}
	select {
	case c.eventCh <- event:
	default:
	}
}
