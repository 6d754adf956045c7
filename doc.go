/*
Package framesync keeps a decoded, fixed-frame-rate video stream in step with
wall-clock time and an accompanying soundtrack.

It is the timing core of a video player. Decoding, texture upload, drawing
and audio output are supplied by the host through small interfaces; framesync
decides which frame should be on screen, when to decode forward and when
playback is over.

# Key Features

  - Wall-clock scheduling: the frame due at a given moment is
    floor(elapsed * frameRate); running past the last frame stops playback.
  - Catch-up without stalls: when a tick arrives late the decoder is advanced
    frame by frame to the target, and only the target frame is uploaded.
  - Explicit state machine: Stopped and Playing, with Load, Play, Stop and
    Tick as the only transitions. Redundant calls are silent no-ops.
  - All-or-nothing loads: a session (stream, timing, geometry, overlay) is
    replaced as a whole, and a failed Load leaves nothing loaded.
  - Scale-to-fit geometry and an optional scanline overlay, both computed once
    per load.
  - Observability: a Logger interface (with a log/slog adapter), a structured
    event stream and a Metrics snapshot.
  - Render loop helper: Loop drives Tick at a fixed rate and reports tick
    jitter.

# Basic Usage

	c := framesync.NewController(opener, surface, audio,
		framesync.WithBounds(framesync.BoundsFunc(window.Bounds)),
		framesync.WithLogger(framesync.NewSlogLogger(slog.Default())),
	)
	if err := c.Load("intro.vqa"); err != nil {
		log.Fatal(err)
	}
	c.Play()

	loop := framesync.NewLoop(ctx, c, 60)
	defer loop.Close()

The host may call Draw while stopped to keep the first frame on screen; Tick
itself does nothing unless playing.
*/
package framesync
