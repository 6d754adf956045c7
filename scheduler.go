package framesync

import "fmt"

// Action is what the controller should do with the decoder on a given tick.
type Action int

const (
	// Hold keeps the current frame on screen.
	Hold Action = iota
	// Advance decodes forward until the cursor reaches the target frame.
	Advance
	// Finish ends playback; the target has run past the last frame.
	Finish
)

func (a Action) String() string {
	switch a {
	case Hold:
		return "hold"
	case Advance:
		return "advance"
	case Finish:
		return "finish"
	default:
		return "unknown"
	}
}

// Decision is the scheduler's answer for one tick.
type Decision struct {
	Action Action
	Target int
}

// Scheduler maps elapsed playback time to a target frame index for a stream
// with a fixed frame rate and a known frame count.
type Scheduler struct {
	frameRate   float64
	totalFrames int
	invDuration float64 // frameRate / totalFrames, precomputed for Progress.
}

// NewScheduler validates the stream timing and returns a Scheduler for it.
// Zero-length streams are rejected here so the scheduler never has to divide by zero.
func NewScheduler(frameRate float64, totalFrames int) (*Scheduler, error) {
	if totalFrames <= 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrZeroLengthStream, totalFrames)
	}
	if !(frameRate > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrameRate, frameRate)
	}
	return &Scheduler{
		frameRate:   frameRate,
		totalFrames: totalFrames,
		invDuration: frameRate / float64(totalFrames),
	}, nil
}

// FrameRate returns the nominal frames per second.
func (s *Scheduler) FrameRate() float64 { return s.frameRate }

// TotalFrames returns the stream length in frames.
func (s *Scheduler) TotalFrames() int { return s.totalFrames }

// TargetFrame returns the frame index that should be on screen after elapsed
// seconds of playback. The product is truncated toward zero.
func (s *Scheduler) TargetFrame(elapsed float64) int {
	if !(elapsed > 0) {
		return 0
	}
	return int(elapsed * s.frameRate)
}

// Finished reports whether target has run past the end of the stream.
// Reaching exactly TotalFrames is still a valid, presentable target.
func (s *Scheduler) Finished(target int) bool {
	return target > s.totalFrames
}

// Decide combines TargetFrame and Finished with the decoder's current cursor.
func (s *Scheduler) Decide(elapsed float64, current int) Decision {
	target := s.TargetFrame(elapsed)
	switch {
	case s.Finished(target):
		return Decision{Action: Finish, Target: target}
	case current < target:
		return Decision{Action: Advance, Target: target}
	default:
		return Decision{Action: Hold, Target: target}
	}
}

// Progress returns the fraction of the stream covered after elapsed seconds,
// clamped to [0, 1].
func (s *Scheduler) Progress(elapsed float64) float64 {
	p := elapsed * s.invDuration
	switch {
	case !(p > 0):
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
