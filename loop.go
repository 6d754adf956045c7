package framesync

import (
	"context"
	"math"
	"sync"
	"time"
)

// DefaultLoopFPS is used when a Loop is created or reconfigured with 0 FPS.
const DefaultLoopFPS = 60

// MaxLoopFPS caps the tick rate; higher requests are clamped to it.
const MaxLoopFPS = 1000

func clampFPS(fps uint) uint {
	switch {
	case fps == 0:
		return DefaultLoopFPS
	case fps > MaxLoopFPS:
		return MaxLoopFPS
	}
	return fps
}

// Ticker is anything driven once per rendered frame. *Controller implements it.
type Ticker interface {
	Tick() error
}

// LoopMetrics holds counters and tick-interval statistics for a Loop.
type LoopMetrics struct {
	Ticks        uint64        // Ticks delivered to the target.
	Errors       uint64        // Ticks that returned an error.
	MeanInterval time.Duration // Mean time between ticks over the rolling window.
	Jitter       time.Duration // Standard deviation of the tick interval.
	Stable       bool          // Jitter is within 20% of the nominal interval.
}

// Loop is a render loop that calls Tick on its target at a steady rate,
// either from an internal ticker or from an external clock channel.
type Loop struct {
	mu     sync.Mutex
	target Ticker
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Configuration
	interval      time.Duration
	logger        Logger
	onError       func(error)
	externalClock <-chan time.Time

	// Dynamic State
	metrics  LoopMetrics
	monitor  *jitterMonitor
	setFPSCh chan uint
}

// WithLoopLogger injects a logger for the loop's diagnostic messages.
func WithLoopLogger(logger Logger) func(*Loop) {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLoopClock slaves the loop to an external ticker, such as a display
// vsync signal. SetFPS then only affects the jitter thresholds.
func WithLoopClock(clock <-chan time.Time) func(*Loop) {
	return func(l *Loop) { l.externalClock = clock }
}

// WithErrorHandler registers a callback for errors returned by Tick.
// Errors are always logged; the loop keeps running either way.
func WithErrorHandler(fn func(error)) func(*Loop) {
	return func(l *Loop) { l.onError = fn }
}

// NewLoop starts a loop calling target.Tick fps times per second until ctx is
// cancelled or Close is called. fps is clamped to MaxLoopFPS.
func NewLoop(ctx context.Context, target Ticker, fps uint, opts ...func(*Loop)) *Loop {
	fps = clampFPS(fps)
	loopCtx, cancel := context.WithCancel(ctx)
	l := &Loop{
		target:   target,
		ctx:      loopCtx,
		cancel:   cancel,
		interval: time.Second / time.Duration(fps),
		logger:   &noopLogger{},
		monitor:  newJitterMonitor(fps),
		setFPSCh: make(chan uint),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go l.run()
	return l
}

// SetFPS changes the tick rate on the fly, clamped like NewLoop. It returns
// immediately if the loop has already stopped.
func (l *Loop) SetFPS(fps uint) {
	fps = clampFPS(fps)
	select {
	case l.setFPSCh <- fps:
	case <-l.ctx.Done():
	}
}

// Metrics returns a snapshot of the loop's counters.
func (l *Loop) Metrics() LoopMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.metrics
	mean, stdDev := l.monitor.stats()
	m.MeanInterval = time.Duration(mean * float64(time.Millisecond))
	m.Jitter = time.Duration(stdDev * float64(time.Millisecond))
	m.Stable = l.monitor.isStable()
	return m
}

// Close stops the loop and waits for the current tick to finish.
func (l *Loop) Close() {
	l.cancel()
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()

	var internalTicker *time.Ticker
	clock := l.externalClock
	if clock == nil {
		internalTicker = time.NewTicker(l.interval)
		clock = internalTicker.C
	}
	defer func() {
		if internalTicker != nil {
			internalTicker.Stop()
		}
	}()

	l.logger.Infof("Render loop started at %v per tick.", l.interval)
	for {
		select {
		case <-l.ctx.Done():
			l.logger.Infof("Render loop stopped.")
			return
		case fps := <-l.setFPSCh:
			l.interval = time.Second / time.Duration(fps)
			l.mu.Lock()
			l.monitor = newJitterMonitor(fps)
			l.mu.Unlock()
			if internalTicker != nil {
				internalTicker.Reset(l.interval)
			}
			l.logger.Infof("Render loop FPS changed to %d", fps)
		case now := <-clock:
			l.tick(now)
		}
	}
}

func (l *Loop) tick(now time.Time) {
	err := l.target.Tick()

	l.mu.Lock()
	l.metrics.Ticks++
	l.monitor.addTick(now)
	if err != nil {
		l.metrics.Errors++
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Errorf("Tick failed: %v", err)
		if l.onError != nil {
			l.onError(err)
		}
	}
}

// jitterMonitor tracks the stability of tick arrival times.
type jitterMonitor struct {
	lastArrival time.Time
	deltas      []float64
	minSamples  int
	maxSamples  int
	threshold   float64
}

// newJitterMonitor creates a jitter monitor with thresholds relative to the target FPS.
func newJitterMonitor(fps uint) *jitterMonitor {
	fps = clampFPS(fps)
	frameIntervalMs := 1000.0 / float64(fps)
	return &jitterMonitor{
		minSamples: int(fps),               // At least 1 second of ticks.
		maxSamples: int(fps * 4),           // Rolling window of the last 4 seconds.
		threshold:  frameIntervalMs * 0.20, // 20% of the tick interval.
	}
}

// addTick records the time delta from the previous tick in milliseconds.
func (jm *jitterMonitor) addTick(at time.Time) {
	if !jm.lastArrival.IsZero() {
		jm.deltas = append(jm.deltas, float64(at.Sub(jm.lastArrival))/float64(time.Millisecond))
		if len(jm.deltas) > jm.maxSamples {
			jm.deltas = jm.deltas[1:]
		}
	}
	jm.lastArrival = at
}

// stats returns the mean and standard deviation of the recorded deltas in ms.
func (jm *jitterMonitor) stats() (mean, stdDev float64) {
	if len(jm.deltas) == 0 {
		return 0, 0
	}
	for _, d := range jm.deltas {
		mean += d
	}
	mean /= float64(len(jm.deltas))

	variance := 0.0
	for _, d := range jm.deltas {
		variance += math.Pow(d-mean, 2)
	}
	variance /= float64(len(jm.deltas))
	return mean, math.Sqrt(variance)
}

// isStable reports whether enough ticks were seen and their jitter is below
// the threshold.
func (jm *jitterMonitor) isStable() bool {
	if len(jm.deltas) < jm.minSamples {
		return false
	}
	_, stdDev := jm.stats()
	return stdDev <= jm.threshold
}
