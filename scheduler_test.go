package framesync

import (
	"errors"
	"testing"
)

func TestNewSchedulerRejectsInvalidStreams(t *testing.T) {
	if _, err := NewScheduler(30, 0); !errors.Is(err, ErrZeroLengthStream) {
		t.Errorf("Expected ErrZeroLengthStream, got %v", err)
	}
	if _, err := NewScheduler(30, -4); !errors.Is(err, ErrZeroLengthStream) {
		t.Errorf("Expected ErrZeroLengthStream for a negative length, got %v", err)
	}
	if _, err := NewScheduler(0, 90); !errors.Is(err, ErrInvalidFrameRate) {
		t.Errorf("Expected ErrInvalidFrameRate, got %v", err)
	}
}

func TestTargetFrame(t *testing.T) {
	s, err := NewScheduler(30, 90)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	tests := []struct {
		elapsed  float64
		want     int
		finished bool
	}{
		{elapsed: 0, want: 0},
		{elapsed: -1, want: 0},
		{elapsed: 0.02, want: 0},
		{elapsed: 0.034, want: 1},
		{elapsed: 1.0, want: 30},
		{elapsed: 3.0, want: 90},
		{elapsed: 3.1, want: 93, finished: true},
	}
	for _, tt := range tests {
		got := s.TargetFrame(tt.elapsed)
		if got != tt.want {
			t.Errorf("TargetFrame(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
		if s.Finished(got) != tt.finished {
			t.Errorf("Finished(%d) = %v, want %v", got, s.Finished(got), tt.finished)
		}
	}
}

func TestTargetFrameIsMonotonic(t *testing.T) {
	s, err := NewScheduler(29.97, 300)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	prev := s.TargetFrame(0)
	for i := 1; i <= 20000; i++ {
		elapsed := float64(i) * 0.0007
		got := s.TargetFrame(elapsed)
		if got < prev {
			t.Fatalf("TargetFrame(%v) = %d went backwards from %d", elapsed, got, prev)
		}
		prev = got
	}
}

func TestDecide(t *testing.T) {
	s, err := NewScheduler(10, 20)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	tests := []struct {
		name    string
		elapsed float64
		current int
		want    Decision
	}{
		{name: "start", elapsed: 0, current: 0, want: Decision{Action: Hold, Target: 0}},
		{name: "behind", elapsed: 0.5, current: 2, want: Decision{Action: Advance, Target: 5}},
		{name: "caught up", elapsed: 0.5, current: 5, want: Decision{Action: Hold, Target: 5}},
		{name: "last frame", elapsed: 2, current: 19, want: Decision{Action: Advance, Target: 20}},
		{name: "past end", elapsed: 2.1, current: 20, want: Decision{Action: Finish, Target: 21}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Decide(tt.elapsed, tt.current); got != tt.want {
				t.Errorf("Decide(%v, %d) = %+v (%s), want %+v", tt.elapsed, tt.current, got, got.Action, tt.want)
			}
		})
	}
}

func TestSchedulerProgress(t *testing.T) {
	s, err := NewScheduler(8, 32)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	for _, tt := range []struct{ elapsed, want float64 }{
		{-1, 0}, {0, 0}, {1, 0.25}, {2, 0.5}, {4, 1}, {9, 1},
	} {
		if got := s.Progress(tt.elapsed); got != tt.want {
			t.Errorf("Progress(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}
