// Package gaze maintains the most recent gaze-in-image sample and maps it
// between the tracker's scene-camera coordinate space and the display frame.
package gaze

import (
	"image"
	"math"
	"sync"
	"time"
)

// Sample is one gaze-in-image reading in scene-camera pixels.
type Sample struct {
	Timestamp float64 // Tracker time in seconds
	X, Y      float64
	Received  time.Time
}

// Valid reports whether the sample carries a usable estimate.
// NaN coordinates mean the tracker lost the eyes (blink, occlusion).
func (s Sample) Valid() bool {
	return !math.IsNaN(s.X) && !math.IsNaN(s.Y)
}

// Config tunes the gaze state.
type Config struct {
	// SmoothingAlpha is the EMA weight of a new sample (0 disables
	// smoothing, 1 passes samples through).
	SmoothingAlpha float64

	// MaxAge marks the state stale when no sample arrived for this long.
	// Zero disables staleness checks.
	MaxAge time.Duration
}

// DefaultConfig returns settings suited to a 125 Hz gaze stream.
func DefaultConfig() Config {
	return Config{
		SmoothingAlpha: 0.4,
		MaxAge:         500 * time.Millisecond,
	}
}

// State holds the latest gaze sample behind a lock. Update is called from
// the frontend's stream handler; readers run on the frame loop.
type State struct {
	cfg Config

	mu       sync.RWMutex
	latest   Sample
	have     bool
	smoothed Sample
	haveEMA  bool
}

// NewState creates a gaze state.
func NewState(cfg Config) *State {
	return &State{cfg: cfg}
}

// Update records a new sample from the stream.
func (s *State) Update(timestamp, x, y float64) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = Sample{Timestamp: timestamp, X: x, Y: y, Received: now}
	s.have = true

	if math.IsNaN(x) || math.IsNaN(y) {
		// Tracking lost: smoothing restarts after the gap so the marker
		// does not jump from a stale anchor when tracking resumes.
		s.haveEMA = false
		return
	}

	alpha := s.cfg.SmoothingAlpha
	if alpha <= 0 || alpha >= 1 || !s.haveEMA {
		s.smoothed = s.latest
		s.haveEMA = true
		return
	}

	s.smoothed = Sample{
		Timestamp: timestamp,
		X:         alpha*x + (1-alpha)*s.smoothed.X,
		Y:         alpha*y + (1-alpha)*s.smoothed.Y,
		Received:  now,
	}
}

// Latest returns the most recent raw sample. ok is false before the first
// sample arrives or once the state is stale.
func (s *State) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.have || s.stale(s.latest) {
		return Sample{}, false
	}
	return s.latest, true
}

// Smoothed returns the EMA-smoothed sample. ok is false before the first
// valid sample, after a NaN gap, or once the state is stale.
func (s *State) Smoothed() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.haveEMA || s.stale(s.smoothed) {
		return Sample{}, false
	}
	return s.smoothed, true
}

func (s *State) stale(sample Sample) bool {
	return s.cfg.MaxAge > 0 && time.Since(sample.Received) > s.cfg.MaxAge
}

// MapToFrame scales a gaze sample from the scene-camera space (gazeW x
// gazeH) onto a display frame (frameW x frameH).
func MapToFrame(s Sample, gazeW, gazeH, frameW, frameH int) image.Point {
	if gazeW <= 0 || gazeH <= 0 {
		return image.Point{}
	}
	return image.Pt(
		int(s.X/float64(gazeW)*float64(frameW)),
		int(s.Y/float64(gazeH)*float64(frameH)),
	)
}
