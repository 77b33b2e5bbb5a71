package gaze

import (
	"image"
	"math"
	"testing"
	"time"
)

func TestState_LatestBeforeFirstSample(t *testing.T) {
	s := NewState(DefaultConfig())

	if _, ok := s.Latest(); ok {
		t.Error("Latest: expected ok=false before any sample")
	}
	if _, ok := s.Smoothed(); ok {
		t.Error("Smoothed: expected ok=false before any sample")
	}
}

func TestState_UpdateAndLatest(t *testing.T) {
	s := NewState(Config{}) // No smoothing, no staleness

	s.Update(1.0, 640, 360)

	sample, ok := s.Latest()
	if !ok {
		t.Fatal("Latest: expected ok=true after update")
	}
	if sample.X != 640 || sample.Y != 360 {
		t.Errorf("Latest: got (%v,%v), want (640,360)", sample.X, sample.Y)
	}
	if !sample.Valid() {
		t.Error("Valid: expected true")
	}
}

func TestState_NaNSampleRecordedButInvalid(t *testing.T) {
	s := NewState(Config{})

	s.Update(1.0, math.NaN(), math.NaN())

	sample, ok := s.Latest()
	if !ok {
		t.Fatal("Latest: NaN samples are still recorded")
	}
	if sample.Valid() {
		t.Error("Valid: expected false for NaN sample")
	}
}

func TestState_SmoothingBlends(t *testing.T) {
	s := NewState(Config{SmoothingAlpha: 0.5})

	s.Update(1.0, 100, 100)
	s.Update(2.0, 200, 200)

	sample, ok := s.Smoothed()
	if !ok {
		t.Fatal("Smoothed: expected ok=true")
	}
	if sample.X != 150 || sample.Y != 150 {
		t.Errorf("Smoothed: got (%v,%v), want (150,150)", sample.X, sample.Y)
	}
}

func TestState_SmoothingRestartsAfterNaNGap(t *testing.T) {
	s := NewState(Config{SmoothingAlpha: 0.5})

	s.Update(1.0, 100, 100)
	s.Update(2.0, math.NaN(), math.NaN())

	if _, ok := s.Smoothed(); ok {
		t.Error("Smoothed: expected ok=false during a NaN gap")
	}

	// First sample after the gap must not blend with the pre-gap anchor.
	s.Update(3.0, 500, 500)
	sample, ok := s.Smoothed()
	if !ok {
		t.Fatal("Smoothed: expected ok=true after gap ends")
	}
	if sample.X != 500 || sample.Y != 500 {
		t.Errorf("Smoothed after gap: got (%v,%v), want (500,500)", sample.X, sample.Y)
	}
}

func TestState_Staleness(t *testing.T) {
	s := NewState(Config{MaxAge: 10 * time.Millisecond})

	s.Update(1.0, 100, 100)
	if _, ok := s.Latest(); !ok {
		t.Fatal("Latest: expected fresh sample to be ok")
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok := s.Latest(); ok {
		t.Error("Latest: expected ok=false once the sample is stale")
	}
}

func TestMapToFrame(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   image.Point
	}{
		{
			name:   "scene space to half-size display",
			sample: Sample{X: 1280, Y: 720},
			want:   image.Pt(640, 360),
		},
		{
			name:   "origin",
			sample: Sample{X: 0, Y: 0},
			want:   image.Pt(0, 0),
		},
		{
			name:   "center",
			sample: Sample{X: 640, Y: 360},
			want:   image.Pt(320, 180),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapToFrame(tc.sample, 1280, 720, 640, 360)
			if got != tc.want {
				t.Errorf("MapToFrame: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapToFrame_DegenerateSpace(t *testing.T) {
	got := MapToFrame(Sample{X: 100, Y: 100}, 0, 0, 640, 360)
	if got != image.Pt(0, 0) {
		t.Errorf("MapToFrame with zero gaze space: got %v, want (0,0)", got)
	}
}
