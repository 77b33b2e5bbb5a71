// Package track associates pedestrian detections across frames with a
// nearest-centroid heuristic and maintains per-person "seen" state: whether
// the user's gaze has landed on each tracked person.
package track

import (
	"image"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/oculon/gazeguard/pkg/detect"
)

// Person is one tracked pedestrian.
type Person struct {
	ID         int
	Rect       image.Rectangle
	Centroid   image.Point
	Confidence float32

	// Seen flips true once the gaze lands on the person and stays true
	// for the lifetime of the track.
	Seen bool

	LastMatched time.Time
	missed      int
}

// IsClose reports whether the person fills enough of the frame vertically
// to count as nearby.
func (p *Person) IsClose(frameHeight int, frac float64) bool {
	if frameHeight <= 0 {
		return false
	}
	return float64(p.Rect.Dy()) >= frac*float64(frameHeight)
}

// Config holds tracker tuning.
type Config struct {
	// MaxMissed is how many consecutive updates a person can go unmatched
	// before the track is dropped.
	MaxMissed int

	// MaxDistance rejects centroid matches farther apart than this many
	// pixels; beyond it a detection is a new person, not a moved one.
	MaxDistance float64

	// GazePadding grows each person's box by this many pixels when testing
	// whether the gaze landed on them, absorbing gaze jitter at the edges.
	GazePadding int

	// CloseHeightFrac: a person whose box height is at least this fraction
	// of the frame height counts as close.
	CloseHeightFrac float64
}

// DefaultConfig returns tuning suited to a 640-wide display frame.
func DefaultConfig() Config {
	return Config{
		MaxMissed:       15,
		MaxDistance:     120,
		GazePadding:     10,
		CloseHeightFrac: 0.5,
	}
}

// Tracker associates detections across frames by nearest centroid.
type Tracker struct {
	cfg    Config
	mu     sync.Mutex
	nextID int
	people map[int]*Person
}

// New creates a tracker.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		nextID: 1,
		people: make(map[int]*Person),
	}
}

// match pairs an existing track with a detection.
type match struct {
	personID int
	detIdx   int
	dist     float64
}

// Update associates the frame's detections with existing tracks, registers
// new people, and drops tracks that have gone unmatched too long. It returns
// the live track set (shared pointers; copy via People for rendering).
func (t *Tracker) Update(dets []detect.Detection) map[int]*Person {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()

	if len(dets) == 0 {
		for _, p := range t.people {
			p.missed++
		}
		t.dropLost()
		return t.people
	}

	if len(t.people) == 0 {
		for _, d := range dets {
			t.register(d, now)
		}
		return t.people
	}

	// All candidate pairs sorted by distance; greedy assignment takes the
	// closest pair first. Ties keep detection order, so the result is
	// deterministic.
	var candidates []match
	for id, p := range t.people {
		for i, d := range dets {
			dist := distance(p.Centroid, d.Centroid())
			if dist <= t.cfg.MaxDistance {
				candidates = append(candidates, match{personID: id, detIdx: i, dist: dist})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		if candidates[i].detIdx != candidates[j].detIdx {
			return candidates[i].detIdx < candidates[j].detIdx
		}
		return candidates[i].personID < candidates[j].personID
	})

	usedPerson := make(map[int]bool, len(t.people))
	usedDet := make(map[int]bool, len(dets))

	for _, c := range candidates {
		if usedPerson[c.personID] || usedDet[c.detIdx] {
			continue
		}
		usedPerson[c.personID] = true
		usedDet[c.detIdx] = true

		p := t.people[c.personID]
		d := dets[c.detIdx]
		p.Rect = d.Rect
		p.Centroid = d.Centroid()
		p.Confidence = d.Confidence
		p.LastMatched = now
		p.missed = 0
	}

	for id, p := range t.people {
		if !usedPerson[id] {
			p.missed++
		}
	}
	for i, d := range dets {
		if !usedDet[i] {
			t.register(d, now)
		}
	}

	t.dropLost()
	return t.people
}

// register must be called with the lock held.
func (t *Tracker) register(d detect.Detection, now time.Time) {
	t.people[t.nextID] = &Person{
		ID:          t.nextID,
		Rect:        d.Rect,
		Centroid:    d.Centroid(),
		Confidence:  d.Confidence,
		LastMatched: now,
	}
	t.nextID++
}

// dropLost must be called with the lock held.
func (t *Tracker) dropLost() {
	for id, p := range t.people {
		if p.missed > t.cfg.MaxMissed {
			delete(t.people, id)
		}
	}
}

// ObserveGaze marks every person whose padded box contains the gaze point
// as seen. ok is false when the tracker has no valid gaze this frame.
func (t *Tracker) ObserveGaze(pt image.Point, ok bool) {
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.people {
		if p.Seen {
			continue
		}
		padded := p.Rect.Inset(-t.cfg.GazePadding)
		if pt.In(padded) {
			p.Seen = true
		}
	}
}

// People returns a snapshot copy of the live tracks, ordered by ID.
func (t *Tracker) People() []Person {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Person, 0, len(t.people))
	for _, p := range t.people {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of live tracks.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.people)
}

func distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}
