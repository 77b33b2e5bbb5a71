package alert

import (
	"sync"
	"testing"
	"time"
)

type fakePlayer struct {
	mu    sync.Mutex
	plays int
}

func (f *fakePlayer) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func TestNotifier_FiresOnTransition(t *testing.T) {
	p := &fakePlayer{}
	n := NewNotifier(Config{Cooldown: time.Hour}, p)

	n.Observe(false)
	if p.count() != 0 {
		t.Fatal("no alert expected while condition is false")
	}

	n.Observe(true)
	if p.count() != 1 {
		t.Fatalf("plays: got %d, want 1 on false→true transition", p.count())
	}
	if !n.Active() {
		t.Error("Active: expected true")
	}
}

func TestNotifier_NoRepeatWithinCooldown(t *testing.T) {
	p := &fakePlayer{}
	n := NewNotifier(Config{Cooldown: time.Hour}, p)

	n.Observe(true)
	n.Observe(true)
	n.Observe(true)

	if p.count() != 1 {
		t.Errorf("plays: got %d, want 1 within cooldown", p.count())
	}
}

func TestNotifier_RepeatsAfterCooldown(t *testing.T) {
	p := &fakePlayer{}
	n := NewNotifier(Config{Cooldown: 10 * time.Millisecond}, p)

	n.Observe(true)
	time.Sleep(20 * time.Millisecond)
	n.Observe(true)

	if p.count() != 2 {
		t.Errorf("plays: got %d, want 2 after cooldown elapsed", p.count())
	}
}

func TestNotifier_RearmsAfterClear(t *testing.T) {
	p := &fakePlayer{}
	n := NewNotifier(Config{Cooldown: time.Hour}, p)

	n.Observe(true)
	n.Observe(false)
	if n.Active() {
		t.Error("Active: expected false after condition clears")
	}

	n.Observe(true)
	if p.count() != 2 {
		t.Errorf("plays: got %d, want 2 (re-armed after clear)", p.count())
	}
}
