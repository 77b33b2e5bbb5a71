// Package alert raises an audio warning when a close pedestrian the user has
// not looked at is in frame.
package alert

import (
	"os/exec"
	"sync"
	"time"

	"github.com/oculon/gazeguard/internal/log"
)

// Player plays the warning sound once. Implementations must be safe for
// concurrent use.
type Player interface {
	Play() error
}

// ExecPlayer shells out to ffplay for playback, keeping at most one player
// process alive at a time.
type ExecPlayer struct {
	soundPath string

	mu      sync.Mutex
	playing bool
}

// NewExecPlayer creates a player for the given sound file.
func NewExecPlayer(soundPath string) *ExecPlayer {
	return &ExecPlayer{soundPath: soundPath}
}

// Play starts playback unless a previous playback is still running.
func (p *ExecPlayer) Play() error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	p.playing = true
	p.mu.Unlock()

	cmd := exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", p.soundPath)
	if err := cmd.Start(); err != nil {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
		return err
	}

	go func() {
		cmd.Wait()
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	return nil
}

// Config tunes the notifier.
type Config struct {
	// Cooldown is the minimum gap between repeated warnings while the
	// alert condition stays true.
	Cooldown time.Duration
}

// DefaultConfig returns a 3-second repeat cooldown.
func DefaultConfig() Config {
	return Config{Cooldown: 3 * time.Second}
}

// Notifier debounces the per-frame alert condition into discrete warnings.
type Notifier struct {
	cfg    Config
	player Player

	mu       sync.Mutex
	active   bool
	lastPlay time.Time
}

// NewNotifier creates a notifier.
func NewNotifier(cfg Config, player Player) *Notifier {
	return &Notifier{cfg: cfg, player: player}
}

// Observe feeds the alert condition for the current frame. The sound plays
// on a false→true transition and again after each cooldown while the
// condition holds.
func (n *Notifier) Observe(shouldAlert bool) {
	n.mu.Lock()

	if !shouldAlert {
		n.active = false
		n.mu.Unlock()
		return
	}

	fire := !n.active || time.Since(n.lastPlay) >= n.cfg.Cooldown
	n.active = true
	if fire {
		n.lastPlay = time.Now()
	}
	n.mu.Unlock()

	if fire {
		if err := n.player.Play(); err != nil {
			log.Warn("alert: playback failed", "err", err)
		}
	}
}

// Active reports whether the alert condition held on the last observation.
func (n *Notifier) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}
