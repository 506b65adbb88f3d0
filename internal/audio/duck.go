package audio

import (
	"sync"
	"time"
)

// VolumeControl is the background-audio collaborator whose volume can be
// ducked. Volumes are in the range [0, 1].
type VolumeControl interface {
	Volume() float64
	SetVolume(volume float64)
}

// Ducker temporarily lowers background audio while foreground audio plays.
type Ducker interface {
	Duck()
	Unduck()
}

const (
	duckFraction   = 0.15
	duckRampDown   = 600 * time.Millisecond
	duckRampUp     = 1000 * time.Millisecond
	duckRampSteps  = 20
	duckVolumeCeil = 1.0
)

// DuckCoordinatorConfig configures a DuckCoordinator.
type DuckCoordinatorConfig struct {
	// Player is the background audio to duck. Nil makes every operation a
	// no-op, for deployments without background playback.
	Player VolumeControl
	// Sleep paces the ramp slices. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DuckCoordinator ramps a background player's volume down around foreground
// narration and back up afterwards. Ramps are time-sliced rather than
// instantaneous so volume changes stay free of audible clicks. Duck and
// Unduck are idempotent; a new ramp supersedes one still in progress.
//
// The unduck target is the normal volume, set at construction from the
// player and afterwards only by SetNormalVolume. Ramp positions never feed
// back into it, so back-to-back duck cycles restore the same level.
type DuckCoordinator struct {
	mu         sync.Mutex
	player     VolumeControl
	sleep      func(time.Duration)
	ducked     bool
	normal     float64
	generation int
}

// NewDuckCoordinator constructs a coordinator for the given player.
func NewDuckCoordinator(cfg DuckCoordinatorConfig) *DuckCoordinator {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	coordinator := &DuckCoordinator{player: cfg.Player, sleep: sleep}
	if cfg.Player != nil {
		coordinator.normal = cfg.Player.Volume()
	}
	return coordinator
}

// Duck lowers the player volume to a fraction of its normal level. Calling
// while already ducked is a no-op.
func (d *DuckCoordinator) Duck() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil || d.ducked {
		return
	}
	d.ducked = true
	d.startRampLocked(d.normal*duckFraction, duckRampDown)
}

// Unduck restores the player to its pre-duck volume, or to the most recent
// user-set volume if it changed while ducked. Calling while not ducked is a
// no-op.
func (d *DuckCoordinator) Unduck() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil || !d.ducked {
		return
	}
	d.ducked = false
	d.startRampLocked(d.normal, duckRampUp)
}

// SetNormalVolume records a user-initiated volume change. While ducked it
// only retargets the next unduck; otherwise it applies immediately.
func (d *DuckCoordinator) SetNormalVolume(volume float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.normal = clampVolume(volume)
	if d.player == nil || d.ducked {
		return
	}
	d.generation++
	d.player.SetVolume(d.normal)
}

// Ducked reports whether the coordinator is currently ducked.
func (d *DuckCoordinator) Ducked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ducked
}

// startRampLocked begins a sliced ramp toward target. The caller holds d.mu.
// Bumping the generation cancels any ramp still running.
func (d *DuckCoordinator) startRampLocked(target float64, duration time.Duration) {
	d.generation++
	generation := d.generation
	delta := (target - d.player.Volume()) / duckRampSteps
	slice := duration / duckRampSteps

	go func() {
		for step := 0; step < duckRampSteps; step++ {
			d.sleep(slice)
			d.mu.Lock()
			if d.generation != generation {
				d.mu.Unlock()
				return
			}
			d.player.SetVolume(clampVolume(d.player.Volume() + delta))
			d.mu.Unlock()
		}
	}()
}

func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > duckVolumeCeil {
		return duckVolumeCeil
	}
	return volume
}
