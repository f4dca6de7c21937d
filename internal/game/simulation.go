package game

import (
	"context"
	"sync"
	"time"
)

// Driver advances one table in fixed timesteps. Real elapsed time accumulates and is
// drained in whole TimeStep chunks; each chunk is one atomic pass over all active balls.
//
// A stopped driver stays stopped until NotifyMotionStarted is called.
type Driver struct {
	store       *TableState
	params      Params
	accumulator float64
	running     bool
	ticks       uint64
	pending     []CollisionEvent
	mu          sync.Mutex
}

// NewDriver creates a driver for the given table state. The driver starts stopped.
func NewDriver(store *TableState, params Params) *Driver {
	return &Driver{
		store:  store,
		params: params,
	}
}

// NotifyMotionStarted is the explicit signal that a mutator put a ball in motion.
func (d *Driver) NotifyMotionStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.accumulator = 0
	d.store.SetPhysicsRunning(true)
}

// Exclusive runs fn between ticks so a mutation never interleaves with a step.
func (d *Driver) Exclusive(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Stop halts the driver. Nothing inside the driver restarts it.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Driver) stopLocked() {
	d.running = false
	d.accumulator = 0
	d.store.SetPhysicsRunning(false)
}

// Running reports whether the driver is consuming time.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Ticks returns the number of fixed steps executed so far.
func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Advance feeds elapsed seconds into the accumulator and runs as many whole ticks as it
// covers. The remainder carries to the next call. Returns the number of ticks run.
// When all balls come to rest the driver stops itself.
func (d *Driver) Advance(elapsed float64) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running || elapsed <= 0 {
		return 0
	}

	d.accumulator += elapsed
	ran := 0
	for d.accumulator >= d.params.TimeStep {
		d.accumulator -= d.params.TimeStep
		moving := d.tickLocked()
		ran++
		if !moving {
			d.stopLocked()
			break
		}
	}
	return ran
}

// tickLocked runs exactly one step and reports whether anything is still moving.
func (d *Driver) tickLocked() bool {
	snap := d.store.Snapshot()
	res := StepBalls(snap.PhysicsBalls(), snap.Dimensions, d.params)
	d.ticks++
	for _, e := range res.Events {
		e.Tick = d.ticks
		d.pending = append(d.pending, e)
	}
	d.store.CommitStep(res.Balls)
	return AnyActiveMotion(res.Balls)
}

// DrainEvents returns and clears the events recorded since the last call.
func (d *Driver) DrainEvents() []CollisionEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	events := d.pending
	d.pending = nil
	return events
}

// RunRealtime drives the table from a frame ticker until ctx is done. Measured frame time
// feeds Advance; onFrame (optional) is called after every frame that ran at least one tick,
// and once more with settled=true when the driver stops itself.
func (d *Driver) RunRealtime(ctx context.Context, frameInterval time.Duration, onFrame func(snap Snapshot, settled bool)) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			wasRunning := d.Running()
			if d.Advance(elapsed) == 0 {
				continue
			}
			if onFrame != nil {
				onFrame(d.store.Snapshot(), wasRunning && !d.Running())
			}
		}
	}
}

// ReplayResult is the outcome of a batch simulation.
type ReplayResult struct {
	Completed     bool             `json:"completed"` // false when maxIterations was hit with balls still moving
	Iterations    int              `json:"iterations"`
	PocketedBalls []int            `json:"pocketed_balls"`
	Events        []CollisionEvent `json:"events"`
	Balls         []Ball           `json:"balls"`
}

// SimulateToCompletion steps the table in strict tick order until nothing moves or
// maxIterations ticks have run. It never loops forever; truncation shows as Completed=false.
func SimulateToCompletion(store *TableState, params Params, maxIterations int) ReplayResult {
	result := ReplayResult{PocketedBalls: []int{}}

	snap := store.Snapshot()
	balls := snap.PhysicsBalls()
	for result.Iterations < maxIterations {
		if !AnyActiveMotion(balls) {
			result.Completed = true
			break
		}
		res := StepBalls(balls, snap.Dimensions, params)
		result.Iterations++
		for _, e := range res.Events {
			e.Tick = uint64(result.Iterations)
			result.Events = append(result.Events, e)
			if e.Type == EventPocket {
				result.PocketedBalls = append(result.PocketedBalls, e.BallID)
			}
		}
		balls = res.Balls
		store.CommitStep(balls)
	}
	if !result.Completed && !AnyActiveMotion(balls) {
		result.Completed = true
	}

	store.SetPhysicsRunning(false)
	result.Balls = balls
	return result
}
