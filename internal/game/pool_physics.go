package game

import (
	"errors"
	"fmt"
)

var ErrNegativeDecay = errors.New("friction decay factor is negative")

// Ball is a single ball's physics state. Render-only concerns (kind, colour) live elsewhere.
type Ball struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
	Active   bool    `json:"active"`
}

// Event types recorded during a step.
const (
	EventRail   = "rail"
	EventPocket = "pocket"
)

// Rail axes used as CollisionEvent.TargetID for rail events.
const (
	AxisX = 0
	AxisY = 1
)

// CollisionEvent records a rail bounce or pocket capture for replay output and sound playback.
type CollisionEvent struct {
	Type     string  `json:"type"`      // "rail" or "pocket"
	Tick     uint64  `json:"tick"`      // filled in by the driver
	BallID   int     `json:"ball_id"`
	TargetID int     `json:"target_id"` // axis for rail, pocket id for pocket
	Speed    float64 `json:"speed"`     // speed at impact
}

// Params are the tunables of one physics step.
type Params struct {
	FrictionCoefficient float64 `json:"friction_coefficient"`
	TimeStep            float64 `json:"time_step"`
	VelocityThreshold   float64 `json:"velocity_threshold"`
}

// DefaultParams returns the canonical constants (k=2.0/s, dt=1/60 s, threshold 1.0).
func DefaultParams() Params {
	return Params{
		FrictionCoefficient: FrictionCoefficient,
		TimeStep:            TimeStep,
		VelocityThreshold:   VelocityThreshold,
	}
}

// DecayFactor is the per-step velocity multiplier 1 - k*dt.
func (p Params) DecayFactor() float64 {
	return 1 - p.FrictionCoefficient*p.TimeStep
}

// Validate flags tunings where friction would reverse velocity within one step.
// The factor is never clamped.
func (p Params) Validate() error {
	if p.TimeStep <= 0 {
		return fmt.Errorf("time step must be positive, got %v", p.TimeStep)
	}
	if f := p.DecayFactor(); f < 0 {
		return fmt.Errorf("%w: k=%v dt=%v factor=%v", ErrNegativeDecay, p.FrictionCoefficient, p.TimeStep, f)
	}
	return nil
}

// IntegrateStep advances a ball by dt with the canonical friction and stopping threshold.
func IntegrateStep(b Ball, dt float64) Ball {
	return integrate(b, dt, FrictionCoefficient, VelocityThreshold)
}

// IntegrateStep advances a ball by one fixed timestep using p.
func (p Params) IntegrateStep(b Ball) Ball {
	return integrate(b, p.TimeStep, p.FrictionCoefficient, p.VelocityThreshold)
}

// integrate is the only place that zeroes velocity: below threshold the ball snaps to rest
// and does not move. Otherwise explicit Euler with the start-of-step velocity, then decay.
func integrate(b Ball, dt, k, threshold float64) Ball {
	if b.Velocity.Magnitude() < threshold {
		b.Velocity = Vec2{}
		return b
	}
	b.Position = b.Position.Plus(b.Velocity.Times(dt))
	b.Velocity = b.Velocity.Times(1 - k*dt)
	return b
}

// ResolveRailCollision clamps the ball centre to [r, dim-r] on each axis independently and
// negates that axis' velocity when it was out of range. Both axes may reflect in one call.
func ResolveRailCollision(b Ball, width, height float64) (Ball, bool) {
	b, hitX, hitY := resolveRails(b, width, height)
	return b, hitX || hitY
}

func resolveRails(b Ball, width, height float64) (Ball, bool, bool) {
	r := b.Radius
	var hitX, hitY bool

	if b.Position.X < r {
		b.Position.X = r
		hitX = true
	} else if b.Position.X > width-r {
		b.Position.X = width - r
		hitX = true
	}
	if hitX {
		b.Velocity.X = -b.Velocity.X
	}

	if b.Position.Y < r {
		b.Position.Y = r
		hitY = true
	} else if b.Position.Y > height-r {
		b.Position.Y = height - r
		hitY = true
	}
	if hitY {
		b.Velocity.Y = -b.Velocity.Y
	}

	return b, hitX, hitY
}

// CheckPocketCapture reports whether the ball centre is inside the pocket circle, boundary
// inclusive. The ball radius is not added to the pocket radius.
func CheckPocketCapture(b Ball, p Pocket) bool {
	return b.Position.DistanceSquared(p.Center) <= p.Radius*p.Radius
}

// CapturePocket tests pockets in order and captures on the first hit: velocity zeroed and
// the ball deactivated. Returns the pocket id, or -1.
func CapturePocket(b Ball, pockets []Pocket) (Ball, int, bool) {
	for _, p := range pockets {
		if CheckPocketCapture(b, p) {
			b.Velocity = Vec2{}
			b.Active = false
			return b, p.ID, true
		}
	}
	return b, -1, false
}

// AnyActiveMotion returns true if at least one active ball has non-zero velocity.
func AnyActiveMotion(balls []Ball) bool {
	for _, b := range balls {
		if b.Active && !b.Velocity.IsZero() {
			return true
		}
	}
	return false
}

// StepResult is the outcome of one tick over all balls.
type StepResult struct {
	Balls  []Ball           `json:"balls"`
	Events []CollisionEvent `json:"events"`
}

// StepBalls runs one fixed timestep over every active ball: integrate, rail, then pockets.
// Balls are independent; the input slice is not modified.
func StepBalls(balls []Ball, dims TableDimensions, p Params) StepResult {
	pockets := dims.Pockets()
	out := make([]Ball, len(balls))
	var events []CollisionEvent

	for i, b := range balls {
		if !b.Active {
			out[i] = b
			continue
		}

		b = p.IntegrateStep(b)

		var hitX, hitY bool
		b, hitX, hitY = resolveRails(b, dims.Width, dims.Height)
		if hitX {
			events = append(events, CollisionEvent{Type: EventRail, BallID: b.ID, TargetID: AxisX, Speed: b.Velocity.Magnitude()})
		}
		if hitY {
			events = append(events, CollisionEvent{Type: EventRail, BallID: b.ID, TargetID: AxisY, Speed: b.Velocity.Magnitude()})
		}

		speed := b.Velocity.Magnitude()
		var pocketID int
		var captured bool
		b, pocketID, captured = CapturePocket(b, pockets)
		if captured {
			events = append(events, CollisionEvent{Type: EventPocket, BallID: b.ID, TargetID: pocketID, Speed: speed})
		}

		out[i] = b
	}

	return StepResult{Balls: out, Events: events}
}
