package game

import (
	"errors"
	"math"
)

var (
	ErrBallNotFound   = errors.New("ball not found")
	ErrBallPocketed   = errors.New("ball is not on the table")
	ErrShotInProgress = errors.New("a shot is already in progress")
	ErrZeroShot       = errors.New("shot velocity is zero")
)

// ShotAction sets one ball's velocity directly. It is the only way motion starts.
type ShotAction struct {
	BallID   int  `json:"ball_id"`
	Velocity Vec2 `json:"velocity"`
}

// ClampShotVelocity limits a shot's speed to max, keeping its direction.
func ClampShotVelocity(v Vec2, max float64) Vec2 {
	speed := v.Magnitude()
	if speed <= max || speed == 0 {
		return v
	}
	return v.Times(max / speed)
}

// ShotFromAngle composes a velocity from an angle in radians and a power in units/s.
func ShotFromAngle(angle, power float64) Vec2 {
	return NewVec2(math.Cos(angle)*power, math.Sin(angle)*power)
}

// ValidateShot checks a shot against a snapshot without mutating anything.
func ValidateShot(snap Snapshot, action ShotAction) error {
	if snap.PhysicsRunning {
		return ErrShotInProgress
	}
	b, ok := snap.Ball(action.BallID)
	if !ok {
		return ErrBallNotFound
	}
	if !b.Active {
		return ErrBallPocketed
	}
	if action.Velocity.IsZero() {
		return ErrZeroShot
	}
	return nil
}

// ApplyShot writes the shot into the state between ticks, then signals the driver that
// motion started.
func ApplyShot(store *TableState, driver *Driver, action ShotAction) error {
	var err error
	driver.Exclusive(func() {
		if err = ValidateShot(store.Snapshot(), action); err != nil {
			return
		}
		store.SetVelocity(action.BallID, action.Velocity)
	})
	if err != nil {
		return err
	}
	driver.NotifyMotionStarted()
	return nil
}

// ApplyRack resets the balls to the standard rack between ticks. Refused while balls move.
func ApplyRack(store *TableState, driver *Driver) error {
	var err error
	driver.Exclusive(func() {
		if store.Snapshot().PhysicsRunning {
			err = ErrShotInProgress
			return
		}
		store.Rack()
	})
	return err
}
