package game

// Physics and table constants, all in table units.
// Physics and game logic run in a fixed 1000x500 playing surface independent of screen pixels.

const (
	TableWidth   = 1000.0
	TableHeight  = 500.0
	RailWidth    = 40.0
	BallRadius   = 11.25
	PocketRadius = 22.5 // 2 * BallRadius

	// SidePocketInset is the fraction of the pocket radius a side pocket sits beyond the
	// long edge; it leaves ~25% of the pocket circle's area over the playing surface.
	SidePocketInset = 0.607

	VelocityThreshold   = 1.0      // units/s; below this a ball stops
	FrictionCoefficient = 2.0      // 1/s
	TimeStep            = 1.0 / 60 // s

	MaxShotVelocity = 500.0 // units/s, clamp owned by the input layer

	DefaultMaxIterations = 10000

	NumBalls = 16 // 0=cue, 1-7=solids, 8=eight, 9-15=stripes
)
