package game

import (
	"errors"
	"math"
	"testing"
)

func newBall(id int, x, y, vx, vy float64) Ball {
	return Ball{
		ID:       id,
		Position: NewVec2(x, y),
		Velocity: NewVec2(vx, vy),
		Radius:   BallRadius,
		Active:   true,
	}
}

func TestSlowBallSnapsToRest(t *testing.T) {
	cases := []Vec2{{0.5, 0.5}, {0.99, 0}, {0, -0.7}, {0.0001, 0.0001}}
	for _, v := range cases {
		b := newBall(0, 300, 200, v.X, v.Y)
		got := IntegrateStep(b, TimeStep)
		if !got.Velocity.IsZero() {
			t.Errorf("velocity %v: expected exact zero after step, got %v", v, got.Velocity)
		}
		if !got.Position.IsEqualTo(b.Position) {
			t.Errorf("velocity %v: position moved from %v to %v", v, b.Position, got.Position)
		}
	}
}

func TestMovingBallUsesStartOfStepVelocity(t *testing.T) {
	dt := TimeStep
	b := newBall(0, 100, 200, 3, 4)
	got := IntegrateStep(b, dt)

	wantX := 100 + 3*dt
	wantY := 200 + 4*dt
	if got.Position.X != wantX || got.Position.Y != wantY {
		t.Errorf("position = (%v,%v), want (%v,%v)", got.Position.X, got.Position.Y, wantX, wantY)
	}
	if got.Velocity.Magnitude() >= b.Velocity.Magnitude() {
		t.Errorf("speed did not decrease: before=%v after=%v", b.Velocity.Magnitude(), got.Velocity.Magnitude())
	}

	factor := DefaultParams().DecayFactor()
	if got.Velocity.X != 3*factor || got.Velocity.Y != 4*factor {
		t.Errorf("velocity = %v, want linear decay by %v", got.Velocity, factor)
	}
}

func TestFrictionNeverReversesComponents(t *testing.T) {
	for _, v := range []Vec2{{500, -500}, {-1.2, 0.3}, {0, 42}, {-250, 0}, {1, 0}} {
		b := newBall(0, 500, 250, v.X, v.Y)
		for i := 0; i < 2000; i++ {
			next := IntegrateStep(b, TimeStep)
			if next.Velocity.X*b.Velocity.X < 0 || next.Velocity.Y*b.Velocity.Y < 0 {
				t.Fatalf("step %d reversed velocity: %v -> %v", i, b.Velocity, next.Velocity)
			}
			b = next
		}
		if !b.Velocity.IsZero() {
			t.Errorf("start %v: ball never came to rest, v=%v", v, b.Velocity)
		}
	}
}

func TestDecayFactorValidation(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params should be valid: %v", err)
	}

	p := DefaultParams()
	p.FrictionCoefficient = 120 // 120 * 1/60 = 2, factor -1
	err := p.Validate()
	if !errors.Is(err, ErrNegativeDecay) {
		t.Errorf("expected ErrNegativeDecay, got %v", err)
	}
	if p.DecayFactor() >= 0 {
		t.Errorf("factor should be reported unclamped, got %v", p.DecayFactor())
	}
}

func TestRailReflectsLeftCushion(t *testing.T) {
	const eps = 0.25
	b := newBall(0, BallRadius-eps, 200, -120, 35)
	got, hit := ResolveRailCollision(b, TableWidth, TableHeight)

	if !hit {
		t.Fatal("expected a rail hit")
	}
	if got.Position.X != BallRadius {
		t.Errorf("x = %v, want clamp to %v", got.Position.X, BallRadius)
	}
	if got.Velocity.X != 120 || got.Velocity.Y != 35 {
		t.Errorf("velocity = %v, want (120, 35)", got.Velocity)
	}
}

func TestRailCornerReflectsBothAxes(t *testing.T) {
	b := newBall(0, TableWidth-BallRadius+2, TableHeight-BallRadius+3, 80, 60)
	got, hit := ResolveRailCollision(b, TableWidth, TableHeight)

	if !hit {
		t.Fatal("expected a rail hit")
	}
	if got.Position.X != TableWidth-BallRadius || got.Position.Y != TableHeight-BallRadius {
		t.Errorf("position = %v, want clamped to both far rails", got.Position)
	}
	if got.Velocity.X != -80 || got.Velocity.Y != -60 {
		t.Errorf("velocity = %v, want (-80, -60)", got.Velocity)
	}
}

func TestRailInBoundsUntouched(t *testing.T) {
	b := newBall(0, 500, 250, -30, 30)
	got, hit := ResolveRailCollision(b, TableWidth, TableHeight)
	if hit || got != b {
		t.Errorf("in-bounds ball changed: hit=%v got=%+v", hit, got)
	}
}

func TestPocketCaptureBoundaryInclusive(t *testing.T) {
	p := Pocket{ID: 0, Center: NewVec2(0, 0), Radius: PocketRadius}

	if !CheckPocketCapture(newBall(0, PocketRadius, 0, 0, 0), p) {
		t.Error("centre exactly on the pocket radius should capture")
	}
	if !CheckPocketCapture(newBall(0, 13.5, 18, 0, 0), p) {
		t.Error("centre at distance 22.5 on a diagonal should capture")
	}
	if CheckPocketCapture(newBall(0, PocketRadius+1e-9, 0, 0, 0), p) {
		t.Error("centre just outside the pocket radius should not capture")
	}
	// Ball edge overlapping the pocket is not enough.
	if CheckPocketCapture(newBall(0, PocketRadius+BallRadius/2, 0, 0, 0), p) {
		t.Error("capture must use the ball centre, not its edge")
	}
}

func TestCapturePocketFirstWins(t *testing.T) {
	pockets := []Pocket{
		{ID: 7, Center: NewVec2(10, 10), Radius: 30},
		{ID: 9, Center: NewVec2(12, 12), Radius: 30},
	}
	b := newBall(3, 11, 11, 50, -20)
	got, id, ok := CapturePocket(b, pockets)

	if !ok || id != 7 {
		t.Fatalf("captured=%v id=%d, want first pocket 7", ok, id)
	}
	if got.Active || !got.Velocity.IsZero() {
		t.Errorf("captured ball should be inactive at rest, got %+v", got)
	}
}

func TestAnyActiveMotionIgnoresInactive(t *testing.T) {
	moving := newBall(1, 100, 100, 5, 0)
	moving.Active = false
	still := newBall(0, 100, 100, 0, 0)

	if AnyActiveMotion([]Ball{moving, still}) {
		t.Error("inactive moving ball should not count as motion")
	}
	still.Velocity = NewVec2(0, -0.0001)
	if !AnyActiveMotion([]Ball{moving, still}) {
		t.Error("any non-zero component is motion")
	}
}

func TestStepBallsDoesNotMutateInput(t *testing.T) {
	in := []Ball{newBall(0, 300, 200, 200, 0), newBall(1, 700, 200, 0, 0)}
	before := append([]Ball(nil), in...)

	res := StepBalls(in, StandardDimensions(), DefaultParams())
	for i := range in {
		if in[i] != before[i] {
			t.Errorf("input ball %d mutated: %+v -> %+v", i, before[i], in[i])
		}
	}
	if res.Balls[0].Position.X <= 300 {
		t.Errorf("ball 0 did not move: %v", res.Balls[0].Position)
	}
}

func TestStepBallsSkipsInactive(t *testing.T) {
	b := newBall(4, 3, 3, 400, 400) // inside pocket 0 but already pocketed
	b.Active = false
	res := StepBalls([]Ball{b}, StandardDimensions(), DefaultParams())
	if res.Balls[0] != b || len(res.Events) != 0 {
		t.Errorf("inactive ball was processed: %+v events=%v", res.Balls[0], res.Events)
	}
}

func TestStepBallsRailThenPocket(t *testing.T) {
	// Moving fast into the top-left corner: the rail clamp puts the centre at (r, r),
	// 15.9 from the corner pocket, which then captures it in the same step.
	b := newBall(0, BallRadius+0.5, BallRadius+0.5, -120, -120)
	res := StepBalls([]Ball{b}, StandardDimensions(), DefaultParams())

	got := res.Balls[0]
	if got.Active {
		t.Fatalf("ball should be pocketed, got %+v", got)
	}
	var rails, pockets int
	for _, e := range res.Events {
		switch e.Type {
		case EventRail:
			rails++
		case EventPocket:
			pockets++
			if e.TargetID != 0 {
				t.Errorf("captured by pocket %d, want 0", e.TargetID)
			}
		}
	}
	if rails != 2 || pockets != 1 {
		t.Errorf("events rails=%d pockets=%d, want 2 and 1", rails, pockets)
	}
}

func TestStandardPocketLayout(t *testing.T) {
	d := StandardDimensions()
	pockets := d.Pockets()
	if len(pockets) != 6 {
		t.Fatalf("got %d pockets, want 6", len(pockets))
	}
	corners := []Vec2{{0, 0}, {d.Width, 0}, {0, d.Height}, {d.Width, d.Height}}
	for i, c := range corners {
		if !pockets[i].Center.IsEqualTo(c) {
			t.Errorf("corner pocket %d at %v, want %v", i, pockets[i].Center, c)
		}
	}
	inset := SidePocketInset * d.PocketRadius
	if math.Abs(pockets[4].Center.Y+inset) > 1e-12 || pockets[4].Center.X != d.Width/2 {
		t.Errorf("top side pocket at %v", pockets[4].Center)
	}
	if math.Abs(pockets[5].Center.Y-(d.Height+inset)) > 1e-12 {
		t.Errorf("bottom side pocket at %v", pockets[5].Center)
	}
}

func TestStandardRackOnSurface(t *testing.T) {
	d := StandardDimensions()
	rack := StandardRack(d)
	if !rack[0].IsEqualTo(d.HeadSpot()) {
		t.Errorf("cue ball at %v, want head spot %v", rack[0], d.HeadSpot())
	}
	if !rack[1].IsEqualTo(d.FootSpot()) {
		t.Errorf("apex ball at %v, want foot spot %v", rack[1], d.FootSpot())
	}
	for i, p := range rack {
		if p.X < BallRadius || p.X > d.Width-BallRadius || p.Y < BallRadius || p.Y > d.Height-BallRadius {
			t.Errorf("ball %d racked off the surface at %v", i, p)
		}
		for j := i + 1; j < NumBalls; j++ {
			if p.DistanceSquared(rack[j]) < 4*BallRadius*BallRadius {
				t.Errorf("balls %d and %d overlap", i, j)
			}
		}
	}
}

func TestKindForID(t *testing.T) {
	want := map[int]BallKind{0: KindCue, 1: KindSolid, 7: KindSolid, 8: KindEight, 9: KindStripe, 15: KindStripe}
	for id, k := range want {
		if got := KindForID(id); got != k {
			t.Errorf("KindForID(%d) = %s, want %s", id, got, k)
		}
	}
}
