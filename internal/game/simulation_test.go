package game

import (
	"math"
	"testing"
)

// singleBallTable puts only ball id on a standard table.
func singleBallTable(id int, x, y, vx, vy float64) *TableState {
	s := NewTableState(StandardDimensions())
	s.AddBall(newBall(id, x, y, vx, vy), KindForID(id))
	return s
}

func TestScenarioCornerPocket(t *testing.T) {
	dir := NewVec2(-150, -150).Normalize()
	v := dir.Times(500)
	s := singleBallTable(0, 150, 150, v.X, v.Y)

	res := SimulateToCompletion(s, DefaultParams(), DefaultMaxIterations)

	if !res.Completed {
		t.Fatalf("simulation truncated after %d iterations", res.Iterations)
	}
	if res.Iterations >= 10000 {
		t.Errorf("iterations = %d, want < 10000", res.Iterations)
	}
	if len(res.PocketedBalls) != 1 || res.PocketedBalls[0] != 0 {
		t.Errorf("pocketed = %v, want [0]", res.PocketedBalls)
	}
	b, _ := s.Snapshot().Ball(0)
	if b.Active {
		t.Errorf("cue ball should be inactive, got %+v", b)
	}
}

func TestScenarioParallelToRails(t *testing.T) {
	s := singleBallTable(0, 250, 250, 100, 0)

	res := SimulateToCompletion(s, DefaultParams(), DefaultMaxIterations)

	if !res.Completed {
		t.Fatalf("simulation truncated after %d iterations", res.Iterations)
	}
	if len(res.PocketedBalls) != 0 {
		t.Errorf("pocketed = %v, want none", res.PocketedBalls)
	}
	b, _ := s.Snapshot().Ball(0)
	if !b.Active {
		t.Error("ball should still be active")
	}
	if b.Velocity.X != 0 || b.Velocity.Y != 0 {
		t.Errorf("velocity = %v, want exactly zero", b.Velocity)
	}
	if b.Position.Y != 250 {
		t.Errorf("ball drifted off its line: y=%v", b.Position.Y)
	}
	// Total travel of linear decay is bounded by v/k = 50.
	if b.Position.X <= 250 || b.Position.X > 300 {
		t.Errorf("final x = %v, want within (250, 300]", b.Position.X)
	}
}

func TestSimulateToCompletionReportsTruncation(t *testing.T) {
	s := singleBallTable(0, 250, 250, 400, 0)

	res := SimulateToCompletion(s, DefaultParams(), 5)

	if res.Completed {
		t.Error("five ticks cannot settle a 400 u/s shot; expected Completed=false")
	}
	if res.Iterations != 5 {
		t.Errorf("iterations = %d, want 5", res.Iterations)
	}
}

func TestSimulateAlreadyAtRest(t *testing.T) {
	s := NewRackedTableState(StandardDimensions())
	res := SimulateToCompletion(s, DefaultParams(), 10)
	if !res.Completed || res.Iterations != 0 {
		t.Errorf("completed=%v iterations=%d, want true and 0", res.Completed, res.Iterations)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() ReplayResult {
		s := NewRackedTableState(StandardDimensions())
		s.SetVelocity(0, NewVec2(420, 37))
		s.SetVelocity(9, NewVec2(-180, 260))
		return SimulateToCompletion(s, DefaultParams(), DefaultMaxIterations)
	}

	r1 := run()
	r2 := run()

	if r1.Iterations != r2.Iterations {
		t.Fatalf("iterations differ: %d vs %d", r1.Iterations, r2.Iterations)
	}
	for i := range r1.Balls {
		if r1.Balls[i] != r2.Balls[i] {
			t.Errorf("Non-deterministic: ball %d run1=%+v run2=%+v", i, r1.Balls[i], r2.Balls[i])
		}
	}
	if len(r1.Events) != len(r2.Events) {
		t.Errorf("event counts differ: %d vs %d", len(r1.Events), len(r2.Events))
	}
}

func TestDriverStartsStopped(t *testing.T) {
	s := singleBallTable(0, 250, 250, 100, 0)
	d := NewDriver(s, DefaultParams())

	if d.Advance(1) != 0 {
		t.Error("a driver that was never signalled must not tick")
	}
	b, _ := s.Snapshot().Ball(0)
	if b.Position.X != 250 {
		t.Errorf("ball moved without a motion signal: %v", b.Position)
	}
}

func TestDriverCarriesRemainder(t *testing.T) {
	s := singleBallTable(0, 250, 250, 100, 0)
	d := NewDriver(s, DefaultParams())
	d.NotifyMotionStarted()

	if n := d.Advance(TimeStep * 0.6); n != 0 {
		t.Errorf("partial frame ran %d ticks, want 0", n)
	}
	if n := d.Advance(TimeStep * 0.6); n != 1 {
		t.Errorf("accumulated 1.2 steps ran %d ticks, want 1", n)
	}
	if n := d.Advance(TimeStep * 3); n != 3 {
		t.Errorf("0.2 + 3 steps ran %d ticks, want 3", n)
	}
	if d.Ticks() != 4 {
		t.Errorf("ticks = %d, want 4", d.Ticks())
	}
}

func TestDriverMatchesBatchReplay(t *testing.T) {
	live := singleBallTable(0, 250, 250, 100, 40)
	batch := singleBallTable(0, 250, 250, 100, 40)

	d := NewDriver(live, DefaultParams())
	d.NotifyMotionStarted()
	for i := 0; i < 1000 && d.Running(); i++ {
		d.Advance(0.05) // uneven frames, 3 ticks each
	}
	res := SimulateToCompletion(batch, DefaultParams(), DefaultMaxIterations)

	lb, _ := live.Snapshot().Ball(0)
	if lb.Ball != res.Balls[0] {
		t.Errorf("realtime %+v differs from batch %+v", lb.Ball, res.Balls[0])
	}
	if d.Running() {
		t.Error("driver should stop itself once balls settle")
	}
	if live.Snapshot().PhysicsRunning {
		t.Error("physicsRunning should be cleared when settled")
	}
}

func TestDriverStopIsNotOverridden(t *testing.T) {
	s := singleBallTable(0, 250, 250, 300, 0)
	d := NewDriver(s, DefaultParams())
	d.NotifyMotionStarted()
	d.Advance(TimeStep * 2)

	d.Stop()
	before, _ := s.Snapshot().Ball(0)
	for i := 0; i < 10; i++ {
		d.Advance(1)
	}
	after, _ := s.Snapshot().Ball(0)
	if !before.Position.IsEqualTo(after.Position) {
		t.Errorf("stopped driver moved the ball: %v -> %v", before.Position, after.Position)
	}
	if d.Running() {
		t.Error("driver restarted itself")
	}

	d.NotifyMotionStarted()
	if d.Advance(TimeStep) != 1 {
		t.Error("explicit signal should restart the driver")
	}
}

func TestDriverDrainEvents(t *testing.T) {
	s := singleBallTable(0, BallRadius+1, 250, -200, 0)
	d := NewDriver(s, DefaultParams())
	d.NotifyMotionStarted()
	d.Advance(TimeStep)

	events := d.DrainEvents()
	if len(events) != 1 || events[0].Type != EventRail || events[0].Tick != 1 {
		t.Fatalf("events = %+v, want one rail event on tick 1", events)
	}
	if len(d.DrainEvents()) != 0 {
		t.Error("drain should clear pending events")
	}
}

func TestApplyShotRejectsDuringMotion(t *testing.T) {
	s := NewRackedTableState(StandardDimensions())
	d := NewDriver(s, DefaultParams())

	if err := ApplyShot(s, d, ShotAction{BallID: 0, Velocity: NewVec2(300, 0)}); err != nil {
		t.Fatalf("first shot: %v", err)
	}
	if !d.Running() {
		t.Fatal("shot should start the driver")
	}
	if err := ApplyShot(s, d, ShotAction{BallID: 0, Velocity: NewVec2(300, 0)}); err != ErrShotInProgress {
		t.Errorf("second shot err = %v, want ErrShotInProgress", err)
	}
	fresh := NewRackedTableState(StandardDimensions())
	if err := ApplyShot(fresh, NewDriver(fresh, DefaultParams()), ShotAction{BallID: 42, Velocity: NewVec2(1, 0)}); err != ErrBallNotFound {
		t.Errorf("unknown ball err = %v, want ErrBallNotFound", err)
	}
}

func TestClampShotVelocity(t *testing.T) {
	v := ClampShotVelocity(NewVec2(600, 800), MaxShotVelocity)
	if math.Abs(v.Magnitude()-MaxShotVelocity) > 1e-9 {
		t.Errorf("clamped speed = %v, want %v", v.Magnitude(), MaxShotVelocity)
	}
	if math.Abs(v.X/v.Y-0.75) > 1e-12 {
		t.Errorf("direction changed: %v", v)
	}
	small := NewVec2(30, 40)
	if ClampShotVelocity(small, MaxShotVelocity) != small {
		t.Error("slow shots pass through unchanged")
	}
}
