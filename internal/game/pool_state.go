package game

import (
	"sort"
	"sync"
)

// BallSnapshot pairs a ball's physics state with its render-only kind.
type BallSnapshot struct {
	Ball
	Kind BallKind `json:"kind"`
}

// Snapshot is an immutable copy of a table's state. Balls are ordered by id.
type Snapshot struct {
	Balls          []BallSnapshot  `json:"balls"`
	Dimensions     TableDimensions `json:"dimensions"`
	Pockets        []Pocket        `json:"pockets"`
	PhysicsRunning bool            `json:"physics_running"`
}

// PhysicsBalls returns the physics values of the snapshot in id order.
func (s Snapshot) PhysicsBalls() []Ball {
	out := make([]Ball, len(s.Balls))
	for i, b := range s.Balls {
		out[i] = b.Ball
	}
	return out
}

// Ball looks up a ball by id.
func (s Snapshot) Ball(id int) (BallSnapshot, bool) {
	for _, b := range s.Balls {
		if b.ID == id {
			return b, true
		}
	}
	return BallSnapshot{}, false
}

// ActiveBalls returns the balls still on the table.
func (s Snapshot) ActiveBalls() []BallSnapshot {
	out := make([]BallSnapshot, 0, len(s.Balls))
	for _, b := range s.Balls {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

// TableState is the single mutable source of truth for one table. Every update is a
// synchronous, all-or-nothing replacement under the lock; updates for unknown ids are no-ops.
type TableState struct {
	balls          map[int]Ball
	kinds          map[int]BallKind
	dims           TableDimensions
	physicsRunning bool
	mu             sync.RWMutex
}

// NewTableState creates an empty table with the given dimensions.
func NewTableState(dims TableDimensions) *TableState {
	return &TableState{
		balls: make(map[int]Ball),
		kinds: make(map[int]BallKind),
		dims:  dims,
	}
}

// NewRackedTableState creates a table with the standard 16-ball rack.
func NewRackedTableState(dims TableDimensions) *TableState {
	s := NewTableState(dims)
	s.Rack()
	return s
}

// Rack resets the table to the standard rack for its current dimensions.
func (s *TableState) Rack() {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := StandardRack(s.dims)
	s.balls = make(map[int]Ball, NumBalls)
	s.kinds = make(map[int]BallKind, NumBalls)
	for id := 0; id < NumBalls; id++ {
		s.balls[id] = Ball{
			ID:       id,
			Position: positions[id],
			Radius:   BallRadius,
			Active:   true,
		}
		s.kinds[id] = KindForID(id)
	}
	s.physicsRunning = false
}

// AddBall places a ball, replacing any ball with the same id.
func (s *TableState) AddBall(b Ball, kind BallKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balls[b.ID] = b
	s.kinds[b.ID] = kind
}

// Snapshot returns an immutable copy of the current state.
func (s *TableState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.balls))
	for id := range s.balls {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	balls := make([]BallSnapshot, len(ids))
	for i, id := range ids {
		balls[i] = BallSnapshot{Ball: s.balls[id], Kind: s.kinds[id]}
	}

	return Snapshot{
		Balls:          balls,
		Dimensions:     s.dims,
		Pockets:        s.dims.Pockets(),
		PhysicsRunning: s.physicsRunning,
	}
}

func (s *TableState) SetPosition(id int, pos Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balls[id]; ok {
		b.Position = pos
		s.balls[id] = b
	}
}

func (s *TableState) SetVelocity(id int, vel Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balls[id]; ok {
		b.Velocity = vel
		s.balls[id] = b
	}
}

func (s *TableState) SetActive(id int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balls[id]; ok {
		b.Active = active
		s.balls[id] = b
	}
}

func (s *TableState) SetPhysicsRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.physicsRunning = running
}

// SetDimensions replaces the dimensions; the derived pockets follow automatically.
func (s *TableState) SetDimensions(dims TableDimensions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dims = dims
}

// HasBall reports whether id is on record (active or not).
func (s *TableState) HasBall(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.balls[id]
	return ok
}

// CommitStep writes back the result of one whole tick in a single replacement so readers
// never observe a half-applied step. Unknown ids are ignored.
func (s *TableState) CommitStep(balls []Ball) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range balls {
		if _, ok := s.balls[b.ID]; ok {
			s.balls[b.ID] = b
		}
	}
}
