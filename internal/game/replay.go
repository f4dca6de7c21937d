package game

import "fmt"

// ReplayRequest describes an offline run: a starting layout and a list of shots, each
// simulated to rest before the next is applied.
type ReplayRequest struct {
	Dimensions    *TableDimensions `json:"dimensions,omitempty"`
	Balls         []Ball           `json:"balls,omitempty"` // standard rack when empty
	Shots         []ShotAction     `json:"shots"`
	MaxIterations int              `json:"max_iterations,omitempty"`
	MaxShotSpeed  float64          `json:"-"`
}

// ReplayOutcome collects the per-shot results and the final table.
type ReplayOutcome struct {
	Completed bool           `json:"completed"`
	Shots     []ReplayResult `json:"shots"`
	Final     Snapshot       `json:"final"`
}

// Iterations is the total tick count over all shots.
func (o ReplayOutcome) Iterations() int {
	n := 0
	for _, r := range o.Shots {
		n += r.Iterations
	}
	return n
}

// ReplayShots runs req deterministically. A shot that exceeds its iteration budget stops
// the run with Completed=false; an invalid shot is an error naming its index.
func ReplayShots(req ReplayRequest, params Params) (ReplayOutcome, error) {
	dims := StandardDimensions()
	if req.Dimensions != nil {
		dims = *req.Dimensions
	}
	if err := dims.Validate(); err != nil {
		return ReplayOutcome{}, err
	}
	if err := params.Validate(); err != nil {
		return ReplayOutcome{}, err
	}
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var store *TableState
	if len(req.Balls) == 0 {
		store = NewRackedTableState(dims)
	} else {
		store = NewTableState(dims)
		for _, b := range req.Balls {
			if b.Radius == 0 {
				b.Radius = BallRadius
			}
			store.AddBall(b, KindForID(b.ID))
		}
	}

	out := ReplayOutcome{Completed: true, Shots: make([]ReplayResult, 0, len(req.Shots))}
	for i, shot := range req.Shots {
		if req.MaxShotSpeed > 0 {
			shot.Velocity = ClampShotVelocity(shot.Velocity, req.MaxShotSpeed)
		}
		if err := ValidateShot(store.Snapshot(), shot); err != nil {
			return out, fmt.Errorf("shot %d: %w", i, err)
		}
		store.SetVelocity(shot.BallID, shot.Velocity)
		res := SimulateToCompletion(store, params, maxIter)
		out.Shots = append(out.Shots, res)
		if !res.Completed {
			out.Completed = false
			break
		}
	}
	out.Final = store.Snapshot()
	return out, nil
}
