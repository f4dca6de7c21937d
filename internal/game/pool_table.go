package game

import (
	"errors"
	"fmt"
)

var ErrInvalidDimensions = errors.New("invalid table dimensions")

// Pocket is one of the 6 pocket circles. Centers may lie outside the playing surface.
type Pocket struct {
	ID     int     `json:"id"`
	Center Vec2    `json:"center"`
	Radius float64 `json:"radius"`
}

// TableDimensions describes the playing surface. Pockets are always derived from these
// fields and never stored on their own.
type TableDimensions struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	RailWidth    float64 `json:"rail_width"`
	PocketRadius float64 `json:"pocket_radius"`
}

// StandardDimensions returns the canonical 1000x500 table.
func StandardDimensions() TableDimensions {
	return TableDimensions{
		Width:        TableWidth,
		Height:       TableHeight,
		RailWidth:    RailWidth,
		PocketRadius: PocketRadius,
	}
}

// Validate is optional; the physics core accepts degenerate tables as-is.
func (d TableDimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: width=%.2f height=%.2f", ErrInvalidDimensions, d.Width, d.Height)
	}
	if d.RailWidth < 0 {
		return fmt.Errorf("%w: rail_width=%.2f", ErrInvalidDimensions, d.RailWidth)
	}
	if d.PocketRadius <= 0 {
		return fmt.Errorf("%w: pocket_radius=%.2f", ErrInvalidDimensions, d.PocketRadius)
	}
	return nil
}

// Pockets derives the 6 pockets: 4 corners (TL, TR, BL, BR) centred on the corner, then
// the top and bottom side pockets offset beyond the long edges.
func (d TableDimensions) Pockets() []Pocket {
	r := d.PocketRadius
	side := SidePocketInset * r
	return []Pocket{
		{ID: 0, Center: NewVec2(0, 0), Radius: r},
		{ID: 1, Center: NewVec2(d.Width, 0), Radius: r},
		{ID: 2, Center: NewVec2(0, d.Height), Radius: r},
		{ID: 3, Center: NewVec2(d.Width, d.Height), Radius: r},
		{ID: 4, Center: NewVec2(d.Width/2, -side), Radius: r},
		{ID: 5, Center: NewVec2(d.Width/2, d.Height+side), Radius: r},
	}
}

// HeadSpot is at 1/4 of the table width, vertically centred.
func (d TableDimensions) HeadSpot() Vec2 {
	return NewVec2(d.Width/4, d.Height/2)
}

// FootSpot is at 3/4 of the table width, vertically centred.
func (d TableDimensions) FootSpot() Vec2 {
	return NewVec2(3*d.Width/4, d.Height/2)
}

// IsOnPlayingSurface reports whether a table point is on the felt.
func (d TableDimensions) IsOnPlayingSurface(p Vec2) bool {
	return p.X >= 0 && p.X <= d.Width && p.Y >= 0 && p.Y <= d.Height
}

// IsOnTable is IsOnPlayingSurface with the bounds extended by the rail on every side.
func (d TableDimensions) IsOnTable(p Vec2) bool {
	rw := d.RailWidth
	return p.X >= -rw && p.X <= d.Width+rw && p.Y >= -rw && p.Y <= d.Height+rw
}

// StandardRack returns the initial positions for all 16 balls.
// The cue ball sits on the head spot; the triangle apex sits on the foot spot and opens
// away from the cue. Fixed offsets, no jitter.
func StandardRack(d TableDimensions) [NumBalls]Vec2 {
	var pos [NumBalls]Vec2

	br := BallRadius
	e := 1.782 // row spacing, sqrt(3) plus a small gap
	s := 1.05  // column spacing
	apex := d.FootSpot()
	ax, ay := apex.X, apex.Y

	pos[0] = d.HeadSpot()

	pos[1] = NewVec2(ax, ay)

	pos[2] = NewVec2(ax+e*br, ay+br*s)
	pos[15] = NewVec2(ax+e*br, ay-br*s)

	// 8-ball in the centre of row 3
	pos[8] = NewVec2(ax+2*e*br, ay)
	pos[5] = NewVec2(ax+2*e*br, ay+2*br*s)
	pos[10] = NewVec2(ax+2*e*br, ay-2*br*s)

	pos[7] = NewVec2(ax+3*e*br, ay+1*br*s)
	pos[4] = NewVec2(ax+3*e*br, ay+3*br*s)
	pos[9] = NewVec2(ax+3*e*br, ay-1*br*s)
	pos[6] = NewVec2(ax+3*e*br, ay-3*br*s)

	pos[11] = NewVec2(ax+4*e*br, ay)
	pos[12] = NewVec2(ax+4*e*br, ay+2*br*s)
	pos[13] = NewVec2(ax+4*e*br, ay-2*br*s)
	pos[14] = NewVec2(ax+4*e*br, ay+4*br*s)
	pos[3] = NewVec2(ax+4*e*br, ay-4*br*s)

	return pos
}
