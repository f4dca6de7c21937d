package display

import "github.com/playmatatu/tablesim/internal/game"

// HitTest is the table-space view of a screen point.
type HitTest struct {
	Table     game.Vec2 `json:"table"`
	OnSurface bool      `json:"on_surface"`
	OnTable   bool      `json:"on_table"`
	NearestID int       `json:"nearest_ball_id"` // -1 when no active ball is under the point
}

// HitTestScreen maps a screen point into the table and finds the active ball under it.
func HitTestScreen(t *Transform, snap game.Snapshot, sx, sy float64) HitTest {
	x, y := t.ScreenToTable(sx, sy)
	p := game.NewVec2(x, y)
	h := HitTest{
		Table:     p,
		OnSurface: t.IsOnPlayingSurface(x, y),
		OnTable:   t.IsOnTable(x, y),
		NearestID: -1,
	}
	best := -1.0
	for _, b := range snap.Balls {
		if !b.Active {
			continue
		}
		d := b.Position.DistanceSquared(p)
		if d <= b.Radius*b.Radius && (best < 0 || d < best) {
			best = d
			h.NearestID = b.ID
		}
	}
	return h
}

// ShotFromScreenDrag converts a screen drag into a shot velocity. The drag is mapped into
// table units, so the same gesture gives the same shot in either orientation. power is
// units/s per table unit of drag; the result is clamped to maxSpeed.
func ShotFromScreenDrag(t *Transform, fromX, fromY, toX, toY, power, maxSpeed float64) game.Vec2 {
	ax, ay := t.ScreenToTable(fromX, fromY)
	bx, by := t.ScreenToTable(toX, toY)
	drag := game.NewVec2(bx-ax, by-ay)
	return game.ClampShotVelocity(drag.Times(power), maxSpeed)
}
