package game

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// FramesChannel is the Redis pub/sub channel carrying table frames between instances.
const FramesChannel = "table_events"

// FrameEvent is published after each advance of a running table and once when it settles.
type FrameEvent struct {
	Type    string           `json:"type"` // "frame" or "settled"
	TableID string           `json:"table_id"`
	Tick    uint64           `json:"tick"`
	Balls   []BallSnapshot   `json:"balls"`
	Events  []CollisionEvent `json:"events,omitempty"`
	SentAt  time.Time        `json:"sent_at"`
}

// NewFrameEvent builds a frame from a snapshot.
func NewFrameEvent(tableID string, tick uint64, snap Snapshot, events []CollisionEvent, settled bool) FrameEvent {
	kind := "frame"
	if settled {
		kind = "settled"
	}
	return FrameEvent{
		Type:    kind,
		TableID: tableID,
		Tick:    tick,
		Balls:   snap.Balls,
		Events:  events,
		SentAt:  time.Now(),
	}
}

// RecordTable inserts the table row that shots reference.
func (tm *TableManager) RecordTable(t *Table) {
	if tm == nil || tm.db == nil {
		return
	}
	d := t.State.Snapshot().Dimensions
	_, err := tm.db.Exec(
		`INSERT INTO tables (id, width, height, rail_width, pocket_radius, created_at) VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (id) DO NOTHING`,
		t.ID, d.Width, d.Height, d.RailWidth, d.PocketRadius, t.CreatedAt,
	)
	if err != nil {
		log.Printf("[DB] Failed to record table %s: %v", t.ID, err)
	}
}

// RecordShot records one shot against its table.
func (tm *TableManager) RecordShot(tableID string, shotNumber int, action ShotAction) {
	if tm == nil || tm.db == nil {
		return
	}

	_, err := tm.db.Exec(
		`INSERT INTO shots (table_id, shot_number, ball_id, velocity_x, velocity_y, created_at) VALUES ($1,$2,$3,$4,$5,NOW())`,
		tableID, shotNumber, action.BallID, action.Velocity.X, action.Velocity.Y,
	)
	if err != nil {
		log.Printf("[DB] Failed to record shot %d for table %s: %v", shotNumber, tableID, err)
	}
}

// RecordReplay stores the summary of a batch replay with its JSONB request.
func (tm *TableManager) RecordReplay(req ReplayRequest, out ReplayOutcome) {
	if tm == nil || tm.db == nil {
		return
	}

	reqData, err := json.Marshal(req)
	if err != nil {
		log.Printf("[DB] Failed to marshal replay request: %v", err)
		return
	}
	pocketed := []int{}
	for _, r := range out.Shots {
		pocketed = append(pocketed, r.PocketedBalls...)
	}
	pocketedData, _ := json.Marshal(pocketed)

	_, err = tm.db.Exec(
		`INSERT INTO replays (shot_count, iterations, completed, pocketed_balls, request, created_at) VALUES ($1,$2,$3,$4,$5::jsonb,NOW())`,
		len(req.Shots), out.Iterations(), out.Completed, string(pocketedData), string(reqData),
	)
	if err != nil {
		log.Printf("[DB] Failed to record replay: %v", err)
	}
}

// SaveTableToRedis saves the table snapshot to Redis.
func (tm *TableManager) SaveTableToRedis(t *Table) error {
	if tm.rdb == nil {
		return nil
	}

	t.mu.Lock()
	ts := tableSnapshot{
		ID:         t.ID,
		ShotNumber: t.ShotNumber,
		CreatedAt:  t.CreatedAt,
	}
	t.mu.Unlock()
	ts.Snapshot = t.State.Snapshot()

	data, err := json.Marshal(ts)
	if err != nil {
		return err
	}

	ttl := time.Hour
	if tm.config != nil && tm.config.SnapshotTTLMinutes > 0 {
		ttl = tm.config.SnapshotTTL()
	}
	return tm.rdb.SetEx(context.Background(), tableKey(t.ID), data, ttl).Err()
}

// PublishFrame publishes a frame on FramesChannel. Returns the subscriber count.
func (tm *TableManager) PublishFrame(ctx context.Context, frame FrameEvent) (int64, error) {
	if tm.rdb == nil {
		return 0, nil
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return 0, err
	}
	return tm.rdb.Publish(ctx, FramesChannel, b).Result()
}
