package game

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/redis/go-redis/v9"
)

var ErrTableNotFound = errors.New("table not found")

// Table is one live simulated table: its state, its driver and a shot counter.
type Table struct {
	ID         string
	State      *TableState
	Driver     *Driver
	ShotNumber int
	CreatedAt  time.Time
	LastShotAt time.Time
	mu         sync.Mutex
}

// TableSummary is the listing view of a table.
type TableSummary struct {
	ID             string          `json:"id"`
	Dimensions     TableDimensions `json:"dimensions"`
	ActiveBalls    int             `json:"active_balls"`
	ShotNumber     int             `json:"shot_number"`
	PhysicsRunning bool            `json:"physics_running"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableManager owns all live tables
type TableManager struct {
	tables map[string]*Table
	rdb    *redis.Client  // Redis client for snapshots and frames
	db     *sqlx.DB       // SQL DB for shot and replay records
	config *config.Config // Application config
	params Params
	mu     sync.RWMutex
}

var (
	// Global table manager instance
	Manager *TableManager
)

// InitializeManager initializes the global table manager with Redis, DB and config
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewTableManager(db, rdb, cfg)
}

// NewTableManager creates a new table manager. db and rdb may be nil.
func NewTableManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *TableManager {
	params := DefaultParams()
	if cfg != nil {
		params = ParamsFromConfig(cfg)
	}
	return &TableManager{
		tables: make(map[string]*Table),
		rdb:    rdb,
		db:     db,
		config: cfg,
		params: params,
	}
}

// DimensionsFromConfig builds the table geometry from configuration.
func DimensionsFromConfig(cfg *config.Config) TableDimensions {
	return TableDimensions{
		Width:        cfg.TableWidth,
		Height:       cfg.TableHeight,
		RailWidth:    cfg.RailWidth,
		PocketRadius: cfg.PocketRadius,
	}
}

// ParamsFromConfig builds physics parameters from configuration at the fixed time step.
func ParamsFromConfig(cfg *config.Config) Params {
	p := DefaultParams()
	p.FrictionCoefficient = cfg.FrictionCoefficient
	return p
}

// Params returns the physics parameters every table of this manager runs with.
func (tm *TableManager) Params() Params {
	return tm.params
}

// DefaultDimensions returns the configured table geometry.
func (tm *TableManager) DefaultDimensions() TableDimensions {
	if tm.config == nil {
		return StandardDimensions()
	}
	return DimensionsFromConfig(tm.config)
}

func (tm *TableManager) maxShotVelocity() float64 {
	if tm.config == nil || tm.config.MaxShotVelocity <= 0 {
		return MaxShotVelocity
	}
	return tm.config.MaxShotVelocity
}

func (tm *TableManager) maxIterations() int {
	if tm.config == nil || tm.config.ReplayMaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return tm.config.ReplayMaxIterations
}

// CreateTable racks a new table with the given dimensions
func (tm *TableManager) CreateTable(dims TableDimensions) (*Table, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if err := tm.params.Validate(); err != nil {
		return nil, err
	}

	state := NewRackedTableState(dims)
	t := &Table{
		ID:        uuid.New().String(),
		State:     state,
		Driver:    NewDriver(state, tm.params),
		CreatedAt: time.Now(),
	}

	tm.mu.Lock()
	tm.tables[t.ID] = t
	tm.mu.Unlock()

	log.Printf("[TABLE] Created table %s (%.0fx%.0f)", t.ID, dims.Width, dims.Height)

	tm.RecordTable(t)
	if err := tm.SaveTableToRedis(t); err != nil {
		log.Printf("[REDIS] Failed to save table %s: %v", t.ID, err)
	}
	return t, nil
}

// GetTable retrieves a table by ID, restoring it from its Redis snapshot if needed
func (tm *TableManager) GetTable(id string) (*Table, error) {
	tm.mu.RLock()
	t, exists := tm.tables[id]
	tm.mu.RUnlock()
	if exists {
		return t, nil
	}

	t, err := tm.loadTableFromRedis(id)
	if err != nil {
		return nil, ErrTableNotFound
	}

	log.Printf("[TABLE] Restored table %s from Redis", id)
	tm.mu.Lock()
	if existing, ok := tm.tables[id]; ok {
		t = existing
	} else {
		tm.tables[id] = t
	}
	tm.mu.Unlock()
	return t, nil
}

// DeleteTable stops and removes a table
func (tm *TableManager) DeleteTable(id string) error {
	tm.mu.Lock()
	t, exists := tm.tables[id]
	if exists {
		delete(tm.tables, id)
	}
	tm.mu.Unlock()

	if !exists {
		return ErrTableNotFound
	}
	t.Driver.Stop()

	if tm.rdb != nil {
		if err := tm.rdb.Del(context.Background(), tableKey(id)).Err(); err != nil {
			log.Printf("[REDIS] Failed to delete snapshot for %s: %v", id, err)
		}
	}
	if tm.db != nil {
		if _, err := tm.db.Exec(`UPDATE tables SET deleted_at=NOW() WHERE id=$1`, id); err != nil {
			log.Printf("[DB] Failed to mark table %s deleted: %v", id, err)
		}
	}
	log.Printf("[TABLE] Deleted table %s", id)
	return nil
}

// ListTables returns a summary of every live table, oldest first
func (tm *TableManager) ListTables() []TableSummary {
	tm.mu.RLock()
	tables := make([]*Table, 0, len(tm.tables))
	for _, t := range tm.tables {
		tables = append(tables, t)
	}
	tm.mu.RUnlock()

	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ActiveTableCount returns the number of live tables
func (tm *TableManager) ActiveTableCount() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.tables)
}

// RunningTables returns the tables whose driver is consuming time
func (tm *TableManager) RunningTables() []*Table {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	var out []*Table
	for _, t := range tm.tables {
		if t.Driver.Running() {
			out = append(out, t)
		}
	}
	return out
}

// TakeShot clamps and applies a shot to a live table, then records it. Returns the shot number.
func (tm *TableManager) TakeShot(id string, action ShotAction) (int, error) {
	t, err := tm.GetTable(id)
	if err != nil {
		return 0, err
	}
	action.Velocity = ClampShotVelocity(action.Velocity, tm.maxShotVelocity())

	n, err := t.TakeShot(action)
	if err != nil {
		return 0, err
	}
	log.Printf("[TABLE] Shot %d on %s: ball=%d v=(%.1f, %.1f)", n, id, action.BallID, action.Velocity.X, action.Velocity.Y)

	go tm.RecordShot(id, n, action)
	return n, nil
}

// Rack resets a table to the standard rack. Refused while balls are moving.
func (tm *TableManager) Rack(id string) (*Table, error) {
	t, err := tm.GetTable(id)
	if err != nil {
		return nil, err
	}
	if err := t.Rack(); err != nil {
		return nil, err
	}
	if err := tm.SaveTableToRedis(t); err != nil {
		log.Printf("[REDIS] Failed to save table %s: %v", id, err)
	}
	return t, nil
}

// Replay runs a batch replay with the manager's physics and records its summary
func (tm *TableManager) Replay(req ReplayRequest) (ReplayOutcome, error) {
	if req.MaxIterations <= 0 || req.MaxIterations > tm.maxIterations() {
		req.MaxIterations = tm.maxIterations()
	}
	if req.Dimensions == nil {
		dims := tm.DefaultDimensions()
		req.Dimensions = &dims
	}
	req.MaxShotSpeed = tm.maxShotVelocity()

	out, err := ReplayShots(req, tm.params)
	if err != nil {
		return out, err
	}
	if !out.Completed {
		log.Printf("[SIM] Replay truncated after %d shots (%d iterations)", len(out.Shots), out.Iterations())
	}
	go tm.RecordReplay(req, out)
	return out, nil
}

// TakeShot validates and applies a shot and starts the driver.
func (t *Table) TakeShot(action ShotAction) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ApplyShot(t.State, t.Driver, action); err != nil {
		return 0, err
	}
	t.ShotNumber++
	t.LastShotAt = time.Now()
	return t.ShotNumber, nil
}

// Rack resets the balls to the standard rack.
func (t *Table) Rack() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ApplyRack(t.State, t.Driver)
}

// Summary returns the listing view of the table.
func (t *Table) Summary() TableSummary {
	snap := t.State.Snapshot()
	t.mu.Lock()
	shots := t.ShotNumber
	t.mu.Unlock()
	return TableSummary{
		ID:             t.ID,
		Dimensions:     snap.Dimensions,
		ActiveBalls:    len(snap.ActiveBalls()),
		ShotNumber:     shots,
		PhysicsRunning: snap.PhysicsRunning,
		CreatedAt:      t.CreatedAt,
	}
}

// tableSnapshot is the Redis representation of a table
type tableSnapshot struct {
	ID         string    `json:"id"`
	ShotNumber int       `json:"shot_number"`
	CreatedAt  time.Time `json:"created_at"`
	Snapshot   Snapshot  `json:"snapshot"`
}

func tableKey(id string) string {
	return "table:" + id + ":state"
}

// loadTableFromRedis rebuilds a table from its last saved snapshot. A snapshot taken
// mid-shot keeps its velocities but the driver is restarted explicitly.
func (tm *TableManager) loadTableFromRedis(id string) (*Table, error) {
	if tm.rdb == nil {
		return nil, errors.New("no redis client")
	}

	data, err := tm.rdb.Get(context.Background(), tableKey(id)).Result()
	if err == redis.Nil {
		return nil, errors.New("table not found in redis")
	}
	if err != nil {
		return nil, err
	}

	var ts tableSnapshot
	if err := json.Unmarshal([]byte(data), &ts); err != nil {
		return nil, err
	}

	state := NewTableState(ts.Snapshot.Dimensions)
	for _, b := range ts.Snapshot.Balls {
		state.AddBall(b.Ball, b.Kind)
	}
	t := &Table{
		ID:         ts.ID,
		State:      state,
		Driver:     NewDriver(state, tm.params),
		ShotNumber: ts.ShotNumber,
		CreatedAt:  ts.CreatedAt,
	}
	if AnyActiveMotion(state.Snapshot().PhysicsBalls()) {
		t.Driver.NotifyMotionStarted()
	}
	return t, nil
}
