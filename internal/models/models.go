package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// TableRecord is a simulated table as persisted when it is created
type TableRecord struct {
	ID           string       `db:"id" json:"id"`
	Width        float64      `db:"width" json:"width"`
	Height       float64      `db:"height" json:"height"`
	RailWidth    float64      `db:"rail_width" json:"rail_width"`
	PocketRadius float64      `db:"pocket_radius" json:"pocket_radius"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	DeletedAt    sql.NullTime `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ShotRecord is one shot taken on a table
type ShotRecord struct {
	ID         int       `db:"id" json:"id"`
	TableID    string    `db:"table_id" json:"table_id"`
	ShotNumber int       `db:"shot_number" json:"shot_number"`
	BallID     int       `db:"ball_id" json:"ball_id"`
	VelocityX  float64   `db:"velocity_x" json:"velocity_x"`
	VelocityY  float64   `db:"velocity_y" json:"velocity_y"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ReplayRecord is the summary of a batch replay run
type ReplayRecord struct {
	ID            int       `db:"id" json:"id"`
	ShotCount     int       `db:"shot_count" json:"shot_count"`
	Iterations    int       `db:"iterations" json:"iterations"`
	Completed     bool      `db:"completed" json:"completed"`
	PocketedBalls string    `db:"pocketed_balls" json:"pocketed_balls"` // JSON array
	Request       string    `db:"request" json:"request"`               // JSONB
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Operator is an admin account that can manage tables
type Operator struct {
	ID         int            `db:"id" json:"id"`
	Username   string         `db:"username" json:"username"`
	TokenHash  string         `db:"token_hash" json:"-"`
	Roles      pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	LastLogin  sql.NullTime   `db:"last_login" json:"last_login,omitempty"`
}

// OperatorAudit records an admin action
type OperatorAudit struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	IP        string    `db:"ip" json:"ip"`
	Route     string    `db:"route" json:"route"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	Success   bool      `db:"success" json:"success"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
