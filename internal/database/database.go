package database

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect establishes a connection to PostgreSQL
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// ConnectOptional connects when a URL is configured. The simulator keeps running without
// persistence when the database is unreachable.
func ConnectOptional(databaseURL string) *sqlx.DB {
	if databaseURL == "" {
		log.Println("[DB] DATABASE_URL empty; shots and replays will not be recorded")
		return nil
	}
	db, err := Connect(databaseURL)
	if err != nil {
		log.Printf("[DB] Database unavailable, continuing without persistence: %v", err)
		return nil
	}
	return db
}
