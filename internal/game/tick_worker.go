package game

import (
	"context"
	"log"
	"time"

	"github.com/playmatatu/tablesim/internal/config"
)

// FrameSink receives frames produced by the tick worker, in addition to Redis.
type FrameSink func(frame FrameEvent)

// StartTickWorker drives every running table from one frame ticker until ctx is done.
// Measured elapsed time is fed to each driver; a frame is published after every advance
// that ran at least one tick, and the snapshot is saved when a table settles.
func StartTickWorker(ctx context.Context, tm *TableManager, cfg *config.Config, sink FrameSink) {
	if tm == nil {
		log.Println("[TICK] Table manager missing; tick worker not started")
		return
	}
	interval := time.Second / 60
	if cfg != nil {
		interval = cfg.FrameInterval()
	}

	log.Printf("[TICK] Tick worker started (frame every %v)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Println("[TICK] Tick worker stopping")
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			for _, t := range tm.RunningTables() {
				tm.advanceTable(ctx, t, elapsed, sink)
			}
		}
	}
}

// advanceTable runs one frame for one table. Returns true when the table settled.
func (tm *TableManager) advanceTable(ctx context.Context, t *Table, elapsed float64, sink FrameSink) bool {
	if t.Driver.Advance(elapsed) == 0 {
		return false
	}
	settled := !t.Driver.Running()
	frame := NewFrameEvent(t.ID, t.Driver.Ticks(), t.State.Snapshot(), t.Driver.DrainEvents(), settled)

	if sink != nil {
		sink(frame)
	}
	if _, err := tm.PublishFrame(ctx, frame); err != nil {
		log.Printf("[REDIS] publish frame failed: table=%s err=%v", t.ID, err)
	}

	if settled {
		log.Printf("[TICK] Table %s settled at tick %d", t.ID, frame.Tick)
		if err := tm.SaveTableToRedis(t); err != nil {
			log.Printf("[REDIS] Failed to save table %s: %v", t.ID, err)
		}
	}
	return settled
}
