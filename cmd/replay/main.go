package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/game"
)

// shotList collects repeated -shot ball:vx:vy flags
type shotList []game.ShotAction

func (s *shotList) String() string { return fmt.Sprint(len(*s)) }

func (s *shotList) Set(raw string) error {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return fmt.Errorf("shot %q: want ball:vx:vy", raw)
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("shot %q: bad ball id: %w", raw, err)
	}
	vx, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return fmt.Errorf("shot %q: bad vx: %w", raw, err)
	}
	vy, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return fmt.Errorf("shot %q: bad vy: %w", raw, err)
	}
	*s = append(*s, game.ShotAction{BallID: id, Velocity: game.NewVec2(vx, vy)})
	return nil
}

func main() {
	var shots shotList
	in := flag.String("in", "", "replay request JSON file (- for stdin)")
	maxIter := flag.Int("max-iterations", 0, "tick budget per shot (default REPLAY_MAX_ITERATIONS)")
	flag.Var(&shots, "shot", "shot as ball:vx:vy, repeatable")
	flag.Parse()

	cfg := config.Load()

	var req game.ReplayRequest
	if *in != "" {
		data, err := readInput(*in)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *in, err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			log.Fatalf("Invalid replay request: %v", err)
		}
	}
	req.Shots = append(req.Shots, shots...)
	if len(req.Shots) == 0 {
		log.Fatal("No shots given; use -in or -shot")
	}

	if req.Dimensions == nil {
		dims := game.DimensionsFromConfig(cfg)
		req.Dimensions = &dims
	}
	req.MaxIterations = cfg.ReplayMaxIterations
	if *maxIter > 0 {
		req.MaxIterations = *maxIter
	}
	req.MaxShotSpeed = cfg.MaxShotVelocity

	out, err := game.ReplayShots(req, game.ParamsFromConfig(cfg))
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
	if !out.Completed {
		log.Printf("Replay truncated after %d shots (%d iterations)", len(out.Shots), out.Iterations())
		os.Exit(2)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
