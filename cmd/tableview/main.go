package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/display"
	"github.com/playmatatu/tablesim/internal/game"
)

var (
	styleFelt   = tcell.StyleDefault.Background(tcell.ColorDarkGreen)
	styleRail   = tcell.StyleDefault.Background(tcell.ColorSaddleBrown)
	stylePocket = tcell.StyleDefault.Background(tcell.ColorBlack)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// Viewer renders one local table in the terminal. A cell is treated as cellAspect pixels
// tall and one pixel wide, so the table keeps its proportions.
type Viewer struct {
	screen     tcell.Screen
	state      *game.TableState
	driver     *game.Driver
	transform  *display.Transform
	cellAspect float64
	power      float64
	maxSpeed   float64

	dragging  bool
	dragFromX float64
	dragFromY float64
	dragBall  int
	status    string
	mu        sync.Mutex
}

func NewViewer(cfg *config.Config, cellAspect, power float64) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	dims := game.DimensionsFromConfig(cfg)
	state := game.NewRackedTableState(dims)
	v := &Viewer{
		screen:     screen,
		state:      state,
		driver:     game.NewDriver(state, game.ParamsFromConfig(cfg)),
		cellAspect: cellAspect,
		power:      power,
		maxSpeed:   cfg.MaxShotVelocity,
		status:     "drag from a ball to shoot, r to rack, q to quit",
	}
	w, h := screen.Size()
	v.transform = display.NewTransform(float64(w), float64(h-1)*cellAspect, dims, 2)
	return v, nil
}

// cellToScreen returns the pixel at the centre of a cell
func (v *Viewer) cellToScreen(cx, cy int) (float64, float64) {
	return float64(cx) + 0.5, (float64(cy) + 0.5) * v.cellAspect
}

func (v *Viewer) screenToCell(x, y float64) (int, int) {
	return int(math.Floor(x)), int(math.Floor(y / v.cellAspect))
}

func (v *Viewer) draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := v.state.Snapshot()
	v.screen.Clear()
	w, h := v.screen.Size()
	for cy := 0; cy < h-1; cy++ {
		for cx := 0; cx < w; cx++ {
			x, y := v.transform.ScreenToTable(v.cellToScreen(cx, cy))
			switch {
			case v.transform.IsOnPlayingSurface(x, y):
				v.screen.SetContent(cx, cy, ' ', nil, styleFelt)
			case v.transform.IsOnTable(x, y):
				v.screen.SetContent(cx, cy, ' ', nil, styleRail)
			}
		}
	}

	for _, p := range snap.Pockets {
		cx, cy := v.screenToCell(v.transform.TableToScreen(p.Center.X, p.Center.Y))
		v.screen.SetContent(cx, cy, 'O', nil, stylePocket.Foreground(tcell.ColorGray))
	}
	for _, b := range snap.ActiveBalls() {
		cx, cy := v.screenToCell(v.transform.TableToScreen(b.Position.X, b.Position.Y))
		v.screen.SetContent(cx, cy, ballRune(b), nil, styleFelt.Foreground(ballColor(b.Kind)))
	}

	line := fmt.Sprintf(" %s | %s | tick %d | %d on table ", v.transform.Orientation(), v.status, v.driver.Ticks(), len(snap.ActiveBalls()))
	for i, r := range line {
		v.screen.SetContent(i, h-1, r, nil, styleStatus)
	}
	v.screen.Show()
}

func ballRune(b game.BallSnapshot) rune {
	switch {
	case b.Kind == game.KindCue:
		return '●'
	case b.ID < 10:
		return rune('0' + b.ID)
	default:
		return rune('a' + b.ID - 10)
	}
}

func ballColor(kind game.BallKind) tcell.Color {
	switch kind {
	case game.KindCue:
		return tcell.ColorWhite
	case game.KindEight:
		return tcell.ColorBlack
	case game.KindSolid:
		return tcell.ColorYellow
	default:
		return tcell.ColorRed
	}
}

func (v *Viewer) resize() {
	v.mu.Lock()
	w, h := v.screen.Size()
	v.transform.UpdateScreenSize(float64(w), float64(h-1)*v.cellAspect)
	v.mu.Unlock()
	v.screen.Sync()
}

func (v *Viewer) setStatus(s string) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	cx, cy := ev.Position()
	x, y := v.cellToScreen(cx, cy)

	if ev.Buttons()&tcell.Button1 != 0 {
		if v.dragging {
			return
		}
		hit := display.HitTestScreen(v.transform, v.state.Snapshot(), x, y)
		v.dragging = true
		v.dragFromX, v.dragFromY = x, y
		v.dragBall = hit.NearestID
		if v.dragBall < 0 {
			v.dragBall = 0
		}
		return
	}
	if !v.dragging {
		return
	}
	v.dragging = false

	vel := display.ShotFromScreenDrag(v.transform, v.dragFromX, v.dragFromY, x, y, v.power, v.maxSpeed)
	err := game.ApplyShot(v.state, v.driver, game.ShotAction{BallID: v.dragBall, Velocity: vel})
	if err != nil {
		v.setStatus(err.Error())
		return
	}
	v.setStatus(fmt.Sprintf("ball %d shot at %.0f units/s", v.dragBall, vel.Magnitude()))
}

func (v *Viewer) rack() {
	if err := game.ApplyRack(v.state, v.driver); err != nil {
		v.setStatus(err.Error())
		return
	}
	v.setStatus("racked")
}

// Run polls terminal events until q or Esc. The driver runs on its own goroutine and
// redraws after every frame.
func (v *Viewer) Run(ctx context.Context, cfg *config.Config) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go v.driver.RunRealtime(ctx, cfg.FrameInterval(), func(game.Snapshot, bool) { v.draw() })

	v.draw()
	for {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			v.resize()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return
			}
			if ev.Rune() == 'r' {
				v.rack()
			}
		case *tcell.EventMouse:
			v.handleMouse(ev)
		}
		v.draw()
	}
}

func main() {
	aspect := flag.Float64("cell-aspect", 2, "terminal cell height in cell widths")
	power := flag.Float64("power", 3, "shot speed per table unit of drag")
	flag.Parse()

	cfg := config.Load()
	v, err := NewViewer(cfg, *aspect, *power)
	if err != nil {
		log.Printf("Failed to open terminal: %v", err)
		os.Exit(1)
	}
	defer v.screen.Fini()

	v.Run(context.Background(), cfg)
}
