package display

import (
	"sync"

	"github.com/playmatatu/tablesim/internal/game"
)

// Orientation is the screen orientation branch chosen for a layout.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// DefaultPadding is the screen margin around the table, in pixels.
const DefaultPadding = 40.0

// inputs is the full tuple a layout is derived from.
type inputs struct {
	screenWidth  float64
	screenHeight float64
	dims         game.TableDimensions
	padding      float64
}

// Layout is one consistent set of derived fields. All fields come from the same inputs.
type Layout struct {
	Orientation Orientation `json:"orientation"`
	Scale       float64     `json:"scale"`
	Translation game.Vec2   `json:"translation"`
	Forward     Matrix2D    `json:"forward"`
	Inverse     Matrix2D    `json:"inverse"`

	key inputs
}

// Transform maps table coordinates (origin at the playing-surface top-left) to screen pixels
// and back. The derived layout is cached and keyed by its inputs, so a change to any input
// replaces every cached field at once on the next read.
type Transform struct {
	in    inputs
	cache *Layout
	mu    sync.Mutex
}

// NewTransform creates a transform for a screen size, table and padding.
func NewTransform(screenWidth, screenHeight float64, dims game.TableDimensions, padding float64) *Transform {
	return &Transform{
		in: inputs{
			screenWidth:  screenWidth,
			screenHeight: screenHeight,
			dims:         dims,
			padding:      padding,
		},
	}
}

// UpdateScreenSize changes the screen size and invalidates the cached layout.
func (t *Transform) UpdateScreenSize(width, height float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in.screenWidth = width
	t.in.screenHeight = height
	t.cache = nil
}

// UpdateTableDimensions changes the table and invalidates the cached layout.
func (t *Transform) UpdateTableDimensions(dims game.TableDimensions) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in.dims = dims
	t.cache = nil
}

// UpdatePadding changes the padding and invalidates the cached layout.
func (t *Transform) UpdatePadding(padding float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in.padding = padding
	t.cache = nil
}

// Layout returns the current derived layout, recomputing it if the inputs changed.
func (t *Transform) Layout() Layout {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cache == nil || t.cache.key != t.in {
		l := computeLayout(t.in)
		t.cache = &l
	}
	return *t.cache
}

func (t *Transform) Scale() float64 {
	return t.Layout().Scale
}

func (t *Transform) Translation() game.Vec2 {
	return t.Layout().Translation
}

func (t *Transform) Orientation() Orientation {
	return t.Layout().Orientation
}

// Matrix returns the table-to-screen matrix.
func (t *Transform) Matrix() Matrix2D {
	return t.Layout().Forward
}

// InverseMatrix returns the screen-to-table matrix.
func (t *Transform) InverseMatrix() Matrix2D {
	return t.Layout().Inverse
}

// Dimensions returns the table the transform is laid out for.
func (t *Transform) Dimensions() game.TableDimensions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.in.dims
}

// ScreenSize returns the current screen size.
func (t *Transform) ScreenSize() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.in.screenWidth, t.in.screenHeight
}

func (t *Transform) TableToScreen(x, y float64) (float64, float64) {
	return t.Layout().Forward.TransformPoint(x, y)
}

func (t *Transform) ScreenToTable(x, y float64) (float64, float64) {
	return t.Layout().Inverse.TransformPoint(x, y)
}

// IsOnPlayingSurface reports whether a table point is on the felt.
func (t *Transform) IsOnPlayingSurface(x, y float64) bool {
	return t.Dimensions().IsOnPlayingSurface(game.NewVec2(x, y))
}

// IsOnTable reports whether a table point is on the felt or the rails.
func (t *Transform) IsOnTable(x, y float64) bool {
	return t.Dimensions().IsOnTable(game.NewVec2(x, y))
}

// computeLayout is pure. Landscape (ties included) scales the rail-inclusive footprint to
// fit; portrait swaps the footprint axes and rotates the table -90 degrees so the long
// axis runs vertically.
func computeLayout(in inputs) Layout {
	rw := in.dims.RailWidth
	totalWidth := in.dims.Width + 2*rw
	totalHeight := in.dims.Height + 2*rw
	availW := in.screenWidth - 2*in.padding
	availH := in.screenHeight - 2*in.padding

	l := Layout{key: in}

	if in.screenWidth >= in.screenHeight {
		l.Orientation = Landscape
		l.Scale = min(availW/totalWidth, availH/totalHeight)
		l.Translation = game.NewVec2(
			(in.screenWidth-totalWidth*l.Scale)/2,
			(in.screenHeight-totalHeight*l.Scale)/2,
		)
		l.Forward = Compose(
			Translate(l.Translation.X, l.Translation.Y),
			Scale(l.Scale, l.Scale),
			Translate(rw, rw),
		)
	} else {
		l.Orientation = Portrait
		l.Scale = min(availW/totalHeight, availH/totalWidth)
		l.Translation = game.NewVec2(
			(in.screenWidth-totalHeight*l.Scale)/2,
			(in.screenHeight-totalWidth*l.Scale)/2,
		)
		l.Forward = Compose(
			Translate(l.Translation.X, l.Translation.Y+totalWidth*l.Scale),
			RotateDegrees(-90),
			Scale(l.Scale, l.Scale),
			Translate(rw, rw),
		)
	}
	l.Inverse = l.Forward.Invert()
	return l
}
