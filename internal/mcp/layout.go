package mcpserver

import (
	"math"

	"nestboard/internal/domain"
)

const (
	GridSize = 20.0
	Padding  = 40.0 // 2 grid cells between cards
	MaxRowW  = 1600.0
)

// LayoutEngine places cards created by agents so they don't overlap the
// cards already on the node.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// WithGrid returns a copy snapping to the given grid. Non-positive sizes keep
// the current grid.
func (le *LayoutEngine) WithGrid(size int) *LayoutEngine {
	out := *le
	if size > 0 {
		out.gridSize = float64(size)
		out.padding = 2 * out.gridSize
	}
	return &out
}

func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the first grid position, scanning rows top to bottom,
// where a card of size (newW, newH) keeps its padding from every existing card.
func (le *LayoutEngine) NextPosition(existing []domain.Element, newW, newH float64) (float64, float64) {
	if len(existing) == 0 {
		return 0, 0
	}

	occupied := make([]rect, len(existing))
	for i, e := range existing {
		occupied[i] = rect{
			x: e.X - le.padding,
			y: e.Y - le.padding,
			w: e.Width + le.padding*2,
			h: e.Height + le.padding*2,
		}
	}

	candidate := rect{w: newW, h: newH}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x+newW <= le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			free := true
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					free = false
					break
				}
			}
			if free {
				return candidate.x, candidate.y
			}
		}
	}

	// Fallback: below everything.
	maxY := 0.0
	for _, e := range existing {
		maxY = math.Max(maxY, e.Y+e.Height)
	}
	return 0, le.snap(maxY + le.padding)
}

// ArrangeGroup lays out sizes in rows starting at (startX, startY), wrapping
// at the row width. It returns one position per size.
func (le *LayoutEngine) ArrangeGroup(sizes [][2]float64, startX, startY float64) [][2]float64 {
	out := make([][2]float64, len(sizes))
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i, sz := range sizes {
		if x > le.snap(startX) && x+sz[0] > le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		out[i] = [2]float64{x, y}
		rowHeight = math.Max(rowHeight, sz[1])
		x += le.snap(sz[0] + le.padding)
	}
	return out
}
