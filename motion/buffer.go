package motion

import (
	"math"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

// A CellKind classifies the agent seen in a buffer cell relative to the observer.
type CellKind int

// Cell kinds.
const (
	Empty    CellKind = iota
	Oncoming          // walking against the observer heading
	Slower            // same way, slower than the observer would like
	Faster            // same way, at least as fast
	Static            // standing
)

func (k CellKind) String() string {
	switch k {
	case Oncoming:
		return "oncoming"
	case Slower:
		return "slower"
	case Faster:
		return "faster"
	case Static:
		return "static"
	}
	return "empty"
}

// Bearing rows of the buffer.
const (
	RowLeft = iota
	RowFront
	RowRight
	rows
)

// Bearing limits of the rows.
const (
	frontHalfAngle = math.Pi / 6
	sideAngle      = math.Pi / 2
)

// A Cell holds the nearest agent seen in a bearing/range bucket.
type Cell struct {
	Kind CellKind
	ID   int
}

// A Buffer is a short-term memory of the agents around the observer, made of
// the last frames of a grid of bearing rows and range columns, newest first.
type Buffer struct {
	depth, cols int
	span        float64 // range covered by the columns

	head  int
	cells []Cell
	near  []float64 // distance of the agent in each cell of the newest frame
}

// NewBuffer returns an empty buffer sized after conf.
func NewBuffer(conf *moplat.Config) *Buffer {
	b := &Buffer{
		depth: conf.BufferDepth,
		cols:  conf.BufferColumns,
		span:  conf.BufferRange,
	}
	b.cells = make([]Cell, b.depth*rows*b.cols)
	b.near = make([]float64, rows*b.cols)
	return b
}

// Depth returns the number of frames kept.
func (b *Buffer) Depth() int { return b.depth }

// Columns returns the number of range columns per row.
func (b *Buffer) Columns() int { return b.cols }

// Cell returns the content of a cell. Frame 0 is the newest.
func (b *Buffer) Cell(frame, row, col int) Cell {
	return b.frame(frame)[row*b.cols+col]
}

func (b *Buffer) frame(i int) []Cell {
	n := rows * b.cols
	k := (b.head + i) % b.depth
	return b.cells[k*n : (k+1)*n]
}

// Observe shifts the frames and records the neighbors of self in a new one.
func (b *Buffer) Observe(self *moplat.Agent, neighbors []*moplat.Agent) {
	b.head = (b.head + b.depth - 1) % b.depth
	f := b.frame(0)
	for i := range f {
		f[i] = Cell{ID: -1}
		b.near[i] = math.Inf(1)
	}

	h := self.Heading()
	if h.IsZero() {
		return
	}
	p := self.Position()
	for _, o := range neighbors {
		rel := o.Position().Sub(p)
		β := geom.AngleBetween(h, rel)
		var row int
		switch {
		case math.Abs(β) <= frontHalfAngle:
			row = RowFront
		case β > 0 && β <= sideAngle:
			row = RowLeft
		case β < 0 && β >= -sideAngle:
			row = RowRight
		default:
			continue
		}
		d := math.Max(rel.Len()-self.Radius()-o.Radius(), 0)
		col := int(d / b.span * float64(b.cols))
		if col >= b.cols {
			continue
		}
		i := row*b.cols + col
		if d < b.near[i] {
			b.near[i] = d
			f[i] = Cell{Kind: classify(self, o, h), ID: o.ID()}
		}
	}
}

// classify compares the motion of o with the heading h of self.
func classify(self, o *moplat.Agent, h geom.Vec2) CellKind {
	v := o.Velocity()
	along := v.Dot(h)
	switch {
	case v.Len() < 0.1*self.PreferredSpeed():
		return Static
	case along < 0:
		return Oncoming
	case along <= 0.9*self.PreferredSpeed():
		return Slower
	}
	return Faster
}

// nearest returns the closest occupied cell of a row over the frames,
// newest frame first.
func (b *Buffer) nearest(row int) (Cell, bool) {
	for i := 0; i < b.depth; i++ {
		f := b.frame(i)
		for col := 0; col < b.cols; col++ {
			if c := f[row*b.cols+col]; c.Kind != Empty {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// occupied counts the occupied cells of a row in the newest frame.
func (b *Buffer) occupied(row int) int {
	n := 0
	for _, c := range b.frame(0)[row*b.cols : (row+1)*b.cols] {
		if c.Kind != Empty {
			n++
		}
	}
	return n
}
