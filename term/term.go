// Package term shows a running simulation in a terminal.
package term

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

// Config holds the parameters of the terminal driver.
type Config struct {
	Step       func()        // go to next step
	Delay      time.Duration // between two steps when running
	ForcePause bool          // step manually only?

	// bounds of the area shown
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Run runs an interactive simulation in the terminal.
//
// Keys: space pauses, right arrow or n steps once, tab cycles the focal
// agent and q or escape quits.
func Run(s *moplat.Simulation, conf *Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "term")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "term")
	}
	defer screen.Fini()

	delay := conf.Delay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	min, max := geom.Vec2{X: conf.Xmin, Y: conf.Ymin}, geom.Vec2{X: conf.Xmax, Y: conf.Ymax}
	pause := conf.ForcePause
	focal := -1
	draw := func() {
		w, h := screen.Size()
		c := newCanvas(w, h-1, min, max)
		c.paint(s, focal)
		screen.Clear()
		for y := 0; y < c.h; y++ {
			for x := 0; x < c.w; x++ {
				i := y*c.w + x
				screen.SetContent(x, y, c.cells[i], nil, c.styles[i])
			}
		}
		status := fmt.Sprintf("tick %d  alive %d  %s", s.Tick(), alive(s), focusLine(s, focal))
		if pause {
			status += "  [paused]"
		}
		for x, r := range status {
			if x >= w {
				break
			}
			screen.SetContent(x, h-1, r, nil, tcell.StyleDefault.Reverse(true))
		}
		screen.Show()
	}

	draw()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q'):
					return nil
				case ev.Key() == tcell.KeyRune && ev.Rune() == ' ' && !conf.ForcePause:
					pause = !pause
				case ev.Key() == tcell.KeyRight || (ev.Key() == tcell.KeyRune && ev.Rune() == 'n'):
					if pause {
						conf.Step()
					}
				case ev.Key() == tcell.KeyTab:
					n := len(s.Agents)
					focal = (n+focal+2)%(n+1) - 1
				case ev.Key() == tcell.KeyBacktab:
					n := len(s.Agents)
					focal = (n+focal)%(n+1) - 1
				}
			case *tcell.EventResize:
				screen.Sync()
			}
			draw()
		case <-ticker.C:
			if !pause {
				conf.Step()
				draw()
			}
		}
	}
}

func alive(s *moplat.Simulation) int {
	var n int
	for _, a := range s.Agents {
		if a.Alive() {
			n++
		}
	}
	return n
}

// focusLine describes the focal agent.
func focusLine(s *moplat.Simulation, focal int) string {
	a := s.Agent(focal)
	if a == nil {
		return ""
	}
	line := fmt.Sprintf("agent %d  speed %.2f  percepts %d", a.ID(), a.Velocity().Len(), len(a.Percepts()))
	if r, ok := a.Calculator().(moplat.StrategyReporter); ok {
		line += "  " + r.Decision().String()
	}
	return line
}

// A canvas is a character grid covering a rectangle of the world.
// Row 0 is the top of the world.
type canvas struct {
	w, h     int
	min, max geom.Vec2
	cells    []rune
	styles   []tcell.Style
}

func newCanvas(w, h int, min, max geom.Vec2) *canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &canvas{w: w, h: h, min: min, max: max, cells: make([]rune, w*h), styles: make([]tcell.Style, w*h)}
	for i := range c.cells {
		c.cells[i] = ' '
		c.styles[i] = tcell.StyleDefault
	}
	return c
}

// cell returns the grid coordinates of p.
func (c *canvas) cell(p geom.Vec2) (x, y int, ok bool) {
	fx := (p.X - c.min.X) / (c.max.X - c.min.X)
	fy := (c.max.Y - p.Y) / (c.max.Y - c.min.Y)
	x, y = int(math.Floor(fx*float64(c.w))), int(math.Floor(fy*float64(c.h)))
	return x, y, x >= 0 && x < c.w && y >= 0 && y < c.h
}

func (c *canvas) set(p geom.Vec2, r rune, st tcell.Style) {
	if x, y, ok := c.cell(p); ok {
		c.cells[y*c.w+x] = r
		c.styles[y*c.w+x] = st
	}
}

func (c *canvas) at(x, y int) rune { return c.cells[y*c.w+x] }

// paint draws obstacles, then the focal waypoint, then agents.
func (c *canvas) paint(s *moplat.Simulation, focal int) {
	if c.w == 0 || c.h == 0 {
		return
	}
	wall := tcell.StyleDefault.Foreground(tcell.ColorGray)
	step := 0.5 * math.Min((c.max.X-c.min.X)/float64(c.w), (c.max.Y-c.min.Y)/float64(c.h))
	for _, o := range s.Space.Obstacles() {
		for i := range o.Vertices {
			e := o.Vertices[i].Edge()
			n := int(e[0].Dist(e[1])/step) + 1
			for k := 0; k <= n; k++ {
				c.set(e.Point(float64(k)/float64(n)), '#', wall)
			}
		}
	}
	if a := s.Agent(focal); a != nil {
		if w, ok := a.ActiveWaypoint(); ok {
			c.set(w, '+', tcell.StyleDefault.Foreground(tcell.ColorFuchsia))
		}
	}
	for _, a := range s.Agents {
		st := tcell.StyleDefault.Foreground(commitmentColor(a.Commitment()))
		r := glyph(a.Velocity())
		switch {
		case !a.Alive():
			r, st = 'x', wall
		case a.ID() == focal:
			st = st.Reverse(true)
		}
		c.set(a.Position(), r, st)
	}
}

// glyph returns an arrow showing the direction of v.
func glyph(v geom.Vec2) rune {
	if v.IsZero() {
		return 'o'
	}
	const arrows = ">^<v"
	k := int(math.Floor(v.Angle()/(math.Pi/2)+0.5)) & 3
	return rune(arrows[k])
}

func commitmentColor(l moplat.CommitmentLevel) tcell.Color {
	switch l {
	case moplat.LowCommitment:
		return tcell.ColorGreen
	case moplat.HighCommitment:
		return tcell.ColorRed
	}
	return tcell.ColorYellow
}
