//go:build !nogl
// +build !nogl

// Package opengl shows a running simulation in an interactive OpenGL window.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.1/glfw"
	"github.com/pkg/errors"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

// Config holds the parameters of the OpenGL driver.
type Config struct {
	MaxAgents  int    // maximum number of agents
	Step       func() // go to next step
	ForcePause bool   // step manually only?

	// bounds of default viewport
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Run runs an interactive simulation in an OpenGL window.
//
// Keys: space pauses, right arrow steps once, tab cycles the focal agent
// whose perception, waypoint and avoidance lines are drawn, r resets
// the zoom and escape quits.
func Run(s *moplat.Simulation, conf *Config) error {
	// init GLFW and OpenGL
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "opengl")
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Samples, 4)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	// create OpenGL window
	const (
		title  = "MoPlaT"
		width  = 800
		height = 800
	)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return errors.Wrap(err, "opengl")
	}
	w.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return errors.Wrap(err, "opengl")
	}

	// set background color and enable alpha blending
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	w.SwapBuffers()

	// initialize OpenGL objects
	d, err := newDisplay(conf.MaxAgents)
	if err != nil {
		return err
	}

	// handle scrolling zoom
	reset := viewport{{float32(conf.Xmin), float32(conf.Ymin)}, {float32(conf.Xmax), float32(conf.Ymax)}}
	vp := reset
	focal := -1 // id of the agent whose view is displayed
	w.SetScrollCallback(func(w *glfw.Window, xo, yo float64) {
		xc, yc := w.GetCursorPos()
		xs, ys := w.GetSize()
		x, y := float32(xc)/float32(xs), (float32(ys)-float32(yc))/float32(ys)
		dx, dy := vp[1].X-vp[0].X, vp[1].Y-vp[0].Y
		z := 0.05 * float32(yo)
		vp[0].X += z * -(x * dx)
		vp[0].Y += z * -(y * dy)
		vp[1].X += z * (1 - x) * dx
		vp[1].Y += z * (1 - y) * dy
		d.draw(s, focal, vp)
		w.SwapBuffers()
	})

	var quit, step bool
	pause := conf.ForcePause
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, mod glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			quit = true
		}
		if key == glfw.KeySpace && action == glfw.Press && !conf.ForcePause {
			pause = !pause
		}
		if key == glfw.KeyRight && (action == glfw.Press || action == glfw.Repeat) {
			if pause {
				pause = false
				step = true
			}
		}
		if key == glfw.KeyTab && action == glfw.Press {
			// cycle through agents, then disable (focal = -1)
			n := len(s.Agents)
			if mod == glfw.ModShift {
				focal--
			} else {
				focal++
			}
			focal = (n+focal+2)%(n+1) - 1
		}
		if key == glfw.KeyR && action == glfw.Press {
			vp = reset
			d.draw(s, focal, vp)
			w.SwapBuffers()
		}
	})

	for !(quit || w.ShouldClose()) {
		if step {
			pause = true
			step = false
			conf.Step()
		}
		if !pause {
			conf.Step()
		}
		d.draw(s, focal, vp)
		w.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

// A viewport is a rectangle delimiting the area of simulation space shown on screen.
// The first point is the bottom left corner, the second point is the top right corner.
type viewport [2]struct{ X, Y float32 }

// A disc is the per-agent vertex sent to the disc program.
type disc struct {
	Pos    [2]float32
	Vel    [2]float32
	Radius float32
	Color  [4]float32
}

// A vertex is an end of a line sent to the line program.
type vertex struct {
	Pos   [2]float32
	Color [4]float32
}

// maxLines bounds the number of line vertices drawn per frame.
const maxLines = 1 << 14

// Colors.
var (
	white   = [4]float32{1, 1, 1, 1}
	grey    = [4]float32{0.5, 0.5, 0.5, 0.3}
	cyan    = [4]float32{0, 0.8, 0.8, 0.8}
	orange  = [4]float32{1, 0.6, 0.1, 0.8}
	magenta = [4]float32{0.9, 0.2, 0.9, 0.9}
)

// color returns the fill color of an agent.
func color(a *moplat.Agent, focal bool) [4]float32 {
	switch {
	case !a.Alive():
		return grey
	case focal:
		return white
	}
	switch a.Commitment() {
	case moplat.LowCommitment:
		return [4]float32{0.3, 0.8, 0.3, 0.9}
	case moplat.HighCommitment:
		return [4]float32{0.9, 0.3, 0.3, 0.9}
	}
	return [4]float32{0.9, 0.8, 0.2, 0.9}
}

// display contains all the OpenGL objects required to display the simulation.
type display struct {
	prog struct {
		disc uint32
		line uint32
	}
	vao struct {
		disc uint32
		line uint32
	}
	buf struct {
		disc uint32
		line uint32
	}
	uni struct {
		discVP int32 // viewport of the disc program
		lineVP int32 // viewport of the line program
	}

	maxAgents int
	discs     []disc
	lines     []vertex
}

// draw updates the OpenGL buffers and draws the world on screen.
func (d *display) draw(s *moplat.Simulation, focal int, vp viewport) {
	d.updateViewport(vp)
	d.updateDiscs(s, focal)
	d.updateLines(s, focal)

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(d.prog.line)
	gl.BindVertexArray(d.vao.line)
	gl.DrawArrays(gl.LINES, 0, int32(len(d.lines)))
	gl.UseProgram(d.prog.disc)
	gl.BindVertexArray(d.vao.disc)
	gl.DrawArrays(gl.POINTS, 0, int32(len(d.discs)))
}

// updateViewport sends the new viewport to OpenGL.
func (d *display) updateViewport(vp viewport) {
	gl.UseProgram(d.prog.disc)
	gl.Uniform2fv(d.uni.discVP, 2, &vp[0].X)
	gl.UseProgram(d.prog.line)
	gl.Uniform2fv(d.uni.lineVP, 2, &vp[0].X)
}

// updateDiscs updates the OpenGL buffer containing agent states.
func (d *display) updateDiscs(s *moplat.Simulation, focal int) {
	d.discs = d.discs[:0]
	for _, a := range s.Agents {
		if len(d.discs) == d.maxAgents {
			break
		}
		d.discs = append(d.discs, disc{
			Pos:    f32(a.Position()),
			Vel:    f32(a.Velocity()),
			Radius: float32(a.Radius()),
			Color:  color(a, a.ID() == focal),
		})
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.disc)
	const n = unsafe.Sizeof(disc{})
	q := (uintptr)(gl.MapBuffer(gl.ARRAY_BUFFER, gl.WRITE_ONLY))
	if q != 0 {
		for i, v := range d.discs {
			*(*disc)(unsafe.Pointer(q + uintptr(i)*n)) = v
		}
		gl.UnmapBuffer(gl.ARRAY_BUFFER)
	}
}

// updateLines updates the OpenGL buffer containing obstacle edges
// and the view of the focal agent: its percepts, its active waypoint
// and the avoidance lines of its calculator drawn around its position.
func (d *display) updateLines(s *moplat.Simulation, focal int) {
	d.lines = d.lines[:0]
	for _, o := range s.Space.Obstacles() {
		for i := range o.Vertices {
			e := o.Vertices[i].Edge()
			d.segment(e[0], e[1], white)
		}
	}
	if a := s.Agent(focal); a != nil {
		p := a.Position()
		for _, q := range a.Percepts() {
			d.segment(p, q.Agent.Position(), orange)
		}
		if w, ok := a.ActiveWaypoint(); ok {
			d.segment(p, w, magenta)
		}
		if r, ok := a.Calculator().(moplat.ConstraintReporter); ok {
			const half = 100
			for _, l := range r.Lines() {
				c := p.Add(l.Point)
				d.segment(c.Sub(l.Direction.Scale(half)), c.Add(l.Direction.Scale(half)), cyan)
			}
		}
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.line)
	const n = unsafe.Sizeof(vertex{})
	q := (uintptr)(gl.MapBuffer(gl.ARRAY_BUFFER, gl.WRITE_ONLY))
	if q != 0 {
		for i, v := range d.lines {
			*(*vertex)(unsafe.Pointer(q + uintptr(i)*n)) = v
		}
		gl.UnmapBuffer(gl.ARRAY_BUFFER)
	}
}

// segment queues a line from a to b unless the buffer is full.
func (d *display) segment(a, b geom.Vec2, c [4]float32) {
	if len(d.lines)+2 > maxLines {
		return
	}
	d.lines = append(d.lines, vertex{f32(a), c}, vertex{f32(b), c})
}

func f32(v geom.Vec2) [2]float32 { return [2]float32{float32(v.X), float32(v.Y)} }

// newDisplay compiles shaders and initializes a display.
func newDisplay(maxAgents int) (*display, error) {
	d := &display{maxAgents: maxAgents}

	// compile and link shaders
	var err error
	d.prog.disc, err = makeProg([]shader{
		{"Vertex", "disc.vert", gl.CreateShader(gl.VERTEX_SHADER)},
		{"Geometry", "disc.geom", gl.CreateShader(gl.GEOMETRY_SHADER)},
		{"Fragment", "disc.frag", gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}
	d.prog.line, err = makeProg([]shader{
		{"Vertex", "line.vert", gl.CreateShader(gl.VERTEX_SHADER)},
		{"Fragment", "line.frag", gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}

	// uniform location cannot be specified in the shaders in OpenGL 3.3 core
	d.uni.discVP = gl.GetUniformLocation(d.prog.disc, gl.Str("vp\x00"))
	d.uni.lineVP = gl.GetUniformLocation(d.prog.line, gl.Str("vp\x00"))

	// attribute locations are specified in the shaders with layout(location=n)
	gl.GenVertexArrays(1, &d.vao.disc)
	gl.BindVertexArray(d.vao.disc)

	gl.GenBuffers(1, &d.buf.disc)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.disc)
	gl.BufferData(gl.ARRAY_BUFFER, maxAgents*int(unsafe.Sizeof(disc{})), nil, gl.STREAM_DRAW)

	const n = int32(unsafe.Sizeof(disc{}))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, n, unsafe.Pointer(unsafe.Offsetof(disc{}.Pos)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, n, unsafe.Pointer(unsafe.Offsetof(disc{}.Vel)))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 1, gl.FLOAT, false, n, unsafe.Pointer(unsafe.Offsetof(disc{}.Radius)))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, n, unsafe.Pointer(unsafe.Offsetof(disc{}.Color)))

	gl.GenVertexArrays(1, &d.vao.line)
	gl.BindVertexArray(d.vao.line)

	gl.GenBuffers(1, &d.buf.line)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.line)
	gl.BufferData(gl.ARRAY_BUFFER, maxLines*int(unsafe.Sizeof(vertex{})), nil, gl.STREAM_DRAW)

	const m = int32(unsafe.Sizeof(vertex{}))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, m, unsafe.Pointer(unsafe.Offsetof(vertex{}.Pos)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, m, unsafe.Pointer(unsafe.Offsetof(vertex{}.Color)))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return d, nil
}

// A shader wraps an OpenGL shader.
type shader struct {
	name   string
	path   string
	shader uint32
}

// makeProg builds OpenGL programs.
func makeProg(shaders []shader) (uint32, error) {
	var fail bool
	for _, s := range shaders {
		src := bindata[s.path] + "\x00"
		str, free := gl.Strs(src)
		gl.ShaderSource(s.shader, 1, str, nil)
		free()
		gl.CompileShader(s.shader)
		var status int32
		gl.GetShaderiv(s.shader, gl.COMPILE_STATUS, &status)
		if status != gl.TRUE {
			var n int32
			gl.GetShaderiv(s.shader, gl.INFO_LOG_LENGTH, &n)
			log := make([]uint8, n+1)
			gl.GetShaderInfoLog(s.shader, n, &n, &log[0])
			fmt.Printf("### %s shader compilation error: %s ###\n\n%s\n\n", s.name, s.path, gl.GoStr(&log[0]))
			fail = true
			gl.DeleteShader(s.shader)
		}
	}
	if fail {
		return 0, errors.New("opengl: GLSL errors")
	}
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s.shader)
	}
	gl.LinkProgram(prog)

	return prog, nil
}
