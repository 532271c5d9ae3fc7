package motion

import (
	"math"

	"github.com/superxueyizou/MoPlaT/geom"
)

const rvoEpsilon = 0.00001

// linearProgram1 solves a one-dimensional linear program on line lineNo
// subject to the lines before it and a circular constraint of radius r.
func linearProgram1(lines []geom.Line, lineNo int, r float64, opt geom.Vec2, directionOpt bool, result *geom.Vec2) bool {
	l := lines[lineNo]
	dot := l.Point.Dot(l.Direction)
	disc := dot*dot + r*r - l.Point.LenSq()
	if disc < 0 {
		// max speed circle fully invalidates line lineNo
		return false
	}

	sqrtDisc := math.Sqrt(disc)
	tLeft := -dot - sqrtDisc
	tRight := -dot + sqrtDisc

	for i := 0; i < lineNo; i++ {
		den := geom.Det(l.Direction, lines[i].Direction)
		num := geom.Det(lines[i].Direction, l.Point.Sub(lines[i].Point))

		if math.Abs(den) <= rvoEpsilon {
			// lines lineNo and i are (almost) parallel
			if num < 0 {
				return false
			}
			continue
		}

		t := num / den
		if den >= 0 {
			// line i bounds line lineNo on the right
			tRight = math.Min(tRight, t)
		} else {
			// line i bounds line lineNo on the left
			tLeft = math.Max(tLeft, t)
		}
		if tLeft > tRight {
			return false
		}
	}

	switch {
	case directionOpt:
		if opt.Dot(l.Direction) > 0 {
			*result = l.Point.Add(l.Direction.Scale(tRight))
		} else {
			*result = l.Point.Add(l.Direction.Scale(tLeft))
		}
	default:
		t := l.Direction.Dot(opt.Sub(l.Point))
		switch {
		case t < tLeft:
			*result = l.Point.Add(l.Direction.Scale(tLeft))
		case t > tRight:
			*result = l.Point.Add(l.Direction.Scale(tRight))
		default:
			*result = l.Point.Add(l.Direction.Scale(t))
		}
	}
	return true
}

// linearProgram2 solves a two-dimensional linear program subject to lines and
// a circular constraint of radius r. It returns the number of lines satisfied;
// a value lower than len(lines) is the index of the first line that failed.
func linearProgram2(lines []geom.Line, r float64, opt geom.Vec2, directionOpt bool, result *geom.Vec2) int {
	switch {
	case directionOpt:
		// opt is a unit direction
		*result = opt.Scale(r)
	case opt.LenSq() > r*r:
		*result = opt.Normalize().Scale(r)
	default:
		*result = opt
	}

	for i := range lines {
		if geom.Det(lines[i].Direction, lines[i].Point.Sub(*result)) > 0 {
			// result does not satisfy constraint i
			temp := *result
			if !linearProgram1(lines, i, r, opt, directionOpt, result) {
				*result = temp
				return i
			}
		}
	}
	return len(lines)
}

// linearProgram3 finds the velocity that least violates the agent lines,
// never relaxing the first numObstLines obstacle lines. Lines are
// relaxed in order from beginLine.
func linearProgram3(lines []geom.Line, numObstLines, beginLine int, r float64, result *geom.Vec2) {
	var distance float64
	proj := make([]geom.Line, 0, len(lines))

	for i := beginLine; i < len(lines); i++ {
		if geom.Det(lines[i].Direction, lines[i].Point.Sub(*result)) <= distance {
			continue
		}
		// result does not satisfy constraint of line i
		proj = append(proj[:0], lines[:numObstLines]...)

		for j := numObstLines; j < i; j++ {
			var line geom.Line
			det := geom.Det(lines[i].Direction, lines[j].Direction)
			if math.Abs(det) <= rvoEpsilon {
				if lines[i].Direction.Dot(lines[j].Direction) > 0 {
					// lines i and j point in the same direction
					continue
				}
				// opposite directions
				line.Point = lines[i].Point.Add(lines[j].Point).Scale(0.5)
			} else {
				k := geom.Det(lines[j].Direction, lines[i].Point.Sub(lines[j].Point)) / det
				line.Point = lines[i].Point.Add(lines[i].Direction.Scale(k))
			}
			line.Direction = lines[j].Direction.Sub(lines[i].Direction).Normalize()
			proj = append(proj, line)
		}

		temp := *result
		opt := geom.Vec2{X: -lines[i].Direction.Y, Y: lines[i].Direction.X}
		if linearProgram2(proj, r, opt, true, result) < len(proj) {
			// cannot fail in principle; keep the previous result on numerical trouble
			*result = temp
		}
		distance = geom.Det(lines[i].Direction, lines[i].Point.Sub(*result))
	}
}
