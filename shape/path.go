// Package shape traces the connected outline around a stack of line bubbles.
//
// Coordinates are screen space: x grows to the right, y grows downwards.
// Arcs follow the SVG convention, so Sweep == true turns clockwise on screen.
package shape

import (
	"strconv"
	"strings"
)

// Op is a drawing operation.
type Op int

const (
	MoveTo Op = iota
	LineTo
	ArcTo
	Close
)

func (op Op) String() string {
	switch op {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case ArcTo:
		return "A"
	case Close:
		return "Z"
	default:
		return "?"
	}
}

// Segment is one drawing operation ending at (X, Y). Radius and Sweep are
// only meaningful for ArcTo, which always draws a quarter circle.
type Segment struct {
	Op     Op
	X, Y   float64
	Radius float64
	Sweep  bool
}

// Rule is the shape of a vertical transition between two adjacent bubbles.
type Rule int

const (
	Straight Rule = iota
	Inward
	Outward
)

func (r Rule) String() string {
	switch r {
	case Inward:
		return "inward"
	case Outward:
		return "outward"
	default:
		return "straight"
	}
}

// Side tells on which side of the stack a transition was traced.
type Side int

const (
	Right Side = iota
	Left
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Transition records the rule chosen at one junction on one side. Junction
// is the index of the upper bubble; the rule is always decided from the
// upper bubble to the lower one.
type Transition struct {
	Side     Side
	Junction int
	Rule     Rule
}

// GroupKind distinguishes outer corners from the two halves of a transition.
type GroupKind int

const (
	Corner GroupKind = iota
	Leave
	Rejoin
)

// Group is a run of segments forming one corner or one half of a transition.
// Start and End index into Path.Segments (End exclusive).
type Group struct {
	Kind       GroupKind
	Start, End int
}

// Path is a closed outline built from line and quarter-arc segments.
type Path struct {
	Segments    []Segment
	Groups      []Group
	Transitions []Transition
}

// Empty reports whether the path draws nothing.
func (p *Path) Empty() bool { return p == nil || len(p.Segments) == 0 }

// Closed reports whether the path ends with Close.
func (p *Path) Closed() bool {
	return !p.Empty() && p.Segments[len(p.Segments)-1].Op == Close
}

// Start returns the first point of the path.
func (p *Path) Start() (float64, float64) {
	if p.Empty() {
		return 0, 0
	}
	return p.Segments[0].X, p.Segments[0].Y
}

// End returns the last point reached before Close.
func (p *Path) End() (float64, float64) {
	for i := len(p.Segments) - 1; i >= 0; i-- {
		if p.Segments[i].Op != Close {
			return p.Segments[i].X, p.Segments[i].Y
		}
	}
	return 0, 0
}

// SVG returns the path as the value of an SVG d attribute.
func (p *Path) SVG() string {
	if p.Empty() {
		return ""
	}
	var sb strings.Builder
	for i, seg := range p.Segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Op.String())
		switch seg.Op {
		case Close:
			continue
		case ArcTo:
			r := fmtFloat(seg.Radius)
			sweep := "0"
			if seg.Sweep {
				sweep = "1"
			}
			sb.WriteString(r + " " + r + " 0 0 " + sweep + " ")
		}
		sb.WriteString(fmtFloat(seg.X) + " " + fmtFloat(seg.Y))
	}
	return sb.String()
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
