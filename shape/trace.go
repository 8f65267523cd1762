package shape

import "github.com/ByLCY/bubbletext/layout"

// Trace walks the bubbles clockwise and returns a single closed outline:
// the top edge of the first bubble, down the right side, across the bottom
// of the last bubble and back up the left side.
//
// Every transition between neighbours picks its own rule from the two widths:
// a narrower next bubble gets an inward notch, a wider one an outward bulge
// and an equal one a straight edge. The outer corners of the first and last
// bubble always get a plain quarter circle. radius is used for every arc and
// is not clamped; oversized radii may self-intersect but still trace.
//
// The result always holds 4 + 4*(N-1) groups. Trace returns nil for no bubbles.
func Trace(bubbles []layout.BubbleRect, radius float64) *Path {
	if len(bubbles) == 0 {
		return nil
	}
	t := &tracer{r: radius, path: &Path{}}
	first := bubbles[0]
	last := bubbles[len(bubbles)-1]
	r := radius

	t.move(first.Left+r, first.Top)

	// 上边 + 右上角
	t.begin(Corner)
	t.line(first.Right-r, first.Top)
	t.arc(first.Right, first.Top+r, true)
	t.end()

	// 右侧自上而下
	for i := 0; i+1 < len(bubbles); i++ {
		t.descendRight(i, bubbles[i], bubbles[i+1])
	}

	// 右下角 + 底边
	t.begin(Corner)
	t.line(last.Right, last.Bottom-r)
	t.arc(last.Right-r, last.Bottom, true)
	t.end()

	// 左下角
	t.begin(Corner)
	t.line(last.Left+r, last.Bottom)
	t.arc(last.Left, last.Bottom-r, true)
	t.end()

	// 左侧自下而上
	for i := len(bubbles) - 2; i >= 0; i-- {
		t.ascendLeft(i, bubbles[i], bubbles[i+1])
	}

	// 左上角，回到起点
	t.begin(Corner)
	t.line(first.Left, first.Top+r)
	t.arc(first.Left+r, first.Top, true)
	t.end()

	t.path.Segments = append(t.path.Segments, Segment{Op: Close, X: first.Left + r, Y: first.Top})
	return t.path
}

// RuleFor returns the transition rule from cur to the bubble below it.
func RuleFor(cur, next layout.BubbleRect) Rule {
	switch {
	case next.Width < cur.Width:
		return Inward
	case next.Width > cur.Width:
		return Outward
	default:
		return Straight
	}
}

type tracer struct {
	r    float64
	path *Path
}

func (t *tracer) move(x, y float64) {
	t.path.Segments = append(t.path.Segments, Segment{Op: MoveTo, X: x, Y: y})
}

func (t *tracer) line(x, y float64) {
	t.path.Segments = append(t.path.Segments, Segment{Op: LineTo, X: x, Y: y})
}

func (t *tracer) arc(x, y float64, sweep bool) {
	t.path.Segments = append(t.path.Segments, Segment{Op: ArcTo, X: x, Y: y, Radius: t.r, Sweep: sweep})
}

func (t *tracer) begin(kind GroupKind) {
	t.path.Groups = append(t.path.Groups, Group{Kind: kind, Start: len(t.path.Segments)})
}

func (t *tracer) end() {
	t.path.Groups[len(t.path.Groups)-1].End = len(t.path.Segments)
}

// descendRight traces the junction at y = cur.Bottom while heading down.
// Both halves end r away from the junction so the three rules line up.
func (t *tracer) descendRight(i int, cur, next layout.BubbleRect) {
	r := t.r
	y := cur.Bottom
	rule := RuleFor(cur, next)
	t.path.Transitions = append(t.path.Transitions, Transition{Side: Right, Junction: i, Rule: rule})

	t.begin(Leave)
	switch rule {
	case Inward:
		t.line(cur.Right, y-r)
		t.arc(cur.Right-r, y, true)
	case Outward:
		t.line(cur.Right, y-r)
		t.arc(cur.Right+r, y, false)
	default:
		t.line(cur.Right, y-r)
	}
	t.end()

	t.begin(Rejoin)
	switch rule {
	case Inward:
		t.line(next.Right+r, y)
		t.arc(next.Right, y+r, false)
	case Outward:
		t.line(next.Right-r, y)
		t.arc(next.Right, y+r, true)
	default:
		t.line(next.Right, y+r)
	}
	t.end()
}

// ascendLeft mirrors descendRight for the left edge at y = lower.Top while
// heading up. The rule is still decided top to bottom, so a narrower lower
// bubble is an inward notch on both sides.
func (t *tracer) ascendLeft(i int, upper, lower layout.BubbleRect) {
	r := t.r
	y := lower.Top
	rule := RuleFor(upper, lower)
	t.path.Transitions = append(t.path.Transitions, Transition{Side: Left, Junction: i, Rule: rule})

	t.begin(Leave)
	switch rule {
	case Inward:
		t.line(lower.Left, y+r)
		t.arc(lower.Left-r, y, false)
	case Outward:
		t.line(lower.Left, y+r)
		t.arc(lower.Left+r, y, true)
	default:
		t.line(lower.Left, y+r)
	}
	t.end()

	t.begin(Rejoin)
	switch rule {
	case Inward:
		t.line(upper.Left+r, y)
		t.arc(upper.Left, y-r, true)
	case Outward:
		t.line(upper.Left-r, y)
		t.arc(upper.Left, y-r, false)
	default:
		t.line(upper.Left, y-r)
	}
	t.end()
}
