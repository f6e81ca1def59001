// Package axon grows the branching axon tree of a cell. The tree shape is a
// fixed L-system string; a turtle walks it to produce tip points and the
// drawn line segments.
package axon

import (
	"fmt"
	"math"
	"strings"
)

// Move is one turtle instruction.
type Move byte

const (
	Forward Move = 'F'
	Left    Move = '+'
	Right   Move = '-'
	Push    Move = '['
	Pop     Move = ']'
)

const (
	// Depth is the number of X -> F[-X][+X] rewrites.
	Depth = 4
	// TipCount is the number of leaves in the tree, 2^Depth.
	TipCount = 1 << Depth
)

// Expand applies X -> F[-X][+X] depth times to the axiom "X" and finally
// turns every remaining X into F.
func Expand(depth int) string {
	s := "X"
	for i := 0; i < depth; i++ {
		s = strings.ReplaceAll(s, "X", "F[-X][+X]")
	}
	return strings.ReplaceAll(s, "X", "F")
}

var program = mustParse(Expand(Depth))

// Program returns the fixed move sequence walked for every cell.
func Program() []Move {
	return append([]Move(nil), program...)
}

// Parse reads a turtle program, rejecting unknown symbols and unbalanced
// brackets.
func Parse(s string) ([]Move, error) {
	moves := make([]Move, 0, len(s))
	depth := 0
	for i := 0; i < len(s); i++ {
		m := Move(s[i])
		switch m {
		case Forward, Left, Right:
		case Push:
			depth++
		case Pop:
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("axon program: unbalanced ']' at %d", i)
			}
		default:
			return nil, fmt.Errorf("axon program: unknown move %q at %d", s[i], i)
		}
		moves = append(moves, m)
	}
	if depth != 0 {
		return nil, fmt.Errorf("axon program: %d unclosed '['", depth)
	}
	return moves, nil
}

func mustParse(s string) []Move {
	moves, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return moves
}

// Point is a position in the cell plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) SqDist(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Segment is one drawn axon stretch between two points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Growth parameterises one walk. Heading and Turn are in degrees; Heading 0
// points along +x and Left turns counter-clockwise.
type Growth struct {
	Origin  Point
	Heading float64
	Step    float64
	Turn    float64
}

// Tips returns the leaf points of the tree.
func Tips(g Growth) []Point {
	tips, _ := walk(g, program, false)
	return tips
}

// Trace returns the leaf points and every drawn segment.
func Trace(g Growth) ([]Point, []Segment) {
	return walk(g, program, true)
}

// Walk runs an arbitrary move sequence. A tip is recorded whenever a branch
// closes right after drawing, and at the end when the sequence finishes on
// a drawn segment.
func Walk(g Growth, moves []Move) ([]Point, []Segment) {
	return walk(g, moves, true)
}

type turtle struct {
	pos     Point
	heading float64
}

func walk(g Growth, moves []Move, draw bool) ([]Point, []Segment) {
	var (
		tips     = make([]Point, 0, TipCount)
		segments []Segment
		stack    []turtle
		moved    bool
	)
	cur := turtle{pos: g.Origin, heading: g.Heading}
	for _, m := range moves {
		switch m {
		case Forward:
			rad := cur.heading * math.Pi / 180
			next := Point{X: cur.pos.X + g.Step*math.Cos(rad), Y: cur.pos.Y + g.Step*math.Sin(rad)}
			if draw {
				segments = append(segments, Segment{From: cur.pos, To: next})
			}
			cur.pos = next
			moved = true
		case Left:
			cur.heading += g.Turn
		case Right:
			cur.heading -= g.Turn
		case Push:
			stack = append(stack, cur)
			moved = false
		case Pop:
			if moved {
				tips = append(tips, cur.pos)
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			moved = false
		}
	}
	if moved {
		tips = append(tips, cur.pos)
	}
	return tips, segments
}
