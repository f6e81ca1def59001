package axon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandShape(t *testing.T) {
	require.Equal(t, "F", Expand(0))
	require.Equal(t, "F[-F][+F]", Expand(1))
	s := Expand(Depth)
	require.Equal(t, 2*(2+4+8+16), strings.Count(s, "[")+strings.Count(s, "]"))
	require.NotContains(t, s, "X")
	require.Len(t, Program(), len(s))
}

func TestTipsCountIsFixed(t *testing.T) {
	tips := Tips(Growth{Origin: Point{X: 3, Y: 4}, Step: 1, Turn: 30})
	require.Len(t, tips, TipCount)
}

func TestStraightTreeEndsOnOneLine(t *testing.T) {
	g := Growth{Origin: Point{X: 1, Y: 2}, Step: 0.5, Turn: 0}
	tips, segments := Trace(g)
	require.Len(t, tips, TipCount)
	for _, tip := range tips {
		require.InDelta(t, 1+5*0.5, tip.X, 1e-12)
		require.InDelta(t, 2, tip.Y, 1e-12)
	}
	require.Len(t, segments, 2*TipCount-1)
}

func TestHeadingRotatesTree(t *testing.T) {
	tips := Tips(Growth{Heading: 90, Step: 1})
	for _, tip := range tips {
		require.InDelta(t, 0, tip.X, 1e-9)
		require.InDelta(t, 5, tip.Y, 1e-9)
	}
}

func TestWalkRecordsTrailingTip(t *testing.T) {
	moves, err := Parse("F[+F]F")
	require.NoError(t, err)
	tips, segments := Walk(Growth{Step: 1, Turn: 90}, moves)
	require.Len(t, segments, 3)
	require.Len(t, tips, 2)
	require.InDelta(t, 1, tips[0].X, 1e-9)
	require.InDelta(t, 1, tips[0].Y, 1e-9)
	require.InDelta(t, 2, tips[1].X, 1e-9)
	require.InDelta(t, 0, tips[1].Y, 1e-9)
}

func TestParseRejectsMalformedPrograms(t *testing.T) {
	for _, bad := range []string{"F]", "[F", "FX"} {
		_, err := Parse(bad)
		require.Error(t, err, bad)
	}
}

func TestTipsAreDeterministic(t *testing.T) {
	g := Growth{Origin: Point{X: 0.5}, Heading: 12, Step: 0.8, Turn: 180.0 / 7}
	require.Equal(t, Tips(g), Tips(g))
}

func TestPointHelpers(t *testing.T) {
	p := Point{X: 1, Y: 1}.Add(Point{X: 2, Y: 3})
	require.Equal(t, Point{X: 3, Y: 4}, p)
	require.InDelta(t, 25, p.SqDist(Point{}), 1e-12)
}
