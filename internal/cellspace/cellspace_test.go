package cellspace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"morphogen/internal/genome"
	"morphogen/internal/network"
	"morphogen/internal/params"
)

type cellGenes struct {
	x, y, a, s, w, b float64
	t                int
	e                bool
}

func on(x, y, s, w float64) cellGenes {
	return cellGenes{x: x, y: y, s: s, w: w, e: true}
}

func nolfiParams() params.Params {
	p := params.Defaults()
	p.Inputs = 2
	p.Outputs = 1
	p.MaxHidden = 4
	p.TipRadius = params.Fixed(1.0)
	return p
}

func nolfiGenome(t *testing.T, p params.Params, cells []cellGenes) *genome.Genome {
	t.Helper()
	require.Len(t, cells, p.Cells())
	g, err := genome.NewBuilder(1).Build(Layout(p), func(l genome.Locus, _ genome.FieldSpec) float64 {
		if l.Block == genome.BlockGlobals {
			return 2
		}
		c := cells[l.Record]
		switch l.Field {
		case genome.FieldExistence:
			if c.e {
				return 1
			}
			return 0
		case genome.FieldX:
			return c.x
		case genome.FieldY:
			return c.y
		case genome.FieldAngle:
			return c.a
		case genome.FieldLength:
			return c.s
		case genome.FieldWeight:
			return c.w
		case genome.FieldBias:
			return c.b
		case genome.FieldType:
			return float64(c.t)
		case genome.FieldTipRadius:
			return 3
		}
		return 0
	})
	require.NoError(t, err)
	return g
}

func grow(t *testing.T, p params.Params, cells []cellGenes) (*Space, *network.Network, *network.Failure) {
	t.Helper()
	g := nolfiGenome(t, p, cells)
	s := New(p, DecodeCells(g, p))
	net, f := s.Grow(p.Inputs, p.Outputs, p.MaxHidden)
	return s, net, f
}

// Two inputs on the left edge, one hidden cell whose straight axon ends
// 0.6 units short of the single output cell.
func reachingCells() []cellGenes {
	return []cellGenes{
		on(0, 0, 1, 0.1),
		on(0, 1, 1, 0.2),
		on(0.7, 0.5, 1, -0.75),
		on(1, 0.5, 0, 0.4),
	}
}

func TestLayoutFollowsTipRadiusMode(t *testing.T) {
	p := nolfiParams()
	l := Layout(p)
	require.Equal(t, 4, l.Records(genome.BlockCells))
	require.False(t, l.Has(genome.BlockCells, genome.FieldExistence))
	require.False(t, l.Has(genome.BlockCells, genome.FieldTipRadius))
	require.Equal(t, 0, l.Records(genome.BlockGlobals))
	spec, ok := l.Spec(genome.BlockCells, genome.FieldType)
	require.True(t, ok)
	require.Equal(t, 15.0, spec.Max)

	p.ExistenceGene = true
	p.TipRadius = params.TipRadius{Mode: params.TipAutoCell}
	l = Layout(p)
	require.True(t, l.Has(genome.BlockCells, genome.FieldExistence))
	require.True(t, l.Has(genome.BlockCells, genome.FieldTipRadius))

	p.TipRadius = params.TipRadius{Mode: params.TipAutoNetwork}
	l = Layout(p)
	require.Equal(t, 1, l.Records(genome.BlockGlobals))
}

func TestDecodeCellsReadsTipRadiusSources(t *testing.T) {
	p := nolfiParams()
	cells := DecodeCells(nolfiGenome(t, p, reachingCells()), p)
	require.Len(t, cells, 4)
	require.True(t, cells[0].Expressed)
	require.Equal(t, 1.0, cells[0].TipRadius)
	require.Equal(t, -0.75, cells[2].Weight)
	require.Equal(t, Unindexed, cells[2].Index)

	p.TipRadius = params.TipRadius{Mode: params.TipAutoNetwork}
	cells = DecodeCells(nolfiGenome(t, p, reachingCells()), p)
	require.Equal(t, 2.0, cells[1].TipRadius)

	p.TipRadius = params.TipRadius{Mode: params.TipAutoCell}
	cells = DecodeCells(nolfiGenome(t, p, reachingCells()), p)
	require.Equal(t, 3.0, cells[3].TipRadius)
}

func TestNolfiEndToEnd(t *testing.T) {
	p := nolfiParams()
	s, net, f := grow(t, p, reachingCells())
	require.Nil(t, f)
	require.NoError(t, net.Validate())
	require.Equal(t, 2, net.EnabledCount(network.KindInput))
	require.Equal(t, 1, net.EnabledCount(network.KindOutput))
	require.LessOrEqual(t, net.Hiddens, 4)
	require.Equal(t, 1, net.Hiddens)
	require.Equal(t, []network.Edge{{From: 2, To: 3, Weight: -0.75}}, net.Edges)
	require.GreaterOrEqual(t, net.Incoming(3), 1)

	require.Equal(t, []int{0, 1, 2, 3}, []int{s.Cells[0].Index, s.Cells[1].Index, s.Cells[2].Index, s.Cells[3].Index})
	require.True(t, s.Scaled())
	require.InDelta(t, 0.7*22, net.Nodes[2].X, 1e-9)

	_, again, f := grow(t, p, reachingCells())
	require.Nil(t, f)
	require.Equal(t, net.Nodes, again.Nodes)
	require.Equal(t, net.Edges, again.Edges)
}

func TestNoConnectionsIsNoNetwork(t *testing.T) {
	cells := reachingCells()
	cells[2].s = 0
	_, net, f := grow(t, nolfiParams(), cells)
	require.Nil(t, net)
	require.NotNil(t, f)
	require.Equal(t, network.ReasonNoConnections, f.Reason)
	require.True(t, errors.Is(f, network.ErrNoNetwork))
}

func TestNoOutputConnectionsIsNoNetwork(t *testing.T) {
	cells := []cellGenes{
		on(0.25, 0.5, 1, 1),
		on(0, 0, 0, 1),
		on(0.5, 0.5, 0, 1),
		on(1, 0.5, 0, 1),
	}
	_, net, f := grow(t, nolfiParams(), cells)
	require.Nil(t, net)
	require.Equal(t, network.ReasonNoOutputConnections, f.Reason)
}

func TestMissingClassesFail(t *testing.T) {
	cases := map[string]struct {
		mutate func([]cellGenes)
		reason string
	}{
		"no inputs":  {func(c []cellGenes) { c[0].x, c[1].x = 0.5, 0.5 }, network.ReasonNoInputs},
		"no hiddens": {func(c []cellGenes) { c[2].x = 0 }, network.ReasonNoHiddens},
		"no outputs": {func(c []cellGenes) { c[3].e = false }, network.ReasonNoOutputs},
	}
	for name, tc := range cases {
		p := nolfiParams()
		p.ExistenceGene = true
		cells := reachingCells()
		tc.mutate(cells)
		_, net, f := grow(t, p, cells)
		require.Nil(t, net, name)
		require.Equal(t, tc.reason, f.Reason, name)
	}
}

func TestDuplicateOutputSlotsReduceOutputs(t *testing.T) {
	p := nolfiParams()
	p.Outputs = 2
	cells := reachingCells()
	cells[1] = on(1, 0, 0, 0)
	cells[3] = on(1, 0.2, 0, 0)
	_, net, f := grow(t, p, cells)
	require.Nil(t, net)
	require.Equal(t, network.ReasonTooFewOutputs, f.Reason)
}

func TestIndexStripsLaterDuplicates(t *testing.T) {
	p := nolfiParams()
	s := New(p, []Cell{
		{Expressed: true, X: 0, Y: 0},
		{Expressed: true, X: 0.1, Y: 0.2},
		{Expressed: true, X: 0.5, Y: 0.5},
		{Expressed: true, X: 1, Y: 0.5},
	})
	counts, f := s.Index(2, 1, 4)
	require.Nil(t, f)
	require.Equal(t, Counts{Inputs: 2, Hiddens: 1, Outputs: 1}, counts)
	require.Equal(t, 0, s.Cells[0].Index)
	require.Equal(t, Unindexed, s.Cells[1].Index)
}

func TestHiddenIndexingPrefersLastOfEqualX(t *testing.T) {
	p := nolfiParams()
	s := New(p, []Cell{
		{Expressed: true, X: 0.5, Y: 0.1},
		{Expressed: true, X: 0.4, Y: 0.2},
		{Expressed: true, X: 0.5, Y: 0.3},
		{Expressed: true, X: 0.5, Y: 0.4},
		{Expressed: true, X: 0, Y: 0},
		{Expressed: true, X: 1, Y: 0},
	})
	counts, f := s.Index(1, 1, 3)
	require.Nil(t, f)
	require.Equal(t, 3, counts.Hiddens)
	require.Equal(t, 1, s.Cells[1].Index)
	require.Equal(t, 2, s.Cells[3].Index)
	require.Equal(t, 3, s.Cells[2].Index)
	require.Equal(t, Unindexed, s.Cells[0].Index, "hidden cells beyond max_hidden stay unindexed")
	require.Equal(t, 4, s.Cells[5].Index)
}

func TestClassifyPanicsOnHiddenOutsideSpace(t *testing.T) {
	s := New(nolfiParams(), []Cell{{Expressed: true, X: 0.5, Y: 1.5}})
	require.PanicsWithValue(t, network.InvariantError{Where: "cellspace.Classify", What: "hidden candidate 0 has y=1.5"}, func() {
		s.Classify()
	})
}

func TestClassifyIgnoresOutOfZoneEdgeCells(t *testing.T) {
	s := New(nolfiParams(), []Cell{
		{Expressed: true, X: -0.1, Y: 0.5},
		{Expressed: true, X: 1.2, Y: 0.5},
		{Expressed: false, X: 0.5, Y: 0.5},
	})
	require.Equal(t, Counts{}, s.Classify())
	require.Equal(t, ClassNone, s.Cells[2].Class)
}

func TestGeometryCoversExpressedCells(t *testing.T) {
	p := nolfiParams()
	p.ExistenceGene = true
	cells := reachingCells()
	cells[1].e = false
	cells[1].x = 0.1
	s, _, f := grow(t, p, cells)
	require.Nil(t, f)
	geo := s.Geometry()
	require.Len(t, geo, 3)
	for _, cg := range geo {
		require.Len(t, cg.Tips, 16)
		require.Len(t, cg.Segments, 31)
	}
	require.Equal(t, "hidden", geo[1].Class)
}
