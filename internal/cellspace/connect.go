package cellspace

import (
	"math"
	"sort"

	"morphogen/internal/axon"
	"morphogen/internal/network"
)

// Growth returns the axon walk of a cell in the current coordinates. The
// turtle starts half a unit to the right of the cell body.
func (s *Space) Growth(c Cell) axon.Growth {
	return axon.Growth{
		Origin:  axon.Point{X: c.X + 0.5, Y: c.Y},
		Heading: c.Face * 360,
		Step:    s.AxonScale * c.SegLength,
		Turn:    c.SegAngle * 180 / math.Pi,
	}
}

// indexed returns the positions of indexed cells ordered by final index.
func (s *Space) indexed() []int {
	order := make([]int, 0, len(s.Cells))
	for i, c := range s.Cells {
		if c.Expressed && c.Index != Unindexed {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.Cells[order[a]].Index < s.Cells[order[b]].Index
	})
	return order
}

// Assemble allocates the network for indexed cells and copies cell bias and
// position onto their nodes.
func (s *Space) Assemble(counts Counts) *network.Network {
	net := network.New(counts.Inputs, counts.Hiddens, counts.Outputs)
	for i := 0; i < counts.Inputs; i++ {
		net.Nodes[i].Y = slotY(i, counts.Inputs) * s.YSize
	}
	for o := 0; o < counts.Outputs; o++ {
		node := &net.Nodes[net.OutputStart()+o]
		node.X = s.YSize
		node.Y = slotY(o, counts.Outputs) * s.YSize
	}
	for _, i := range s.indexed() {
		c := s.Cells[i]
		node := &net.Nodes[c.Index]
		node.Bias = c.Bias
		node.X = c.X
		node.Y = c.Y
	}
	return net
}

func slotY(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}

// Connect wires every indexed cell to each later-indexed cell that one of
// its axon tips lands within tip radius of. Input-to-input and
// output-to-output pairs are skipped; an ordered pair gets at most one edge
// carrying the source cell's weight. It returns the number of edges added.
func (s *Space) Connect(net *network.Network) int {
	order := s.indexed()
	connections := 0
	for a, i := range order {
		src := s.Cells[i]
		tips := axon.Tips(s.Growth(src))
		r2 := src.TipRadius * src.TipRadius
		for _, j := range order[a+1:] {
			dst := s.Cells[j]
			if dst.Index <= src.Index {
				continue
			}
			if src.Class == dst.Class && src.Class != ClassHidden {
				continue
			}
			if net.Connected(src.Index, dst.Index) {
				continue
			}
			target := axon.Point{X: dst.X, Y: dst.Y}
			for _, tip := range tips {
				if tip.SqDist(target) < r2 {
					if err := net.Connect(src.Index, dst.Index, src.Weight); err != nil {
						network.Invariant("cellspace.Connect", "%v", err)
					}
					connections++
					break
				}
			}
		}
	}
	return connections
}

// Grow runs the spatial pipeline on an unscaled space: indexing, scaling,
// assembly and wiring. A genome that cannot produce a usable network yields
// a Failure.
func (s *Space) Grow(inputs, outputs, maxHidden int) (*network.Network, *network.Failure) {
	counts, f := s.Index(inputs, outputs, maxHidden)
	if f != nil {
		return nil, f
	}
	s.Scale()
	net := s.Assemble(counts)
	if s.Connect(net) == 0 {
		return nil, network.NoNetwork(network.ReasonNoConnections, "no axon tip reached another cell")
	}
	if net.OutputFanIn() == 0 {
		return nil, network.NoNetwork(network.ReasonNoOutputConnections, "no edge ends in an output node")
	}
	return net, nil
}

// CellGeometry is the drawable form of one expressed cell.
type CellGeometry struct {
	Cell     int            `json:"cell"`
	Index    int            `json:"index"`
	Class    string         `json:"class"`
	Body     axon.Point     `json:"body"`
	Radius   float64        `json:"tip_radius"`
	Tips     []axon.Point   `json:"tips"`
	Segments []axon.Segment `json:"segments"`
}

// Geometry traces the axon tree of every expressed cell in the current
// coordinates.
func (s *Space) Geometry() []CellGeometry {
	out := make([]CellGeometry, 0, len(s.Cells))
	for i, c := range s.Cells {
		if !c.Expressed {
			continue
		}
		tips, segments := axon.Trace(s.Growth(c))
		out = append(out, CellGeometry{
			Cell:     i,
			Index:    c.Index,
			Class:    c.Class.String(),
			Body:     axon.Point{X: c.X, Y: c.Y},
			Radius:   c.TipRadius,
			Tips:     tips,
			Segments: segments,
		})
	}
	return out
}
