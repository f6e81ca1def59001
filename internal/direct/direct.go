// Package direct implements the bitmap baseline encodings: one gene per
// unit and per candidate link, read straight into a network.
package direct

import (
	"morphogen/internal/genome"
	"morphogen/internal/network"
	"morphogen/internal/params"
)

// unitRecords is the number of unit existence records. Inputs come first
// when they are encoded, then hiddens.
func unitRecords(p params.Params) int {
	if p.PruneInputs {
		return p.Inputs + p.MaxHidden
	}
	return p.MaxHidden
}

// unitRecord maps a node index below the outputs to its unit record, or -1
// when the unit has no gene.
func unitRecord(p params.Params, node int) int {
	if p.PruneInputs {
		return node
	}
	if node < p.Inputs {
		return -1
	}
	return node - p.Inputs
}

func unitBlock(p params.Params) genome.BlockSpec {
	return genome.BlockSpec{
		Block:   genome.BlockUnits,
		Records: unitRecords(p),
		Fields:  []genome.FieldSpec{genome.Binary(genome.FieldExistence)},
	}
}

// unitExists reads the existence gene of a node, defaulting to true for
// units that carry none.
func unitExists(g *genome.Genome, p params.Params, node int) bool {
	r := unitRecord(p, node)
	if r < 0 {
		return true
	}
	return g.Bool(genome.BlockUnits, r, genome.FieldExistence)
}

// Layout returns the genome layout of the direct encoding. Link records
// cover input->hidden pairs row by row, then hidden->output pairs.
func Layout(p params.Params) *genome.Layout {
	blocks := []genome.BlockSpec{unitBlock(p)}
	var fields []genome.FieldSpec
	if p.PruneWeights {
		fields = append(fields, genome.Binary(genome.FieldExistence))
	}
	if p.EncodeWeights {
		fields = append(fields, genome.Float(genome.FieldWeight, -1, 1, 0))
	}
	if len(fields) > 0 {
		blocks = append(blocks, genome.BlockSpec{
			Block:   genome.BlockLinks,
			Records: p.Inputs*p.MaxHidden + p.MaxHidden*p.Outputs,
			Fields:  fields,
		})
	}
	return genome.MustLayout(blocks...)
}

// Decode reads a direct genome. Edges run input->hidden and hidden->output
// only, and only between enabled units.
func Decode(g *genome.Genome, p params.Params) (*network.Network, *network.Failure) {
	net := network.New(p.Inputs, p.MaxHidden, p.Outputs)
	for i := 0; i < p.Inputs+p.MaxHidden; i++ {
		net.Enable(i, unitExists(g, p, i))
	}

	link := 0
	connect := func(from, to int) {
		r := link
		link++
		if !net.Nodes[from].Enabled || !net.Nodes[to].Enabled {
			return
		}
		if !g.BoolOr(genome.BlockLinks, r, genome.FieldExistence, true) {
			return
		}
		w := g.FloatOr(genome.BlockLinks, r, genome.FieldWeight, network.DefaultWeight)
		if err := net.Connect(from, to, w); err != nil {
			network.Invariant("direct.Decode", "%v", err)
		}
	}
	for i := 0; i < p.Inputs; i++ {
		for h := 0; h < p.MaxHidden; h++ {
			connect(i, p.Inputs+h)
		}
	}
	for h := 0; h < p.MaxHidden; h++ {
		for o := 0; o < p.Outputs; o++ {
			connect(p.Inputs+h, net.OutputStart()+o)
		}
	}

	if len(net.Edges) == 0 {
		return nil, network.NoNetwork(network.ReasonNoConnections, "all %d links absent", link)
	}
	return net, nil
}
