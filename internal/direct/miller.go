package direct

import (
	"morphogen/internal/genome"
	"morphogen/internal/grammar"
	"morphogen/internal/network"
	"morphogen/internal/params"
)

// MillerResult is a decoded connection-matrix genome. Matrix is the raw
// readout before the output diagonal is forced.
type MillerResult struct {
	Network *network.Network
	Matrix  grammar.Matrix
	PConn   float64
}

func millerUnits(p params.Params) int {
	return p.Inputs + p.MaxHidden + p.Outputs
}

// linkRecords counts the pairs i<j whose row i lies before the outputs.
func linkRecords(p params.Params) int {
	total := millerUnits(p)
	n := 0
	for i := 0; i < total-p.Outputs; i++ {
		n += total - i - 1
	}
	return n
}

// MillerLayout returns the layout of the matrix encoding: one existence
// gene per encoded unit and one link gene per ordered pair i<j, row by row.
func MillerLayout(p params.Params) *genome.Layout {
	return genome.MustLayout(
		unitBlock(p),
		genome.BlockSpec{
			Block:   genome.BlockLinks,
			Records: linkRecords(p),
			Fields:  []genome.FieldSpec{genome.Binary(genome.FieldExistence)},
		},
	)
}

// Readout copies the unit and link genes into a connection matrix. Links
// into an input are never set; output rows stay zero.
func Readout(g *genome.Genome, p params.Params) grammar.Matrix {
	total := millerUnits(p)
	m := grammar.NewMatrix(total)
	link := 0
	for i := 0; i < total-p.Outputs; i++ {
		if unitExists(g, p, i) {
			m.Set(i, i, 1)
		}
		for j := i + 1; j < total; j++ {
			if j >= p.Inputs && g.Bool(genome.BlockLinks, link, genome.FieldExistence) {
				m.Set(i, j, 1)
			}
			link++
		}
	}
	return m
}

// DecodeMiller reads a matrix genome and assembles it the same way a grammar
// matrix is assembled.
func DecodeMiller(g *genome.Genome, p params.Params) (MillerResult, *network.Failure) {
	m := Readout(g, p)
	res := MillerResult{Matrix: m, PConn: grammar.Density(m, p.Inputs, p.Outputs)}
	net := grammar.Assemble(grammar.ForceOutputs(m, p.Outputs), p.Inputs, p.Outputs)
	if len(net.Edges) == 0 {
		return res, network.NoNetwork(network.ReasonNoConnections, "pConn %.3f", res.PConn)
	}
	res.Network = net
	return res, nil
}
