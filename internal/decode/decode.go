// Package decode turns genomes into networks. Each encoding is one Decoder;
// New selects it from the parameters.
package decode

import (
	"fmt"

	"morphogen/internal/cellspace"
	"morphogen/internal/direct"
	"morphogen/internal/genome"
	"morphogen/internal/grammar"
	"morphogen/internal/network"
	"morphogen/internal/params"
	"morphogen/internal/rewrite"
)

// ErrNoNetwork is wrapped by every FailureError.
var ErrNoNetwork = network.ErrNoNetwork

// FailureError is an expected decode outcome: the genome has no usable
// network. It is reported in Result.Failure, never returned as an error.
type FailureError = network.Failure

// InvariantError is the panic value of a decoder bug.
type InvariantError = network.InvariantError

// Diagnostic keys.
const (
	DiagPConn       = "pConn"
	DiagCells       = "cells"
	DiagInputs      = "inputs"
	DiagHiddens     = "hiddens"
	DiagOutputs     = "outputs"
	DiagConnections = "connections"
	DiagMatrixSize  = "matrix_size"
	DiagPrunedNodes = "pruned_hiddens"
	DiagBypassed    = "bypassed_hiddens"
)

// Diagnostics is the key/value bag handed to reporting.
type Diagnostics map[string]float64

// Result is the outcome of one decode. Exactly one of Network and Failure
// is set.
type Result struct {
	GenomeID    string                   `json:"genome_id"`
	Encoding    params.Encoding          `json:"encoding"`
	Network     *network.Network         `json:"network,omitempty"`
	Failure     *FailureError            `json:"failure,omitempty"`
	Diagnostics Diagnostics              `json:"diagnostics"`
	Geometry    []cellspace.CellGeometry `json:"geometry,omitempty"`
	Matrix      *grammar.Matrix          `json:"-"`
}

// OK reports whether a network was produced.
func (r *Result) OK() bool {
	return r.Network != nil
}

// Decoder decodes genomes of one encoding. Implementations are immutable and
// safe for concurrent use.
type Decoder interface {
	Encoding() params.Encoding
	Params() params.Params
	Layout() *genome.Layout
	Decode(g *genome.Genome) (*Result, error)
}

// New validates p and returns the decoder for p.Encoding.
func New(p params.Params) (Decoder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := base{params: p}
	switch p.Encoding {
	case params.EncodingNolfi:
		b.layout = cellspace.Layout(p)
		return &nolfi{b}, nil
	case params.EncodingCangelosi:
		b.layout = rewrite.Layout(p)
		return &cangelosi{b}, nil
	case params.EncodingKitano:
		b.layout = grammar.Layout(p)
		return &kitano{b}, nil
	case params.EncodingDirect:
		b.layout = direct.Layout(p)
		return &directDecoder{b}, nil
	case params.EncodingMiller:
		b.layout = direct.MillerLayout(p)
		return &miller{b}, nil
	}
	return nil, fmt.Errorf("%w: unknown encoding %q", params.ErrInvalidConfig, p.Encoding)
}

type base struct {
	params params.Params
	layout *genome.Layout
}

func (b base) Encoding() params.Encoding { return b.params.Encoding }
func (b base) Params() params.Params     { return b.params }
func (b base) Layout() *genome.Layout    { return b.layout }

func (b base) check(g *genome.Genome) error {
	if g == nil {
		return fmt.Errorf("decode %s: nil genome", b.params.Encoding)
	}
	if !g.Layout().Equal(b.layout) {
		return fmt.Errorf("decode %s genome %s: %w", b.params.Encoding, g.ID(), genome.ErrLayoutMismatch)
	}
	return nil
}

func (b base) result(g *genome.Genome) *Result {
	return &Result{GenomeID: g.ID(), Encoding: b.params.Encoding, Diagnostics: Diagnostics{}}
}

// finish applies optional cleanup and fills the network diagnostics.
func (b base) finish(res *Result, net *network.Network, fail *FailureError) (*Result, error) {
	if fail == nil && b.params.Prune {
		stats, err := network.Cleanup(net, b.params.PrunePassthroughs)
		if err != nil {
			return nil, fmt.Errorf("decode %s genome %s: %w", b.params.Encoding, res.GenomeID, err)
		}
		res.Diagnostics[DiagPrunedNodes] = float64(stats.DeadHiddens)
		res.Diagnostics[DiagBypassed] = float64(stats.Passthroughs)
		if net.OutputFanIn() == 0 {
			fail = network.NoNetwork(network.ReasonNoOutputConnections, "nothing left after pruning")
		}
	}
	if fail != nil {
		res.Failure = fail
		return res, nil
	}
	res.Network = net
	res.Diagnostics[DiagInputs] = float64(net.EnabledCount(network.KindInput))
	res.Diagnostics[DiagHiddens] = float64(net.EnabledCount(network.KindHidden))
	res.Diagnostics[DiagOutputs] = float64(net.EnabledCount(network.KindOutput))
	res.Diagnostics[DiagConnections] = float64(len(net.Edges))
	return res, nil
}

type nolfi struct{ base }

func (d *nolfi) Decode(g *genome.Genome) (*Result, error) {
	if err := d.check(g); err != nil {
		return nil, err
	}
	p := d.params
	space := cellspace.New(p, cellspace.DecodeCells(g, p))
	return d.grow(d.result(g), space)
}

// grow runs the spatial pipeline shared by both cell encodings and records
// the axon geometry whether or not a network came out of it.
func (b base) grow(res *Result, space *cellspace.Space) (*Result, error) {
	p := b.params
	net, fail := space.Grow(p.Inputs, p.Outputs, p.MaxHidden)
	if !space.Scaled() {
		space.Scale()
	}
	res.Geometry = space.Geometry()
	res.Diagnostics[DiagCells] = float64(len(res.Geometry))
	return b.finish(res, net, fail)
}

type cangelosi struct{ base }

func (d *cangelosi) Decode(g *genome.Genome) (*Result, error) {
	if err := d.check(g); err != nil {
		return nil, err
	}
	p := d.params
	table := rewrite.DecodeTable(g)
	cells := rewrite.Grow(table, cellspace.GlobalTipRadius(g, p), p.EffectiveCycles())
	return d.grow(d.result(g), cellspace.New(p, cells))
}

type kitano struct{ base }

func (d *kitano) Decode(g *genome.Genome) (*Result, error) {
	if err := d.check(g); err != nil {
		return nil, err
	}
	p := d.params
	res := d.result(g)
	m := grammar.Decode(grammar.DecodeRules(g, p.NonTerminals), p.Iterations)
	res.Diagnostics[DiagMatrixSize] = float64(m.N)
	if m.N < p.Inputs+p.Outputs {
		return d.finish(res, nil, network.NoNetwork(network.ReasonMatrixTooSmall, "%d < %d+%d", m.N, p.Inputs, p.Outputs))
	}
	res.Diagnostics[DiagPConn] = grammar.Density(m, p.Inputs, p.Outputs)
	m = grammar.ForceOutputs(m, p.Outputs)
	res.Matrix = &m
	net := grammar.Assemble(m, p.Inputs, p.Outputs)
	if len(net.Edges) == 0 {
		return d.finish(res, nil, network.NoNetwork(network.ReasonNoConnections, "matrix holds no usable link"))
	}
	return d.finish(res, net, nil)
}

type directDecoder struct{ base }

func (d *directDecoder) Decode(g *genome.Genome) (*Result, error) {
	if err := d.check(g); err != nil {
		return nil, err
	}
	net, fail := direct.Decode(g, d.params)
	return d.finish(d.result(g), net, fail)
}

type miller struct{ base }

func (d *miller) Decode(g *genome.Genome) (*Result, error) {
	if err := d.check(g); err != nil {
		return nil, err
	}
	res := d.result(g)
	mr, fail := direct.DecodeMiller(g, d.params)
	res.Matrix = &mr.Matrix
	res.Diagnostics[DiagMatrixSize] = float64(mr.Matrix.N)
	res.Diagnostics[DiagPConn] = mr.PConn
	return d.finish(res, mr.Network, fail)
}
