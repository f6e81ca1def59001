// Package cellspace holds the spatial cell model shared by the Nolfi and
// Cangelosi encodings: cells are decoded or grown, classified by position,
// given network indices and wired together by their axon trees.
package cellspace

import (
	"fmt"
	"math/bits"

	"morphogen/internal/genome"
	"morphogen/internal/params"
)

type Class uint8

const (
	ClassNone Class = iota
	ClassInput
	ClassHidden
	ClassOutput
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInput:
		return "input"
	case ClassHidden:
		return "hidden"
	case ClassOutput:
		return "output"
	}
	return fmt.Sprintf("class(%d)", c)
}

// Unindexed marks a cell without a network index.
const Unindexed = -1

// Cell is one phenotype unit. Coordinates live in the unit square until the
// space is scaled for wiring.
type Cell struct {
	Expressed bool    `json:"expressed"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Type      int     `json:"type"`
	Bias      float64 `json:"bias"`
	Weight    float64 `json:"weight"`
	SegLength float64 `json:"seg_length"`
	SegAngle  float64 `json:"seg_angle"`
	Face      float64 `json:"face"`
	TipRadius float64 `json:"tip_radius"`
	Class     Class   `json:"class"`
	Index     int     `json:"index"`
}

// Layout returns the genome layout of a Nolfi genome: one cell record per
// potential neuron, plus a global tip radius in auto-network mode.
func Layout(p params.Params) *genome.Layout {
	typeBits := bits.Len(uint(p.Types - 1))
	fields := make([]genome.FieldSpec, 0, 9)
	if p.ExistenceGene {
		fields = append(fields, genome.Binary(genome.FieldExistence))
	}
	fields = append(fields,
		genome.Float(genome.FieldX, 0, 1, 3),
		genome.Float(genome.FieldY, 0, 1, 5),
		genome.Float(genome.FieldAngle, -1, 1, 6),
		genome.Float(genome.FieldLength, 0, 1, 4),
		genome.Float(genome.FieldWeight, -1, 1, 10),
		genome.Float(genome.FieldBias, -1, 1, 10),
		genome.Int(genome.FieldType, 0, (1<<typeBits)-1),
	)
	if p.TipRadius.Mode == params.TipAutoCell {
		fields = append(fields, genome.Float(genome.FieldTipRadius, 1, 10, 8))
	}
	specs := []genome.BlockSpec{{Block: genome.BlockCells, Records: p.Cells(), Fields: fields}}
	if p.TipRadius.Mode == params.TipAutoNetwork {
		specs = append(specs, genome.BlockSpec{
			Block:   genome.BlockGlobals,
			Records: 1,
			Fields:  []genome.FieldSpec{genome.Float(genome.FieldTipRadius, 1, 10, 8)},
		})
	}
	return genome.MustLayout(specs...)
}

// GlobalTipRadius resolves the network-wide tip radius: the globals gene when
// present, otherwise the fixed value from the parameters.
func GlobalTipRadius(g *genome.Genome, p params.Params) float64 {
	if v, ok := g.Value(genome.BlockGlobals, 0, genome.FieldTipRadius); ok {
		return v
	}
	return p.TipRadius.Value
}

// DecodeCells reads every cell record of g.
func DecodeCells(g *genome.Genome, p params.Params) []Cell {
	n := g.Layout().Records(genome.BlockCells)
	radius := GlobalTipRadius(g, p)
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = Cell{
			Expressed: g.BoolOr(genome.BlockCells, i, genome.FieldExistence, true),
			X:         g.Float(genome.BlockCells, i, genome.FieldX),
			Y:         g.Float(genome.BlockCells, i, genome.FieldY),
			Type:      g.Int(genome.BlockCells, i, genome.FieldType),
			Bias:      g.Float(genome.BlockCells, i, genome.FieldBias),
			Weight:    g.Float(genome.BlockCells, i, genome.FieldWeight),
			SegLength: g.Float(genome.BlockCells, i, genome.FieldLength),
			SegAngle:  g.Float(genome.BlockCells, i, genome.FieldAngle),
			TipRadius: g.FloatOr(genome.BlockCells, i, genome.FieldTipRadius, radius),
			Index:     Unindexed,
		}
	}
	return cells
}
