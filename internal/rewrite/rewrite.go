// Package rewrite grows a cell population by binary division from a single
// root cell, following a table of per-type production rules.
package rewrite

import (
	"morphogen/internal/cellspace"
	"morphogen/internal/genome"
	"morphogen/internal/params"
)

// Types is the number of cell types the rule table covers.
const Types = 16

var (
	directionX = [8]float64{0, 1, 1, 1, 0, -1, -1, -1}
	directionY = [8]float64{1, 1, 0, -1, -1, -1, 0, 1}
)

// Rule describes one daughter of a division.
type Rule struct {
	NewType      int     `json:"new_type"`
	Bias         float64 `json:"bias"`
	Weight       float64 `json:"weight"`
	Direction    int     `json:"direction"`
	Face         float64 `json:"face"`
	SegLength    float64 `json:"seg_length"`
	SegAngle     float64 `json:"seg_angle"`
	TipRadiusMul float64 `json:"tip_radius_mul"`
}

// Table holds the rule for daughter d of a type-t mother at t*2+d.
type Table [Types * 2]Rule

// Rule returns the rule a type-motherType mother applies to daughter 0 or 1.
func (t *Table) Rule(motherType, daughter int) Rule {
	return t[motherType*2+daughter]
}

// Layout returns the genome layout of a Cangelosi genome: one rules record
// per (type, daughter) pair, plus a global tip radius in auto-network mode.
func Layout(p params.Params) *genome.Layout {
	fields := []genome.FieldSpec{
		genome.Int(genome.FieldType, 0, Types-1),
		genome.Float(genome.FieldBias, -1, 1, 10),
		genome.Float(genome.FieldWeight, -1, 1, 10),
		genome.Int(genome.FieldDirection, 0, 7),
	}
	if p.FaceGene {
		fields = append(fields, genome.Float(genome.FieldFace, 0, 1, 4))
	}
	fields = append(fields,
		genome.Float(genome.FieldLength, p.SegLenRange[0], p.SegLenRange[1], 4),
		genome.Float(genome.FieldAngle, -1, 1, 6),
	)
	if p.TipRadius.Mode == params.TipAutoCell {
		fields = append(fields, genome.Float(genome.FieldTipRadius, 0, 2, 8))
	}
	specs := []genome.BlockSpec{{Block: genome.BlockRules, Records: Types * 2, Fields: fields}}
	if p.TipRadius.Mode == params.TipAutoNetwork {
		specs = append(specs, genome.BlockSpec{
			Block:   genome.BlockGlobals,
			Records: 1,
			Fields:  []genome.FieldSpec{genome.Float(genome.FieldTipRadius, 1, 10, 8)},
		})
	}
	return genome.MustLayout(specs...)
}

// DecodeTable reads the 32 rules of g. A missing tip radius gene decodes to
// a zero multiplier, which leaves the radius unchanged.
func DecodeTable(g *genome.Genome) *Table {
	var t Table
	for i := range t {
		t[i] = Rule{
			NewType:      g.Int(genome.BlockRules, i, genome.FieldType),
			Bias:         g.Float(genome.BlockRules, i, genome.FieldBias),
			Weight:       g.Float(genome.BlockRules, i, genome.FieldWeight),
			Direction:    g.Int(genome.BlockRules, i, genome.FieldDirection),
			Face:         g.FloatOr(genome.BlockRules, i, genome.FieldFace, 0),
			SegLength:    g.Float(genome.BlockRules, i, genome.FieldLength),
			SegAngle:     g.Float(genome.BlockRules, i, genome.FieldAngle),
			TipRadiusMul: g.FloatOr(genome.BlockRules, i, genome.FieldTipRadius, 0),
		}
	}
	return &t
}

// Root is the single cell every population grows from.
func Root(tipRadius float64) cellspace.Cell {
	if tipRadius < 0.5 {
		tipRadius = 1.0
	}
	return cellspace.Cell{
		Expressed: true,
		Bias:      0.5,
		Weight:    0.5,
		TipRadius: tipRadius,
		Index:     cellspace.Unindexed,
	}
}

// Divide returns the daughter a mother produces under r.
func Divide(mother cellspace.Cell, r Rule) cellspace.Cell {
	d := mother
	d.Type = r.NewType
	d.Bias += r.Bias
	d.Weight += r.Weight
	d.Face += r.Face
	d.SegLength += r.SegLength
	d.SegAngle += 0.1 * r.SegAngle
	d.X += directionX[r.Direction&7]
	d.Y += directionY[r.Direction&7]
	if r.TipRadiusMul > 0 {
		d.TipRadius *= r.TipRadiusMul
	}
	if d.TipRadius < 0.5 {
		d.TipRadius = 1.0
	}
	d.Class = cellspace.ClassNone
	d.Index = cellspace.Unindexed
	return d
}

// Rewrite replaces every cell by its two daughters. The result is a new
// slice; mothers are left untouched.
func Rewrite(cells []cellspace.Cell, t *Table) []cellspace.Cell {
	next := make([]cellspace.Cell, 0, 2*len(cells))
	for _, mother := range cells {
		for d := 0; d < 2; d++ {
			next = append(next, Divide(mother, t.Rule(mother.Type, d)))
		}
	}
	return next
}

// Grow divides the root once and then rewrites the population cycles more
// times, giving 2^(cycles+1) cells normalised into the unit square.
func Grow(t *Table, tipRadius float64, cycles int) []cellspace.Cell {
	cells := []cellspace.Cell{Root(tipRadius)}
	for i := 0; i <= cycles; i++ {
		cells = Rewrite(cells, t)
	}
	Normalize(cells, cycles)
	return cells
}

// Normalize maps positions reachable after cycles+1 generations into (0,1).
func Normalize(cells []cellspace.Cell, cycles int) {
	div := float64(2*(cycles+1) + 1)
	for i := range cells {
		cells[i].X = cells[i].X/div + 0.5
		cells[i].Y = cells[i].Y/div + 0.5
	}
}
