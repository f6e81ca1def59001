package genome

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrLayoutMismatch  = errors.New("genome layout mismatch")
	ErrValueOutOfRange = errors.New("gene value out of range")
)

// Genome is an immutable, ordered set of gene values. Decoders read it by
// (block, record, field); the string form of a Locus is only used at the
// storage boundary.
type Genome struct {
	id          string
	layout      *Layout
	values      []float64
	innovations []int
}

// New copies values into a genome with the given layout. Every value must
// lie inside its field's domain.
func New(id string, layout *Layout, values []float64) (*Genome, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: layout is required", ErrLayoutMismatch)
	}
	if len(values) != layout.Size() {
		return nil, fmt.Errorf("%w: got %d values, layout has %d genes", ErrLayoutMismatch, len(values), layout.Size())
	}
	var rangeErr error
	layout.each(func(pos int, locus Locus, spec FieldSpec) {
		if rangeErr != nil {
			return
		}
		v := values[pos]
		if math.IsNaN(v) || !spec.contains(v) {
			rangeErr = fmt.Errorf("%w: %s=%g not in [%g,%g]", ErrValueOutOfRange, locus, v, spec.Min, spec.Max)
		}
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return &Genome{
		id:     id,
		layout: layout,
		values: append([]float64(nil), values...),
	}, nil
}

// FromMap builds a genome from stable locus strings. Missing loci are an
// error; unknown keys are rejected.
func FromMap(id string, layout *Layout, values map[string]float64) (*Genome, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: layout is required", ErrLayoutMismatch)
	}
	flat := make([]float64, layout.Size())
	seen := 0
	var missing error
	layout.each(func(pos int, locus Locus, _ FieldSpec) {
		v, ok := values[locus.String()]
		if !ok {
			if missing == nil {
				missing = fmt.Errorf("%w: missing gene %s", ErrLayoutMismatch, locus)
			}
			return
		}
		flat[pos] = v
		seen++
	})
	if missing != nil {
		return nil, missing
	}
	if seen != len(values) {
		return nil, fmt.Errorf("%w: %d genes do not belong to the layout", ErrLayoutMismatch, len(values)-seen)
	}
	return New(id, layout, flat)
}

func (g *Genome) ID() string {
	return g.id
}

func (g *Genome) Layout() *Layout {
	return g.layout
}

func (g *Genome) Len() int {
	return len(g.values)
}

func (g *Genome) Value(b Block, record int, f Field) (float64, bool) {
	pos, ok := g.layout.offset(b, record, f)
	if !ok {
		return 0, false
	}
	return g.values[pos], true
}

// Float panics when the locus is not part of the layout: decoders check
// layout compatibility before reading, so a miss is a decoder bug.
func (g *Genome) Float(b Block, record int, f Field) float64 {
	v, ok := g.Value(b, record, f)
	if !ok {
		panic(fmt.Sprintf("genome %s: locus %s not in layout", g.id, Locus{Block: b, Record: record, Field: f}))
	}
	return v
}

func (g *Genome) FloatOr(b Block, record int, f Field, def float64) float64 {
	if v, ok := g.Value(b, record, f); ok {
		return v
	}
	return def
}

func (g *Genome) Int(b Block, record int, f Field) int {
	return int(math.Round(g.Float(b, record, f)))
}

func (g *Genome) Bool(b Block, record int, f Field) bool {
	return g.Float(b, record, f) >= 0.5
}

func (g *Genome) BoolOr(b Block, record int, f Field, def bool) bool {
	if v, ok := g.Value(b, record, f); ok {
		return v >= 0.5
	}
	return def
}

// Values returns a copy of the flat gene vector.
func (g *Genome) Values() []float64 {
	return append([]float64(nil), g.values...)
}

// Map returns the genes keyed by their stable locus strings.
func (g *Genome) Map() map[string]float64 {
	out := make(map[string]float64, len(g.values))
	g.layout.each(func(pos int, locus Locus, _ FieldSpec) {
		out[locus.String()] = g.values[pos]
	})
	return out
}

// Innovation returns the innovation number stamped on a record by the
// Builder that created the genome, or -1 when none was assigned.
func (g *Genome) Innovation(b Block, record int) int {
	idx := g.recordIndex(b, record)
	if idx < 0 || idx >= len(g.innovations) {
		return -1
	}
	return g.innovations[idx]
}

// Innovations returns the per-record innovation numbers in layout order.
func (g *Genome) Innovations() []int {
	return append([]int(nil), g.innovations...)
}

// WithInnovations returns a copy of g carrying the given per-record
// innovation numbers.
func (g *Genome) WithInnovations(innovations []int) (*Genome, error) {
	if len(innovations) != 0 && len(innovations) != g.layout.recordCount() {
		return nil, fmt.Errorf("%w: got %d innovation numbers for %d records", ErrLayoutMismatch, len(innovations), g.layout.recordCount())
	}
	clone := *g
	clone.innovations = append([]int(nil), innovations...)
	return &clone, nil
}

func (g *Genome) recordIndex(b Block, record int) int {
	idx := 0
	for _, bl := range g.layout.blocks {
		if bl.spec.Block == b {
			if record < 0 || record >= bl.spec.Records {
				return -1
			}
			return idx + record
		}
		idx += bl.spec.Records
	}
	return -1
}

func (l *Layout) recordCount() int {
	total := 0
	for _, bl := range l.blocks {
		total += bl.spec.Records
	}
	return total
}
