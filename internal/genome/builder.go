package genome

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Builder is a genome construction context. It owns the random source and
// the innovation counter for the genomes it creates; two builders never
// share numbering.
type Builder struct {
	rng        *rand.Rand
	innovation int
}

// NewBuilder returns a builder whose random genomes are fixed by seed.
func NewBuilder(seed int64) *Builder {
	return &Builder{rng: rand.New(rand.NewSource(seed))}
}

// NextInnovation returns the next innovation number and advances the
// counter.
func (b *Builder) NextInnovation() int {
	n := b.innovation
	b.innovation++
	return n
}

// Innovation reports how many innovation numbers have been issued.
func (b *Builder) Innovation() int {
	return b.innovation
}

// Random draws every gene uniformly from its domain, quantized the way the
// field declares.
func (b *Builder) Random(layout *Layout) (*Genome, error) {
	return b.Build(layout, func(_ Locus, spec FieldSpec) float64 {
		switch spec.Kind {
		case KindBinary:
			return float64(b.rng.Intn(2))
		case KindInt:
			span := int(spec.Max - spec.Min)
			return spec.Min + float64(b.rng.Intn(span+1))
		}
		return spec.Quantize(spec.Min + b.rng.Float64()*(spec.Max-spec.Min))
	})
}

// Build creates a genome whose values come from fn, stamping a fresh id and
// one innovation number per record.
func (b *Builder) Build(layout *Layout, fn func(Locus, FieldSpec) float64) (*Genome, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: layout is required", ErrLayoutMismatch)
	}
	values := make([]float64, layout.Size())
	layout.each(func(pos int, locus Locus, spec FieldSpec) {
		values[pos] = fn(locus, spec)
	})
	id, err := uuid.NewRandomFromReader(b.rng)
	if err != nil {
		return nil, fmt.Errorf("genome id: %w", err)
	}
	g, err := New(id.String(), layout, values)
	if err != nil {
		return nil, err
	}
	innovations := make([]int, layout.recordCount())
	for i := range innovations {
		innovations[i] = b.NextInnovation()
	}
	return g.WithInnovations(innovations)
}
