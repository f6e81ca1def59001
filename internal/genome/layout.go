package genome

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Block groups fixed-shape gene records of one kind.
type Block uint8

const (
	BlockGlobals Block = iota
	BlockCells
	BlockRules
	BlockProductions
	BlockUnits
	BlockLinks
	blockCount
)

var blockNames = [blockCount]string{"globals", "cells", "rules", "productions", "units", "links"}

func (b Block) String() string {
	if b < blockCount {
		return blockNames[b]
	}
	return "block(" + strconv.Itoa(int(b)) + ")"
}

// Field names one gene inside a record.
type Field uint8

const (
	FieldExistence Field = iota
	FieldX
	FieldY
	FieldAngle
	FieldLength
	FieldWeight
	FieldBias
	FieldType
	FieldTipRadius
	FieldDirection
	FieldFace
	FieldLHS
	FieldRHS0
	FieldRHS1
	FieldRHS2
	FieldRHS3
	fieldCount
)

var fieldNames = [fieldCount]string{
	"e", "x", "y", "a", "s", "w", "b", "t", "r", "d", "f",
	"lhs", "rhs0", "rhs1", "rhs2", "rhs3",
}

func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// RHS returns the right-hand-side field for production slot i in [0,4).
func RHS(i int) Field {
	return FieldRHS0 + Field(i)
}

type Kind uint8

const (
	KindFloat Kind = iota
	KindInt
	KindBinary
)

// FieldSpec describes the value domain of one field. Float fields with
// Bits > 0 are quantized to 2^Bits evenly spaced levels.
type FieldSpec struct {
	Field Field
	Kind  Kind
	Min   float64
	Max   float64
	Bits  int
}

func Float(f Field, min, max float64, bits int) FieldSpec {
	return FieldSpec{Field: f, Kind: KindFloat, Min: min, Max: max, Bits: bits}
}

func Int(f Field, min, max int) FieldSpec {
	return FieldSpec{Field: f, Kind: KindInt, Min: float64(min), Max: float64(max)}
}

func Binary(f Field) FieldSpec {
	return FieldSpec{Field: f, Kind: KindBinary, Min: 0, Max: 1}
}

// Quantize snaps v into the field's domain.
func (s FieldSpec) Quantize(v float64) float64 {
	if v < s.Min {
		v = s.Min
	}
	if v > s.Max {
		v = s.Max
	}
	switch s.Kind {
	case KindBinary:
		if v >= 0.5 {
			return 1
		}
		return 0
	case KindInt:
		return math.Round(v)
	}
	if s.Bits <= 0 || s.Max == s.Min {
		return v
	}
	levels := float64(uint64(1)<<uint(s.Bits) - 1)
	step := (s.Max - s.Min) / levels
	idx := math.Round((v - s.Min) / step)
	return s.Min + idx*step
}

func (s FieldSpec) contains(v float64) bool {
	if v < s.Min || v > s.Max {
		return false
	}
	if s.Kind == KindFloat {
		return true
	}
	return v == math.Trunc(v)
}

// BlockSpec declares Records records of the same field set.
type BlockSpec struct {
	Block   Block
	Records int
	Fields  []FieldSpec
}

type blockLayout struct {
	spec   BlockSpec
	offset int
	slot   [fieldCount]int
}

// Layout fixes the shape of a genome: which blocks exist, how many records
// each holds and which fields every record carries. Genes are stored in one
// flat slice in block, record, field order.
type Layout struct {
	blocks  []blockLayout
	byBlock [blockCount]int
	size    int
}

func NewLayout(specs ...BlockSpec) (*Layout, error) {
	l := &Layout{}
	for _, spec := range specs {
		if spec.Block >= blockCount {
			return nil, fmt.Errorf("unknown block %d", spec.Block)
		}
		if l.byBlock[spec.Block] != 0 {
			return nil, fmt.Errorf("duplicate block %s", spec.Block)
		}
		if spec.Records < 0 {
			return nil, fmt.Errorf("block %s: records must be >= 0", spec.Block)
		}
		bl := blockLayout{offset: l.size}
		bl.spec = BlockSpec{Block: spec.Block, Records: spec.Records, Fields: append([]FieldSpec(nil), spec.Fields...)}
		for i, f := range spec.Fields {
			if f.Field >= fieldCount {
				return nil, fmt.Errorf("block %s: unknown field %d", spec.Block, f.Field)
			}
			if bl.slot[f.Field] != 0 {
				return nil, fmt.Errorf("block %s: duplicate field %s", spec.Block, f.Field)
			}
			if f.Min > f.Max {
				return nil, fmt.Errorf("block %s field %s: min %g > max %g", spec.Block, f.Field, f.Min, f.Max)
			}
			bl.slot[f.Field] = i + 1
		}
		l.blocks = append(l.blocks, bl)
		l.byBlock[spec.Block] = len(l.blocks)
		l.size += spec.Records * len(spec.Fields)
	}
	return l, nil
}

func MustLayout(specs ...BlockSpec) *Layout {
	l, err := NewLayout(specs...)
	if err != nil {
		panic(err)
	}
	return l
}

// Size is the total number of genes.
func (l *Layout) Size() int {
	return l.size
}

func (l *Layout) block(b Block) (*blockLayout, bool) {
	if b >= blockCount || l.byBlock[b] == 0 {
		return nil, false
	}
	return &l.blocks[l.byBlock[b]-1], true
}

func (l *Layout) Records(b Block) int {
	bl, ok := l.block(b)
	if !ok {
		return 0
	}
	return bl.spec.Records
}

func (l *Layout) Has(b Block, f Field) bool {
	_, ok := l.Spec(b, f)
	return ok
}

func (l *Layout) Spec(b Block, f Field) (FieldSpec, bool) {
	bl, ok := l.block(b)
	if !ok || f >= fieldCount || bl.slot[f] == 0 {
		return FieldSpec{}, false
	}
	return bl.spec.Fields[bl.slot[f]-1], true
}

func (l *Layout) offset(b Block, record int, f Field) (int, bool) {
	bl, ok := l.block(b)
	if !ok || f >= fieldCount || bl.slot[f] == 0 {
		return 0, false
	}
	if record < 0 || record >= bl.spec.Records {
		return 0, false
	}
	return bl.offset + record*len(bl.spec.Fields) + bl.slot[f] - 1, true
}

// Blocks returns a copy of the block declarations in storage order.
func (l *Layout) Blocks() []BlockSpec {
	out := make([]BlockSpec, 0, len(l.blocks))
	for _, bl := range l.blocks {
		out = append(out, BlockSpec{
			Block:   bl.spec.Block,
			Records: bl.spec.Records,
			Fields:  append([]FieldSpec(nil), bl.spec.Fields...),
		})
	}
	return out
}

func (l *Layout) Equal(other *Layout) bool {
	if l == other {
		return true
	}
	if l == nil || other == nil || len(l.blocks) != len(other.blocks) || l.size != other.size {
		return false
	}
	for i := range l.blocks {
		a, b := l.blocks[i].spec, other.blocks[i].spec
		if a.Block != b.Block || a.Records != b.Records || len(a.Fields) != len(b.Fields) {
			return false
		}
		for j := range a.Fields {
			if a.Fields[j] != b.Fields[j] {
				return false
			}
		}
	}
	return true
}

// each visits every gene in storage order.
func (l *Layout) each(fn func(pos int, locus Locus, spec FieldSpec)) {
	pos := 0
	for _, bl := range l.blocks {
		for r := 0; r < bl.spec.Records; r++ {
			for _, f := range bl.spec.Fields {
				fn(pos, Locus{Block: bl.spec.Block, Record: r, Field: f.Field}, f)
				pos++
			}
		}
	}
}

// Locus is the stable identifier of a single gene.
type Locus struct {
	Block  Block
	Record int
	Field  Field
}

func (l Locus) String() string {
	return fmt.Sprintf("%s[%d].%s", l.Block, l.Record, l.Field)
}

var errMalformedLocus = errors.New("malformed locus")

// ParseLocus reverses Locus.String.
func ParseLocus(s string) (Locus, error) {
	open := strings.IndexByte(s, '[')
	closing := strings.IndexByte(s, ']')
	if open <= 0 || closing < open || closing+1 >= len(s) || s[closing+1] != '.' {
		return Locus{}, fmt.Errorf("%w: %q", errMalformedLocus, s)
	}
	var locus Locus
	found := false
	for i, name := range blockNames {
		if name == s[:open] {
			locus.Block = Block(i)
			found = true
			break
		}
	}
	if !found {
		return Locus{}, fmt.Errorf("%w: unknown block in %q", errMalformedLocus, s)
	}
	record, err := strconv.Atoi(s[open+1 : closing])
	if err != nil || record < 0 {
		return Locus{}, fmt.Errorf("%w: bad record in %q", errMalformedLocus, s)
	}
	locus.Record = record
	field := s[closing+2:]
	found = false
	for i, name := range fieldNames {
		if name == field {
			locus.Field = Field(i)
			found = true
			break
		}
	}
	if !found {
		return Locus{}, fmt.Errorf("%w: unknown field in %q", errMalformedLocus, s)
	}
	return locus, nil
}
