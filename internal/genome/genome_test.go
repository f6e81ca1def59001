package genome

import (
	"errors"
	"testing"
)

func testLayout() *Layout {
	return MustLayout(
		BlockSpec{Block: BlockGlobals, Records: 1, Fields: []FieldSpec{Float(FieldTipRadius, 1, 10, 8)}},
		BlockSpec{Block: BlockCells, Records: 3, Fields: []FieldSpec{
			Binary(FieldExistence),
			Float(FieldX, 0, 1, 3),
			Int(FieldType, 0, 15),
		}},
	)
}

func TestLayoutSizeAndOffsets(t *testing.T) {
	l := testLayout()
	if l.Size() != 1+3*3 {
		t.Fatalf("unexpected layout size: %d", l.Size())
	}
	if l.Records(BlockCells) != 3 || l.Records(BlockRules) != 0 {
		t.Fatalf("unexpected record counts: cells=%d rules=%d", l.Records(BlockCells), l.Records(BlockRules))
	}
	pos, ok := l.offset(BlockCells, 2, FieldType)
	if !ok || pos != 1+2*3+2 {
		t.Fatalf("unexpected offset: pos=%d ok=%v", pos, ok)
	}
	if _, ok := l.offset(BlockCells, 3, FieldX); ok {
		t.Fatal("expected out-of-range record to miss")
	}
	if l.Has(BlockCells, FieldTipRadius) {
		t.Fatal("cells block must not carry a tip radius field")
	}
}

func TestNewLayoutRejectsDuplicates(t *testing.T) {
	_, err := NewLayout(
		BlockSpec{Block: BlockCells, Records: 1, Fields: []FieldSpec{Binary(FieldExistence)}},
		BlockSpec{Block: BlockCells, Records: 1, Fields: []FieldSpec{Binary(FieldExistence)}},
	)
	if err == nil {
		t.Fatal("expected duplicate block error")
	}
	_, err = NewLayout(BlockSpec{Block: BlockCells, Records: 1, Fields: []FieldSpec{Binary(FieldX), Binary(FieldX)}})
	if err == nil {
		t.Fatal("expected duplicate field error")
	}
}

func TestLocusStringRoundTrip(t *testing.T) {
	locus := Locus{Block: BlockProductions, Record: 12, Field: FieldRHS3}
	if got := locus.String(); got != "productions[12].rhs3" {
		t.Fatalf("unexpected locus string: %q", got)
	}
	parsed, err := ParseLocus(locus.String())
	if err != nil {
		t.Fatalf("parse locus: %v", err)
	}
	if parsed != locus {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
	for _, bad := range []string{"", "cells", "cells[x].e", "nope[1].e", "cells[1].zz", "cells[1]"} {
		if _, err := ParseLocus(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestNewValidatesRanges(t *testing.T) {
	l := testLayout()
	values := []float64{2, 1, 0.5, 3, 0, 0, 0, 1, 1, 15}
	g, err := New("g1", l, values)
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	if got := g.Int(BlockCells, 2, FieldType); got != 15 {
		t.Fatalf("unexpected type gene: %d", got)
	}
	if !g.Bool(BlockCells, 0, FieldExistence) || g.Bool(BlockCells, 1, FieldExistence) {
		t.Fatal("unexpected existence genes")
	}
	values[0] = 0.5
	if _, err := New("g2", l, values); !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	values[0] = 2
	values[3] = 2.5
	if _, err := New("g3", l, values); !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("expected integer domain error, got %v", err)
	}
	if _, err := New("g4", l, values[:4]); !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("expected layout mismatch, got %v", err)
	}
}

func TestGenomeIsImmutable(t *testing.T) {
	values := []float64{2, 1, 0.5, 3, 0, 0, 0, 1, 1, 15}
	g, err := New("g1", testLayout(), values)
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	values[1] = 0
	out := g.Values()
	out[2] = 0.75
	if !g.Bool(BlockCells, 0, FieldExistence) || g.Float(BlockCells, 0, FieldX) != 0.5 {
		t.Fatal("genome values changed through caller slices")
	}
}

func TestMapRoundTrip(t *testing.T) {
	l := testLayout()
	g, err := New("g1", l, []float64{2, 1, 0.5, 3, 0, 0, 0, 1, 1, 15})
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	m := g.Map()
	if m["cells[0].x"] != 0.5 || m["globals[0].r"] != 2 {
		t.Fatalf("unexpected map: %v", m)
	}
	back, err := FromMap("g1", l, m)
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	for i, v := range back.Values() {
		if v != g.Values()[i] {
			t.Fatalf("value %d differs: %g != %g", i, v, g.Values()[i])
		}
	}
	m["cells[9].x"] = 0
	if _, err := FromMap("g1", l, m); !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("expected unknown key rejection, got %v", err)
	}
	delete(m, "cells[9].x")
	delete(m, "cells[1].t")
	if _, err := FromMap("g1", l, m); !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("expected missing key rejection, got %v", err)
	}
}

func TestQuantize(t *testing.T) {
	spec := Float(FieldX, 0, 1, 3)
	if got := spec.Quantize(0.5); got != 4.0/7.0 {
		t.Fatalf("unexpected 3-bit quantization: %g", got)
	}
	if got := spec.Quantize(-3); got != 0 {
		t.Fatalf("expected clamp to min, got %g", got)
	}
	if got := Int(FieldType, 0, 7).Quantize(6.6); got != 7 {
		t.Fatalf("unexpected int quantization: %g", got)
	}
	if got := Binary(FieldExistence).Quantize(0.49); got != 0 {
		t.Fatalf("unexpected binary quantization: %g", got)
	}
}
