package genome

import "testing"

func TestBuilderRandomIsDeterministicPerSeed(t *testing.T) {
	l := testLayout()
	a, err := NewBuilder(7).Random(l)
	if err != nil {
		t.Fatalf("random a: %v", err)
	}
	b, err := NewBuilder(7).Random(l)
	if err != nil {
		t.Fatalf("random b: %v", err)
	}
	if a.ID() != b.ID() {
		t.Fatalf("expected equal ids for equal seeds: %s vs %s", a.ID(), b.ID())
	}
	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("gene %d differs: %g vs %g", i, av[i], bv[i])
		}
	}
}

func TestBuilderRandomStaysInDomain(t *testing.T) {
	l := testLayout()
	b := NewBuilder(3)
	for i := 0; i < 50; i++ {
		g, err := b.Random(l)
		if err != nil {
			t.Fatalf("random genome %d: %v", i, err)
		}
		r := g.Float(BlockGlobals, 0, FieldTipRadius)
		if r < 1 || r > 10 {
			t.Fatalf("tip radius out of range: %g", r)
		}
	}
}

func TestBuilderInnovationCounterIsPerContext(t *testing.T) {
	l := testLayout()
	first := NewBuilder(1)
	second := NewBuilder(1)

	g1, err := first.Random(l)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	g2, err := first.Random(l)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if first.Innovation() != 8 {
		t.Fatalf("expected 8 innovations after two 4-record genomes, got %d", first.Innovation())
	}
	if g1.Innovation(BlockGlobals, 0) != 0 || g1.Innovation(BlockCells, 2) != 3 {
		t.Fatalf("unexpected first genome innovations: %v", g1.Innovations())
	}
	if g2.Innovation(BlockGlobals, 0) != 4 {
		t.Fatalf("expected second genome to continue numbering, got %v", g2.Innovations())
	}

	other, err := second.Random(l)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if other.Innovation(BlockGlobals, 0) != 0 {
		t.Fatalf("independent builder must start from zero, got %d", other.Innovation(BlockGlobals, 0))
	}
	if g1.Innovation(BlockRules, 0) != -1 {
		t.Fatal("expected -1 for a block outside the layout")
	}
}
