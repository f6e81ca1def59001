package storage

import (
	"context"
	"testing"

	"morphogen/internal/model"
)

func TestMemoryStoreGenomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.GenomeRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "g1",
		Genes:           map[string]float64{"units[0].e": 1},
		CreatedAtUTC:    "2026-01-01T00:00:00Z",
	}
	if err := store.SaveGenome(ctx, input); err != nil {
		t.Fatalf("save genome: %v", err)
	}
	input.Genes["units[0].e"] = 0

	output, ok, err := store.GetGenome(ctx, "g1")
	if err != nil {
		t.Fatalf("get genome: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted genome")
	}
	if output.Genes["units[0].e"] != 1 {
		t.Fatalf("stored genome aliases caller map: %+v", output.Genes)
	}

	if _, ok, _ := store.GetGenome(ctx, "missing"); ok {
		t.Fatal("expected missing genome")
	}
}

func TestMemoryStoreListsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, g := range []model.GenomeRecord{
		{ID: "b", CreatedAtUTC: "2026-01-02T00:00:00Z"},
		{ID: "c", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{ID: "a", CreatedAtUTC: "2026-01-02T00:00:00Z"},
	} {
		if err := store.SaveGenome(ctx, g); err != nil {
			t.Fatalf("save genome: %v", err)
		}
		if err := store.SaveReport(ctx, model.DecodeReport{GenomeID: g.ID, CreatedAtUTC: g.CreatedAtUTC}); err != nil {
			t.Fatalf("save report: %v", err)
		}
	}

	genomes, err := store.ListGenomes(ctx)
	if err != nil {
		t.Fatalf("list genomes: %v", err)
	}
	if len(genomes) != 3 || genomes[0].ID != "c" || genomes[1].ID != "a" || genomes[2].ID != "b" {
		t.Fatalf("unexpected genome order: %+v", genomes)
	}
	reports, err := store.ListReports(ctx)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 3 || reports[0].GenomeID != "c" {
		t.Fatalf("unexpected report order: %+v", reports)
	}

	if err := store.DeleteGenome(ctx, "a"); err != nil {
		t.Fatalf("delete genome: %v", err)
	}
	if _, ok, _ := store.GetReport(ctx, "a"); ok {
		t.Fatal("report should be deleted with its genome")
	}
}

func TestMemoryStoreBatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.SaveBatch(ctx, model.BatchSummary{ID: "b1"}); err == nil {
		t.Fatal("expected error before init")
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.BatchSummary{ID: "b1", GenomeIDs: []string{"g1", "g2"}, Networks: 2}
	if err := store.SaveBatch(ctx, input); err != nil {
		t.Fatalf("save batch: %v", err)
	}
	output, ok, err := store.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if !ok || output.Networks != 2 || len(output.GenomeIDs) != 2 {
		t.Fatalf("unexpected batch: %+v", output)
	}
}
