package morphogen

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"morphogen/internal/artifacts"
	"morphogen/internal/decode"
	"morphogen/internal/genome"
	"morphogen/internal/model"
	"morphogen/internal/params"
	"morphogen/internal/storage"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: filepath.Join(base, "decodes"),
		ExportsDir:   filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func directParams() params.Params {
	p := params.Defaults()
	p.Encoding = params.EncodingDirect
	p.Inputs = 2
	p.Outputs = 1
	p.MaxHidden = 3
	return p
}

func TestClientCreateDecodeReportsAndExport(t *testing.T) {
	ctx := context.Background()
	client, base := newTestClient(t)

	items, err := client.CreateGenomes(ctx, GenomeRequest{Params: directParams(), Count: 2, Seed: 7})
	if err != nil {
		t.Fatalf("create genomes: %v", err)
	}
	if len(items) != 2 || items[0].ID == items[1].ID {
		t.Fatalf("expected two distinct genomes, got %+v", items)
	}
	if items[0].Encoding != params.EncodingDirect {
		t.Fatalf("unexpected encoding: %s", items[0].Encoding)
	}

	listed, err := client.Genomes(ctx)
	if err != nil {
		t.Fatalf("list genomes: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 stored genomes, got %d", len(listed))
	}

	summary, err := client.Decode(ctx, DecodeRequest{GenomeID: items[0].ID})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.GenomeID != items[0].ID || summary.ArtifactsDir == "" {
		t.Fatalf("unexpected decode summary: %+v", summary)
	}
	if summary.OK == (summary.Reason != "") {
		t.Fatalf("summary must carry either a network or a reason: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, artifacts.ResultFile)); err != nil {
		t.Fatalf("expected result artifact: %v", err)
	}

	report, err := client.Report(ctx, items[0].ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.GenomeID != items[0].ID || (report.Network == nil) == (report.Failure == nil) {
		t.Fatalf("unexpected report: %+v", report)
	}

	reports, err := client.Reports(ctx, ReportsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 1 || reports[0].GenomeID != items[0].ID {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.GenomeID != items[0].ID {
		t.Fatalf("expected latest export of %s, got %s", items[0].ID, exported.GenomeID)
	}
	if filepath.Dir(exported.Directory) != filepath.Join(base, "exports") {
		t.Fatalf("unexpected export directory: %s", exported.Directory)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, artifacts.ParamsFile)); err != nil {
		t.Fatalf("expected exported params: %v", err)
	}
}

func TestClientDecodeUnknownGenome(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.Decode(context.Background(), DecodeRequest{GenomeID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := client.Report(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for report, got %v", err)
	}
}

func TestClientRejectsInvalidParams(t *testing.T) {
	client, _ := newTestClient(t)
	p := directParams()
	p.Outputs = 0
	_, err := client.CreateGenomes(context.Background(), GenomeRequest{Params: p, Count: 1})
	if !errors.Is(err, params.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestClientBatchRandomPopulation(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	p := params.Defaults()
	p.Encoding = params.EncodingNolfi
	p.Inputs = 2
	p.Outputs = 1
	p.MaxHidden = 6

	summary, err := client.Batch(ctx, BatchRequest{Params: p, Count: 6, Seed: 3, Workers: 3})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if summary.BatchID == "" || summary.Genomes != 6 || len(summary.Results) != 6 {
		t.Fatalf("unexpected batch summary: %+v", summary)
	}
	if summary.Networks+summary.Failures != 6 {
		t.Fatalf("networks + failures must cover the batch: %+v", summary)
	}

	stored, ok, err := client.store.GetBatch(ctx, summary.BatchID)
	if err != nil || !ok {
		t.Fatalf("get batch: ok=%v err=%v", ok, err)
	}
	if len(stored.GenomeIDs) != 6 || stored.Workers != 3 {
		t.Fatalf("unexpected stored batch: %+v", stored)
	}
	for i, id := range stored.GenomeIDs {
		if summary.Results[i].GenomeID != id {
			t.Fatalf("result %d out of order: %s != %s", i, summary.Results[i].GenomeID, id)
		}
		report, ok, err := client.store.GetReport(ctx, id)
		if err != nil || !ok {
			t.Fatalf("get report %s: ok=%v err=%v", id, ok, err)
		}
		if report.BatchID != summary.BatchID {
			t.Fatalf("report %s has batch %q", id, report.BatchID)
		}
	}

	failures, err := client.Reports(ctx, ReportsRequest{FailuresOnly: true})
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(failures) != summary.Failures {
		t.Fatalf("expected %d failure reports, got %d", summary.Failures, len(failures))
	}
}

func TestClientBatchStoredGenomesMustShareParams(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	a, err := client.CreateGenomes(ctx, GenomeRequest{Params: directParams(), Count: 1, Seed: 1})
	if err != nil {
		t.Fatalf("create genome a: %v", err)
	}
	other := directParams()
	other.MaxHidden = 2
	b, err := client.CreateGenomes(ctx, GenomeRequest{Params: other, Count: 1, Seed: 2})
	if err != nil {
		t.Fatalf("create genome b: %v", err)
	}

	if _, err := client.Batch(ctx, BatchRequest{GenomeIDs: []string{a[0].ID, b[0].ID}, NoArtifacts: true}); err == nil {
		t.Fatal("expected error for mixed parameters")
	}
	summary, err := client.Batch(ctx, BatchRequest{GenomeIDs: []string{a[0].ID}, NoArtifacts: true})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if summary.Genomes != 1 || summary.Results[0].ArtifactsDir != "" {
		t.Fatalf("unexpected batch summary: %+v", summary)
	}
	if _, err := client.Batch(ctx, BatchRequest{}); err == nil {
		t.Fatal("expected error for an empty batch request")
	}
}

func TestClientImportGenomeFixture(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", "minimal_genome_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	record, err := storage.DecodeGenome(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if _, err := client.ImportGenome(ctx, record); err != nil {
		t.Fatalf("import: %v", err)
	}

	summary, err := client.Decode(ctx, DecodeRequest{GenomeID: record.ID, NoArtifacts: true})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !summary.OK || summary.Connections != 2 {
		t.Fatalf("expected input->hidden->output network, got %+v", summary)
	}

	probe, err := client.Probe(ctx, ProbeRequest{GenomeID: record.ID, Inputs: []float64{1}, Activation: "identity"})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !probe.FeedForward || len(probe.Outputs) != 1 || len(probe.NEATOutputs) != 1 {
		t.Fatalf("unexpected probe result: %+v", probe)
	}
	if math.Abs(probe.Outputs[0]-0.25) > 1e-9 || math.Abs(probe.NEATOutputs[0]-0.25) > 1e-9 {
		t.Fatalf("expected 1*0.5*0.5 on both evaluators, got %+v", probe)
	}

	broken := record
	broken.ID = "broken"
	broken.Genes = map[string]float64{"units[0].e": 1}
	if _, err := client.ImportGenome(ctx, broken); err == nil {
		t.Fatal("expected error for genes that do not match the layout")
	}
	if _, err := client.ImportGenome(ctx, model.GenomeRecord{}); err == nil {
		t.Fatal("expected error for a record without id")
	}
}

func TestClientEvaluatesNolfiHiddenWithoutFanIn(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	p := params.Defaults()
	p.Inputs = 2
	p.Outputs = 1
	p.MaxHidden = 4
	p.TipRadius = params.Fixed(1.0)
	d, err := decode.New(p)
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	// two inputs on the left edge, a hidden cell whose axon reaches the output
	cells := [4][4]float64{
		{0, 0, 1, 0.1},
		{0, 1, 1, 0.2},
		{0.7, 0.5, 1, -0.75},
		{1, 0.5, 0, 0.4},
	}
	g, err := genome.NewBuilder(11).Build(d.Layout(), func(l genome.Locus, _ genome.FieldSpec) float64 {
		c := cells[l.Record]
		switch l.Field {
		case genome.FieldX:
			return c[0]
		case genome.FieldY:
			return c[1]
		case genome.FieldLength:
			return c[2]
		case genome.FieldWeight:
			return c[3]
		}
		return 0
	})
	if err != nil {
		t.Fatalf("build genome: %v", err)
	}

	res, err := d.Decode(g)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK() || len(res.Network.Edges) != 1 || res.Network.Incoming(res.Network.Edges[0].From) != 0 {
		t.Fatalf("expected one edge out of a hidden without fan-in, got %+v", res.Network)
	}

	if _, err := client.ImportGenome(ctx, model.GenomeRecord{ID: g.ID(), Params: p, Genes: g.Map()}); err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, activation := range []string{"identity", "sigmoid", "tanh"} {
		probe, err := client.Probe(ctx, ProbeRequest{GenomeID: g.ID(), Inputs: []float64{1, 1}, Activation: activation})
		if err != nil {
			t.Fatalf("probe %s: %v", activation, err)
		}
		if !probe.FeedForward || len(probe.Outputs) != 1 || len(probe.NEATOutputs) != 1 {
			t.Fatalf("unexpected %s result: %+v", activation, probe)
		}
		if math.Abs(probe.Outputs[0]-probe.NEATOutputs[0]) > 1e-9 {
			t.Fatalf("%s evaluators disagree: %+v", activation, probe)
		}
	}
}
