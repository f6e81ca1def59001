package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"morphogen/internal/model"
	"morphogen/internal/network"
	"morphogen/internal/params"
)

func TestDecodeGenomeFixture(t *testing.T) {
	genome := decodeGenomeFixture(t, "minimal_genome_v1.json")
	if genome.ID != "genome-minimal-1" {
		t.Fatalf("unexpected genome id: %s", genome.ID)
	}
	if genome.Params.Encoding != params.EncodingDirect {
		t.Fatalf("unexpected encoding: %s", genome.Params.Encoding)
	}
	if genome.Params.TipRadius != params.Fixed(0.5) {
		t.Fatalf("unexpected tip radius: %v", genome.Params.TipRadius)
	}
	if err := genome.Params.Validate(); err != nil {
		t.Fatalf("fixture params invalid: %v", err)
	}
	if len(genome.Genes) != 2 || genome.Genes["units[1].e"] != 1 {
		t.Fatalf("unexpected genes: %+v", genome.Genes)
	}
}

func TestDecodeReportFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("minimal_report_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	report, err := DecodeReport(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if report.GenomeID != "genome-minimal-1" {
		t.Fatalf("unexpected genome id: %s", report.GenomeID)
	}
	if report.Network == nil || len(report.Network.Edges) != 2 {
		t.Fatalf("unexpected network: %+v", report.Network)
	}
	if err := report.Network.Validate(); err != nil {
		t.Fatalf("fixture network invalid: %v", err)
	}
	if !report.Network.Connected(1, 2) {
		t.Fatal("expected edge 1->2 after decode")
	}
}

func TestGenomeCodecRoundTrip(t *testing.T) {
	input := decodeGenomeFixture(t, "minimal_genome_v1.json")
	input.Params.TipRadius = params.TipRadius{Mode: params.TipAutoCell}

	encoded, err := EncodeGenome(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeGenome(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, input) {
		t.Fatalf("genome mismatch: got=%+v want=%+v", decoded, input)
	}
}

func TestReportCodecKeepsFailure(t *testing.T) {
	input := model.DecodeReport{
		VersionedRecord: CurrentVersion(),
		GenomeID:        "g1",
		BatchID:         "b1",
		Encoding:        "kitano",
		Failure:         network.NoNetwork(network.ReasonNoConnections, "empty"),
		Diagnostics:     map[string]float64{"pConn": 0},
		Matrix:          [][]int{{0, 0}, {0, 1}},
	}
	encoded, err := EncodeReport(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeReport(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Network != nil {
		t.Fatalf("expected no network, got %+v", decoded.Network)
	}
	if decoded.Failure == nil || decoded.Failure.Reason != network.ReasonNoConnections {
		t.Fatalf("unexpected failure: %+v", decoded.Failure)
	}
	if !errors.Is(decoded.Failure, network.ErrNoNetwork) {
		t.Fatal("decoded failure should wrap ErrNoNetwork")
	}
	if !reflect.DeepEqual(decoded.Matrix, input.Matrix) {
		t.Fatalf("matrix mismatch: %+v", decoded.Matrix)
	}
}

func TestBatchCodecRoundTrip(t *testing.T) {
	input := model.BatchSummary{
		VersionedRecord: CurrentVersion(),
		ID:              "b1",
		Encoding:        "nolfi",
		GenomeIDs:       []string{"g1", "g2"},
		Networks:        1,
		Failures:        1,
		Workers:         2,
		ElapsedMS:       12,
	}
	encoded, err := EncodeBatch(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBatch(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, input) {
		t.Fatalf("batch mismatch: got=%+v want=%+v", decoded, input)
	}
}

func TestDecodeGenomeVersionMismatch(t *testing.T) {
	genome := decodeGenomeFixture(t, "minimal_genome_v1.json")
	genome.CodecVersion++

	encoded, err := EncodeGenome(genome)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodeGenome(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodeReportAndBatchVersionMismatch(t *testing.T) {
	report, err := EncodeReport(model.DecodeReport{GenomeID: "g1"})
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}
	if _, err := DecodeReport(report); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for report, got: %v", err)
	}

	batch, err := EncodeBatch(model.BatchSummary{ID: "b1", VersionedRecord: model.VersionedRecord{SchemaVersion: 2, CodecVersion: 1}})
	if err != nil {
		t.Fatalf("encode batch: %v", err)
	}
	if _, err := DecodeBatch(batch); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for batch, got: %v", err)
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

func decodeGenomeFixture(t *testing.T, name string) model.GenomeRecord {
	t.Helper()

	path := fixturePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	genome, err := DecodeGenome(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	return genome
}
