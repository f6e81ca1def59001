package model

import (
	"morphogen/internal/network"
	"morphogen/internal/params"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GenomeRecord is a stored genome together with the parameters that fix its
// layout. Genes are keyed by locus string ("cells[3].x").
type GenomeRecord struct {
	VersionedRecord
	ID           string             `json:"id"`
	Params       params.Params      `json:"params"`
	Genes        map[string]float64 `json:"genes"`
	Innovations  []int              `json:"innovations,omitempty"`
	Seed         int64              `json:"seed"`
	CreatedAtUTC string             `json:"created_at_utc"`
}

// DecodeReport is the persisted outcome of decoding one genome.
type DecodeReport struct {
	VersionedRecord
	GenomeID     string             `json:"genome_id"`
	BatchID      string             `json:"batch_id,omitempty"`
	Encoding     string             `json:"encoding"`
	Network      *network.Network   `json:"network,omitempty"`
	Failure      *network.Failure   `json:"failure,omitempty"`
	Diagnostics  map[string]float64 `json:"diagnostics"`
	Matrix       [][]int            `json:"matrix,omitempty"`
	CreatedAtUTC string             `json:"created_at_utc"`
}

// BatchSummary records one population decode.
type BatchSummary struct {
	VersionedRecord
	ID           string   `json:"id"`
	Encoding     string   `json:"encoding"`
	GenomeIDs    []string `json:"genome_ids"`
	Networks     int      `json:"networks"`
	Failures     int      `json:"failures"`
	Workers      int      `json:"workers"`
	ElapsedMS    int64    `json:"elapsed_ms"`
	CreatedAtUTC string   `json:"created_at_utc"`
}
