package storage

import (
	"encoding/json"
	"errors"

	"morphogen/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the version stamp new records carry.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeGenome(g model.GenomeRecord) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGenome(data []byte) (model.GenomeRecord, error) {
	var genome model.GenomeRecord
	if err := json.Unmarshal(data, &genome); err != nil {
		return model.GenomeRecord{}, err
	}
	if err := checkVersion(genome.VersionedRecord); err != nil {
		return model.GenomeRecord{}, err
	}
	return genome, nil
}

func EncodeReport(r model.DecodeReport) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeReport(data []byte) (model.DecodeReport, error) {
	var report model.DecodeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return model.DecodeReport{}, err
	}
	if err := checkVersion(report.VersionedRecord); err != nil {
		return model.DecodeReport{}, err
	}
	return report, nil
}

func EncodeBatch(b model.BatchSummary) ([]byte, error) {
	return json.Marshal(b)
}

func DecodeBatch(data []byte) (model.BatchSummary, error) {
	var batch model.BatchSummary
	if err := json.Unmarshal(data, &batch); err != nil {
		return model.BatchSummary{}, err
	}
	if err := checkVersion(batch.VersionedRecord); err != nil {
		return model.BatchSummary{}, err
	}
	return batch, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
