package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"morphogen/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[string]model.GenomeRecord
	reports     map[string]model.DecodeReport
	batches     map[string]model.BatchSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[string]model.GenomeRecord)
	s.reports = make(map[string]model.DecodeReport)
	s.batches = make(map[string]model.BatchSummary)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, genome model.GenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.genomes[genome.ID] = cloneGenome(genome)
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (model.GenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genome, ok := s.genomes[id]
	if !ok {
		return model.GenomeRecord{}, false, nil
	}
	return cloneGenome(genome), true, nil
}

// ListGenomes returns every genome ordered by creation time, then id.
func (s *MemoryStore) ListGenomes(_ context.Context) ([]model.GenomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.GenomeRecord, 0, len(s.genomes))
	for _, g := range s.genomes {
		out = append(out, cloneGenome(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAtUTC < out[j].CreatedAtUTC
	})
	return out, nil
}

// DeleteGenome removes a genome and its report.
func (s *MemoryStore) DeleteGenome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.genomes, id)
	delete(s.reports, id)
	return nil
}

func (s *MemoryStore) SaveReport(_ context.Context, report model.DecodeReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.reports[report.GenomeID] = report
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, genomeID string) (model.DecodeReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[genomeID]
	return report, ok, nil
}

func (s *MemoryStore) ListReports(_ context.Context) ([]model.DecodeReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.DecodeReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].GenomeID < out[j].GenomeID
		}
		return out[i].CreatedAtUTC < out[j].CreatedAtUTC
	})
	return out, nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch model.BatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	batch.GenomeIDs = append([]string(nil), batch.GenomeIDs...)
	s.batches[batch.ID] = batch
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id string) (model.BatchSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	return batch, ok, nil
}

func cloneGenome(g model.GenomeRecord) model.GenomeRecord {
	genes := make(map[string]float64, len(g.Genes))
	for k, v := range g.Genes {
		genes[k] = v
	}
	g.Genes = genes
	g.Innovations = append([]int(nil), g.Innovations...)
	return g
}
