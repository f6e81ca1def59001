package decode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"morphogen/internal/genome"
)

// BatchResult is the outcome of decoding a population. Results keep the
// order of the input genomes.
type BatchResult struct {
	ID       string        `json:"id"`
	Encoding string        `json:"encoding"`
	Results  []*Result     `json:"results"`
	Networks int           `json:"networks"`
	Failures int           `json:"failures"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Batch decodes genomes with a pool of workers. A genome that decodes to no
// network is a normal result; only a layout mismatch or cancellation of ctx
// fails the batch, reporting the error of the lowest failing index.
func Batch(ctx context.Context, d Decoder, genomes []*genome.Genome, workers int) (*BatchResult, error) {
	type job struct {
		idx    int
		genome *genome.Genome
	}
	type result struct {
		idx int
		res *Result
		err error
	}

	start := time.Now()
	out := &BatchResult{
		ID:       uuid.NewString(),
		Encoding: string(d.Encoding()),
		Results:  make([]*Result, len(genomes)),
	}
	if len(genomes) == 0 {
		return out, nil
	}

	jobs := make(chan job)
	results := make(chan result, len(genomes))

	workerCount := workers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(genomes) {
		workerCount = len(genomes)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				res, err := d.Decode(j.genome)
				if err != nil {
					results <- result{idx: j.idx, err: fmt.Errorf("genome %d: %w", j.idx, err)}
					continue
				}
				results <- result{idx: j.idx, res: res}
			}
		}()
	}

	for i := range genomes {
		jobs <- job{idx: i, genome: genomes[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	var firstErr error
	firstIdx := len(genomes)
	for r := range results {
		if r.err != nil {
			if r.idx < firstIdx {
				firstIdx, firstErr = r.idx, r.err
			}
			continue
		}
		out.Results[r.idx] = r.res
		if r.res.OK() {
			out.Networks++
		} else {
			out.Failures++
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	out.Elapsed = time.Since(start)
	return out, nil
}
